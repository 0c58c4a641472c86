// Package countries is the single shared ISO-3166 display-name lookup used by
// every reporting endpoint.
package countries

import (
	"sync"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is rendered for null or unrecognized country codes.
const Unknown = "Unknown"

var (
	query *gountries.Query
	once  sync.Once
)

// DisplayName maps an ISO-3166 alpha-2 code to its common English name.
// Empty or unrecognized codes render as Unknown; codes gountries does not know
// are upper-cased and returned as-is.
func DisplayName(code string) string {
	if code == "" {
		return Unknown
	}

	once.Do(func() {
		query = gountries.New()
	})

	country, err := query.FindCountryByAlpha(code)
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code)
	}
	return country.Name.Common
}
