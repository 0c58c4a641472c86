package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetReferrers(t *testing.T) {
	t.Run("lists referring domains excluding direct traffic", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		day := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "r1", day,
			testsupport.WithReferrer("google.com", events.ReferrerTypeSearch))
		testsupport.SeedPageview(t, db, "r2", day,
			testsupport.WithReferrer("news.ycombinator.com", events.ReferrerTypeReferral))
		testsupport.SeedPageview(t, db, "r3", day) // direct, no domain

		referrers, err := reports.GetReferrers(db, mustRange(t, "2024-04-01", "2024-04-01"), 10, "")
		require.NoError(t, err)

		require.Len(t, referrers.TopReferrers, 2)
		domains := []string{referrers.TopReferrers[0].Domain, referrers.TopReferrers[1].Domain}
		assert.Contains(t, domains, "google.com")
		assert.Contains(t, domains, "news.ycombinator.com")
	})

	t.Run("type filter narrows the domain list", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		day := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "r1", day,
			testsupport.WithReferrer("google.com", events.ReferrerTypeSearch))
		testsupport.SeedPageview(t, db, "r2", day,
			testsupport.WithReferrer("x.com", events.ReferrerTypeSocial))

		referrers, err := reports.GetReferrers(db, mustRange(t, "2024-04-02", "2024-04-02"), 10, events.ReferrerTypeSocial)
		require.NoError(t, err)

		require.Len(t, referrers.TopReferrers, 1)
		assert.Equal(t, "x.com", referrers.TopReferrers[0].Domain)
	})

	t.Run("groups campaigns and search terms", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		day := time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "c1", day,
			testsupport.WithUTM("newsletter", "email", "spring-launch", ""))
		testsupport.SeedPageview(t, db, "c2", day,
			testsupport.WithUTM("newsletter", "email", "spring-launch", ""))
		testsupport.SeedPageview(t, db, "c3", day,
			testsupport.WithUTM("google", "cpc", "", "site analytics"))

		referrers, err := reports.GetReferrers(db, mustRange(t, "2024-04-03", "2024-04-03"), 10, "")
		require.NoError(t, err)

		require.Len(t, referrers.Campaigns, 1)
		assert.Equal(t, "spring-launch", referrers.Campaigns[0].Campaign)
		assert.Equal(t, int64(2), referrers.Campaigns[0].Visitors)

		require.Len(t, referrers.SearchTerms, 1)
		assert.Equal(t, "site analytics", referrers.SearchTerms[0].Name)
	})
}
