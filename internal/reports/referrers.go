package reports

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"
)

// ReferrerDomainItem is one referring domain's traffic in a period.
type ReferrerDomainItem struct {
	Domain    string `json:"domain"`
	Type      string `json:"type"`
	Visitors  int64  `json:"visitors"`
	Pageviews int64  `json:"pageviews"`
}

// CampaignItem is one UTM campaign's traffic in a period.
type CampaignItem struct {
	Campaign  string `json:"campaign"`
	Source    string `json:"source"`
	Visitors  int64  `json:"visitors"`
	Pageviews int64  `json:"pageviews"`
}

// Referrers breaks down where a period's sessions came from.
type Referrers struct {
	ByType       []SourceBreakdown    `json:"by_type"`
	TopReferrers []ReferrerDomainItem `json:"top_referrers"`
	Campaigns    []CampaignItem       `json:"campaigns"`
	SearchTerms  []CountItem          `json:"search_terms"`
}

// GetReferrers builds the acquisition report for a range. typeFilter narrows
// the top-referrers list to one referrer type when non-empty.
func GetReferrers(db *gorm.DB, r timeframe.DateRange, limit int, typeFilter string) (*Referrers, error) {
	limit = ClampLimit(limit)

	byType, err := getTrafficSources(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrer types: %w", err)
	}

	topReferrers, err := getTopReferrers(db, r, limit, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}

	campaigns, err := getCampaigns(db, r, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	terms, err := getSearchTerms(db, r, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get search terms: %w", err)
	}

	return &Referrers{
		ByType:       byType,
		TopReferrers: topReferrers,
		Campaigns:    campaigns,
		SearchTerms:  terms,
	}, nil
}

// getTopReferrers lists referring domains. Direct and internal traffic carry
// no domain and are excluded.
func getTopReferrers(db *gorm.DB, r timeframe.DateRange, limit int, typeFilter string) ([]ReferrerDomainItem, error) {
	cond := &conditions{}
	cond.add("date_only BETWEEN ? AND ?", r.StartString(), r.EndString())
	cond.add("referrer_domain != ''")
	cond.add("referrer_type NOT IN (?, ?)", events.ReferrerTypeDirect, events.ReferrerTypeInternal)
	cond.addIf(typeFilter != "", "referrer_type = ?", typeFilter)

	var rows []ReferrerDomainItem
	query := fmt.Sprintf(`
		SELECT referrer_domain AS domain, referrer_type AS type,
			COUNT(DISTINCT session_hash) AS visitors, COUNT(*) AS pageviews
		FROM pageview_events
		%s
		GROUP BY referrer_domain, referrer_type
		ORDER BY visitors DESC
		LIMIT ?
	`, cond.where())
	err := db.Raw(query, append(cond.args, limit)...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getCampaigns(db *gorm.DB, r timeframe.DateRange, limit int) ([]CampaignItem, error) {
	var rows []CampaignItem
	err := db.Raw(`
		SELECT utm_campaign AS campaign, utm_source AS source,
			COUNT(DISTINCT session_hash) AS visitors, COUNT(*) AS pageviews
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND utm_campaign != ''
		GROUP BY utm_campaign, utm_source
		ORDER BY visitors DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getSearchTerms(db *gorm.DB, r timeframe.DateRange, limit int) ([]CountItem, error) {
	var rows []CountItem
	err := db.Raw(`
		SELECT utm_term AS name, COUNT(DISTINCT session_hash) AS count
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND utm_term != ''
		GROUP BY utm_term
		ORDER BY count DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
