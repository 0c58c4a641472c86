package reports

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/countries"
	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"
)

// CountryItem is one country's share of a period's traffic.
type CountryItem struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Visitors  int64   `json:"visitors"`
	Pageviews int64   `json:"pageviews"`
	Percent   float64 `json:"percent"`
}

// Locations breaks down a period's traffic by visitor country, with a
// dedicated source breakdown for UK traffic.
type Locations struct {
	Countries     []CountryItem     `json:"countries"`
	UKBreakdown   []SourceBreakdown `json:"uk_breakdown"`
	TotalVisitors int64             `json:"total_visitors"`
}

// GetLocations builds the geography report for a range.
func GetLocations(db *gorm.DB, r timeframe.DateRange, limit int) (*Locations, error) {
	limit = ClampLimit(limit)

	total, err := getHumanVisitorTotal(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor total: %w", err)
	}

	countryRows, err := getCountryBreakdown(db, r, total, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get country breakdown: %w", err)
	}

	ukRows, err := getUKSources(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get UK sources: %w", err)
	}

	return &Locations{
		Countries:     countryRows,
		UKBreakdown:   ukRows,
		TotalVisitors: total,
	}, nil
}

func getCountryBreakdown(db *gorm.DB, r timeframe.DateRange, total int64, limit int) ([]CountryItem, error) {
	var rows []CountryItem
	err := db.Raw(`
		SELECT country_code AS code, COUNT(DISTINCT session_hash) AS visitors, COUNT(*) AS pageviews
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND device_type != ?
		GROUP BY country_code
		ORDER BY visitors DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), events.DeviceTypeBot, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Name = countries.DisplayName(rows[i].Code)
		rows[i].Percent = Percent(rows[i].Visitors, total)
	}
	return rows, nil
}

// getUKSources breaks GB sessions down by referrer type; percentages are
// relative to the GB total, not the whole period.
func getUKSources(db *gorm.DB, r timeframe.DateRange) ([]SourceBreakdown, error) {
	var rows []SourceBreakdown
	err := db.Raw(`
		SELECT referrer_type AS type, COUNT(*) AS visitors
		FROM visits
		WHERE date_only BETWEEN ? AND ? AND country_code = 'GB' AND referrer_type != ?
		GROUP BY referrer_type
		ORDER BY visitors DESC
	`, r.StartString(), r.EndString(), events.ReferrerTypeInternal).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var total int64
	for _, row := range rows {
		total += row.Visitors
	}
	for i := range rows {
		rows[i].Percent = Percent(rows[i].Visitors, total)
	}
	return rows, nil
}
