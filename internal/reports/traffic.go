package reports

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"
)

// SourceBreakdown is one referrer type's share of sessions in a period.
type SourceBreakdown struct {
	Type     string  `json:"type"`
	Visitors int64   `json:"visitors"`
	Percent  float64 `json:"percent"`
}

// TrafficSeries is the aligned per-day trend arrays for a period.
type TrafficSeries struct {
	Labels    []string `json:"labels"`
	Visitors  []int64  `json:"visitors"`
	Pageviews []int64  `json:"pageviews"`
}

// Traffic is the daily visitor/pageview series plus the session source mix
// for a period.
type Traffic struct {
	Timeseries TrafficSeries     `json:"timeseries"`
	Sources    []SourceBreakdown `json:"sources"`
}

// GetTraffic builds the traffic report for a range. Trend series come from
// the daily rollup table and are zero-filled so every day in the range has a
// point, including days with no traffic.
func GetTraffic(db *gorm.DB, r timeframe.DateRange) (*Traffic, error) {
	visitors, err := getDailyMetric(db, r, "unique_sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to get daily visitors: %w", err)
	}

	pageviews, err := getDailyMetric(db, r, "total_pageviews")
	if err != nil {
		return nil, fmt.Errorf("failed to get daily pageviews: %w", err)
	}

	sources, err := getTrafficSources(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get traffic sources: %w", err)
	}

	traffic := &Traffic{
		Timeseries: TrafficSeries{
			Labels:    r.DayStrings(),
			Visitors:  make([]int64, 0, r.Days()),
			Pageviews: make([]int64, 0, r.Days()),
		},
		Sources: sources,
	}
	for _, point := range r.BuildDailySeries(visitors) {
		traffic.Timeseries.Visitors = append(traffic.Timeseries.Visitors, point.Count)
	}
	for _, point := range r.BuildDailySeries(pageviews) {
		traffic.Timeseries.Pageviews = append(traffic.Timeseries.Pageviews, point.Count)
	}
	return traffic, nil
}

func getDailyMetric(db *gorm.DB, r timeframe.DateRange, column string) ([]timeframe.DateStat, error) {
	var rows []timeframe.DateStat
	query := fmt.Sprintf(`
		SELECT stat_date AS date, %s AS count
		FROM daily_stats
		WHERE stat_date BETWEEN ? AND ?
		ORDER BY stat_date ASC
	`, column)
	err := db.Raw(query, r.StartString(), r.EndString()).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// getTrafficSources groups sessions by how they arrived. Internal navigation
// is excluded as it does not represent an acquisition channel.
func getTrafficSources(db *gorm.DB, r timeframe.DateRange) ([]SourceBreakdown, error) {
	var rows []SourceBreakdown
	err := db.Raw(`
		SELECT referrer_type AS type, COUNT(*) AS visitors
		FROM visits
		WHERE date_only BETWEEN ? AND ? AND referrer_type != ?
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
