package reports

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// MetricDelta carries a headline metric alongside its value for the
// preceding period of equal length. ChangePct is nil when the previous value
// is zero, so the API can distinguish "no baseline" from "no change".
type MetricDelta struct {
	Current   float64  `json:"current"`
	Previous  float64  `json:"previous"`
	ChangePct *float64 `json:"change_pct"`
}

// Overview summarizes the four headline metrics for a period, each compared
// against the previous period of the same length.
type Overview struct {
	Visitors    MetricDelta `json:"visitors"`
	Pageviews   MetricDelta `json:"pageviews"`
	BounceRate  MetricDelta `json:"bounce_rate"`
	AvgDuration MetricDelta `json:"avg_duration"`
}

type periodTotals struct {
	Pageviews int64
	Sessions  int64
	Bounced   int64
	Duration  int64
}

// GetOverview reads the headline metrics for the range from the daily rollup
// table. Reading daily_stats instead of raw events keeps the dashboard's most
// frequent query cheap regardless of event volume.
func GetOverview(db *gorm.DB, r timeframe.DateRange) (*Overview, error) {
	current, err := getPeriodTotals(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get current period totals: %w", err)
	}

	previous, err := getPeriodTotals(db, r.Previous())
	if err != nil {
		return nil, fmt.Errorf("failed to get previous period totals: %w", err)
	}

	return &Overview{
		Visitors:    delta(float64(current.Sessions), float64(previous.Sessions)),
		Pageviews:   delta(float64(current.Pageviews), float64(previous.Pageviews)),
		BounceRate:  delta(bounceRate(current), bounceRate(previous)),
		AvgDuration: delta(avgDuration(current), avgDuration(previous)),
	}, nil
}

func getPeriodTotals(db *gorm.DB, r timeframe.DateRange) (periodTotals, error) {
	var totals periodTotals
	err := db.Raw(`
		SELECT
			COALESCE(SUM(total_pageviews), 0) AS pageviews,
			COALESCE(SUM(unique_sessions), 0) AS sessions,
			COALESCE(SUM(bounced_sessions), 0) AS bounced,
			COALESCE(SUM(total_duration_seconds), 0) AS duration
		FROM daily_stats
		WHERE stat_date BETWEEN ? AND ?
	`, r.StartString(), r.EndString()).Scan(&totals).Error
	if err != nil {
		return periodTotals{}, err
	}
	return totals, nil
}

func bounceRate(t periodTotals) float64 {
	return Percent(t.Bounced, t.Sessions)
}

func avgDuration(t periodTotals) float64 {
	sessions := t.Sessions
	if sessions == 0 {
		sessions = 1
	}
	return Round1(float64(t.Duration) / float64(sessions))
}

func delta(current, previous float64) MetricDelta {
	d := MetricDelta{Current: current, Previous: previous}
	if previous != 0 {
		pct := Round1((current - previous) / previous * 100)
		d.ChangePct = &pct
	}
	return d
}
