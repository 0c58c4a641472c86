package reports

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/countries"
	"sitepulse/internal/timeframe"
)

// ErrUnknownMetric is returned when a drilldown request names a metric this
// layer does not expose.
var ErrUnknownMetric = errors.New("unknown drilldown metric")

// Drilldown metric names accepted by GetDrilldown.
const (
	MetricVisitors  = "visitors"
	MetricPageviews = "pageviews"
	MetricBounce    = "bounce"
	MetricDuration  = "duration"
)

// VisitSummary is one session row as shown in drilldown lists.
type VisitSummary struct {
	SessionHash     string `json:"session_hash"`
	Date            string `json:"date"`
	Pageviews       int64  `json:"pageviews"`
	DurationSeconds int64  `json:"duration_seconds"`
	LandingPage     string `json:"landing_page"`
	DeviceType      string `json:"device_type"`
	Country         string `json:"country"`
	CountryCode     string `json:"-"`
	ReferrerType    string `json:"referrer_type"`
}

// VisitorsDrilldown backs the visitors headline metric.
type VisitorsDrilldown struct {
	Daily  []TrendPoint   `json:"daily"`
	Recent []VisitSummary `json:"recent"`
}

// PageviewsDrilldown backs the pageviews headline metric.
type PageviewsDrilldown struct {
	Daily    []TrendPoint `json:"daily"`
	TopPages []CountItem  `json:"top_pages"`
}

// BounceDrilldown contrasts bounced and engaged sessions.
type BounceDrilldown struct {
	Bounced       []VisitSummary    `json:"bounced"`
	Engaged       []VisitSummary    `json:"engaged"`
	ByLandingPage []CountItem       `json:"by_landing_page"`
	BySource      []SourceBreakdown `json:"by_source"`
}

// DurationDrilldown backs the average-duration headline metric.
type DurationDrilldown struct {
	Histogram []CountItem    `json:"histogram"`
	Longest   []VisitSummary `json:"longest"`
}

// GetDrilldown expands one headline metric into its underlying sessions.
// Unknown metrics return ErrUnknownMetric.
func GetDrilldown(db *gorm.DB, r timeframe.DateRange, metric string, limit int) (interface{}, error) {
	limit = ClampLimit(limit)

	switch metric {
	case MetricVisitors:
		return getVisitorsDrilldown(db, r, limit)
	case MetricPageviews:
		return getPageviewsDrilldown(db, r, limit)
	case MetricBounce:
		return getBounceDrilldown(db, r, limit)
	case MetricDuration:
		return getDurationDrilldown(db, r, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}

func getVisitorsDrilldown(db *gorm.DB, r timeframe.DateRange, limit int) (*VisitorsDrilldown, error) {
	daily, err := getDailyMetric(db, r, "unique_sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to get daily visitors: %w", err)
	}

	recent, err := getVisitSummaries(db, r, "last_seen DESC", "", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent visits: %w", err)
	}

	out := &VisitorsDrilldown{Recent: recent}
	for _, point := range r.BuildDailySeries(daily) {
		out.Daily = append(out.Daily, TrendPoint{Date: point.Date, Count: point.Count})
	}
	return out, nil
}

func getPageviewsDrilldown(db *gorm.DB, r timeframe.DateRange, limit int) (*PageviewsDrilldown, error) {
	daily, err := getDailyMetric(db, r, "total_pageviews")
	if err != nil {
		return nil, fmt.Errorf("failed to get daily pageviews: %w", err)
	}

	var topPages []CountItem
	err = db.Raw(`
		SELECT page_path AS name, COUNT(*) AS count
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ?
		GROUP BY page_path
		ORDER BY count DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), limit).Scan(&topPages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top pages: %w", err)
	}

	out := &PageviewsDrilldown{TopPages: topPages}
	for _, point := range r.BuildDailySeries(daily) {
		out.Daily = append(out.Daily, TrendPoint{Date: point.Date, Count: point.Count})
	}
	return out, nil
}

func getBounceDrilldown(db *gorm.DB, r timeframe.DateRange, limit int) (*BounceDrilldown, error) {
	bounced, err := getVisitSummaries(db, r, "last_seen DESC", "is_bounce = 1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounced visits: %w", err)
	}

	engaged, err := getVisitSummaries(db, r, "duration_seconds DESC", "is_bounce = 0", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get engaged visits: %w", err)
	}

	var byLanding []CountItem
	err = db.Raw(`
		SELECT landing_page AS name, COUNT(*) AS count
		FROM visits
		WHERE date_only BETWEEN ? AND ? AND is_bounce = 1 AND landing_page != ''
		GROUP BY landing_page
		ORDER BY count DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), limit).Scan(&byLanding).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bounces by landing page: %w", err)
	}

	var bySource []SourceBreakdown
	err = db.Raw(`
		SELECT referrer_type AS type, COUNT(*) AS visitors
		FROM visits
		WHERE date_only BETWEEN ? AND ?
		GROUP BY referrer_type
		ORDER BY visitors DESC
	`, r.StartString(), r.EndString()).Scan(&bySource).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bounces by source: %w", err)
	}

	bySource, err = bounceRatesBySource(db, r, bySource)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounce rates by source: %w", err)
	}

	return &BounceDrilldown{
		Bounced:       bounced,
		Engaged:       engaged,
		ByLandingPage: byLanding,
		BySource:      bySource,
	}, nil
}

// bounceRatesBySource fills Percent with each source's bounce rate rather
// than its share of traffic.
func bounceRatesBySource(db *gorm.DB, r timeframe.DateRange, sources []SourceBreakdown) ([]SourceBreakdown, error) {
	for i := range sources {
		var result struct{ Bounced int64 }
		err := db.Raw(`
			SELECT COUNT(*) AS bounced
			FROM visits
			WHERE date_only BETWEEN ? AND ? AND referrer_type = ? AND is_bounce = 1
		`, r.StartString(), r.EndString(), sources[i].Type).Scan(&result).Error
		if err != nil {
			return nil, err
		}
		sources[i].Percent = Percent(result.Bounced, sources[i].Visitors)
	}
	return sources, nil
}

func getDurationDrilldown(db *gorm.DB, r timeframe.DateRange, limit int) (*DurationDrilldown, error) {
	var histogram []CountItem
	err := db.Raw(`
		SELECT
			CASE
				WHEN duration_seconds <= 10 THEN '0-10s'
				WHEN duration_seconds <= 30 THEN '11-30s'
				WHEN duration_seconds <= 60 THEN '31-60s'
				WHEN duration_seconds <= 180 THEN '1-3m'
				WHEN duration_seconds <= 600 THEN '3-10m'
				ELSE '10m+'
			END AS name,
			COUNT(*) AS count
		FROM visits
		WHERE date_only BETWEEN ? AND ?
		GROUP BY name
		ORDER BY MIN(duration_seconds) ASC
	`, r.StartString(), r.EndString()).Scan(&histogram).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get duration histogram: %w", err)
	}

	longest, err := getVisitSummaries(db, r, "duration_seconds DESC", "", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get longest visits: %w", err)
	}

	return &DurationDrilldown{Histogram: histogram, Longest: longest}, nil
}

func getVisitSummaries(db *gorm.DB, r timeframe.DateRange, order, extra string, limit int) ([]VisitSummary, error) {
	cond := &conditions{}
	cond.add("date_only BETWEEN ? AND ?", r.StartString(), r.EndString())
	cond.addIf(extra != "", extra)

	var rows []VisitSummary
	query := fmt.Sprintf(`
		SELECT session_hash, date_only AS date, pageviews, duration_seconds,
			landing_page, device_type, country_code, referrer_type
		FROM visits
		%s
		ORDER BY %s
		LIMIT ?
	`, cond.where(), order)
	err := db.Raw(query, append(cond.args, limit)...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Country = countries.DisplayName(rows[i].CountryCode)
	}
	return rows, nil
}
