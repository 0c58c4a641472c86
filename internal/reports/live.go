package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/countries"
)

const (
	// DefaultLiveWindowMinutes is the activity window when none is requested.
	DefaultLiveWindowMinutes = 5
	// MaxLiveWindowMinutes caps the requested activity window.
	MaxLiveWindowMinutes = 60
)

// LiveVisitor is one currently active session: its latest page and totals
// within the live window.
type LiveVisitor struct {
	SessionHash string    `json:"session_hash"`
	CurrentPage string    `json:"current_page"`
	LastSeen    time.Time `json:"last_seen"`
	Pageviews   int64     `json:"pageviews"`
	DeviceType  string    `json:"device_type"`
	Country     string    `json:"country"`
	CountryCode string    `json:"-"`
}

// MinutePoint is one minute of the trailing activity series.
type MinutePoint struct {
	Minute string `json:"minute"`
	Count  int64  `json:"count"`
}

// Live is the real-time view: sessions active inside the window plus a
// per-minute pageview series for the trailing hour.
type Live struct {
	ActiveCount   int64         `json:"active_count"`
	Visitors      []LiveVisitor `json:"visitors"`
	Activity      []MinutePoint `json:"activity"`
	CutoffMinutes int           `json:"cutoff_minutes"`
}

// ClampLiveWindow resolves a requested window to [1, 60] minutes, defaulting
// when no window is requested.
func ClampLiveWindow(minutes int) int {
	if minutes <= 0 {
		return DefaultLiveWindowMinutes
	}
	if minutes > MaxLiveWindowMinutes {
		return MaxLiveWindowMinutes
	}
	return minutes
}

// GetLive builds the real-time report. now is injected so tests can pin the
// window edges.
func GetLive(db *gorm.DB, now time.Time, minutes int) (*Live, error) {
	minutes = ClampLiveWindow(minutes)
	cutoff := now.Add(-time.Duration(minutes) * time.Minute)

	visitors, err := getActiveVisitors(db, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get active visitors: %w", err)
	}

	activity, err := getMinuteActivity(db, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get minute activity: %w", err)
	}

	return &Live{
		ActiveCount:   int64(len(visitors)),
		Visitors:      visitors,
		Activity:      activity,
		CutoffMinutes: minutes,
	}, nil
}

// getActiveVisitors returns one row per active session with the page of its
// most recent view, most recent session first.
func getActiveVisitors(db *gorm.DB, cutoff time.Time) ([]LiveVisitor, error) {
	var rows []LiveVisitor
	err := db.Raw(`
		SELECT e.session_hash, e.page_path AS current_page, e.device_type,
			e.country_code, e.viewed_at AS last_seen, t.pageviews
		FROM pageview_events e
		JOIN (
			SELECT session_hash, MAX(viewed_at) AS last_seen, COUNT(*) AS pageviews
			FROM pageview_events
			WHERE viewed_at >= ?
			GROUP BY session_hash
		) t ON t.session_hash = e.session_hash AND t.last_seen = e.viewed_at
		ORDER BY e.viewed_at DESC
	`, cutoff).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Country = countries.DisplayName(rows[i].CountryCode)
	}
	return rows, nil
}

// getMinuteActivity builds a zero-filled per-minute pageview series for the
// trailing hour.
func getMinuteActivity(db *gorm.DB, now time.Time) ([]MinutePoint, error) {
	hourAgo := now.Add(-time.Hour)

	var grouped []MinutePoint
	err := db.Raw(`
		SELECT strftime('%Y-%m-%d %H:%M', viewed_at) AS minute, COUNT(*) AS count
		FROM pageview_events
		WHERE viewed_at >= ?
		GROUP BY minute
	`, hourAgo).Scan(&grouped).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(grouped))
	for _, point := range grouped {
		counts[point.Minute] = point.Count
	}

	series := make([]MinutePoint, 0, 60)
	cursor := hourAgo.UTC().Truncate(time.Minute)
	for i := 0; i < 60; i++ {
		label := cursor.Format("2006-01-02 15:04")
		series = append(series, MinutePoint{Minute: label, Count: counts[label]})
		cursor = cursor.Add(time.Minute)
	}
	return series, nil
}
