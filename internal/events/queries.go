package events

import (
	"fmt"

	"gorm.io/gorm"
)

// DayTotals holds the event-store side of a daily rollup.
type DayTotals struct {
	TotalPageviews int64
	UniqueSessions int64
}

// GetDayTotals returns the pageview count and distinct session count for one
// calendar day. Days with no rows resolve to zeros, never an error.
func GetDayTotals(db *gorm.DB, date string) (DayTotals, error) {
	var totals DayTotals

	query := `
    SELECT
        COUNT(*) AS total_pageviews,
        COUNT(DISTINCT session_hash) AS unique_sessions
    FROM pageview_events
    WHERE date_only = ?
    `

	if err := db.Raw(query, date).Scan(&totals).Error; err != nil {
		return DayTotals{}, fmt.Errorf("error fetching day totals for %s: %w", date, err)
	}

	return totals, nil
}

// GetDaysMissingStats returns distinct event-store dates that have no matching
// daily_stats row, restricted to dates strictly before the given date, in
// ascending order, capped at limit.
func GetDaysMissingStats(db *gorm.DB, before string, limit int) ([]string, error) {
	var dates []string

	query := `
    SELECT DISTINCT e.date_only
    FROM pageview_events e
    LEFT JOIN daily_stats d ON d.stat_date = e.date_only
    WHERE d.stat_date IS NULL
      AND e.date_only < ?
    ORDER BY e.date_only ASC
    LIMIT ?
    `

	if err := db.Raw(query, before, limit).Scan(&dates).Error; err != nil {
		return nil, fmt.Errorf("error finding days missing stats: %w", err)
	}

	return dates, nil
}

// DeleteBefore removes all pageview events dated strictly before cutoff and
// returns the number of rows deleted. Rows dated exactly at the cutoff are
// retained.
func DeleteBefore(db *gorm.DB, cutoff string) (int64, error) {
	result := db.Where("date_only < ?", cutoff).Delete(&PageviewEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting pageview events before %s: %w", cutoff, result.Error)
	}
	return result.RowsAffected, nil
}

// GetFirstPageview returns the oldest event in the store, or nil when the
// store is empty.
func GetFirstPageview(db *gorm.DB) (*PageviewEvent, error) {
	var event PageviewEvent
	err := db.Order("viewed_at ASC").First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching first pageview: %w", err)
	}
	return &event, nil
}
