// Package visits holds the per-day session rows derived from pageview events.
//
// A Visit is scoped to a single calendar day: a visitor active across midnight
// produces two rows. Rows are created and updated by the external ingestion
// path as pageviews arrive; this system only reads them, except for the
// retention cleanup job which deletes expired rows.
package visits

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Visit is one session record per (session hash, calendar day) pair.
type Visit struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	SessionHash     string    `gorm:"uniqueIndex:idx_visit_hash_date;size:64;not null"`
	DateOnly        string    `gorm:"uniqueIndex:idx_visit_hash_date;index;size:10;not null"`
	FirstSeen       time.Time `gorm:"not null"`
	LastSeen        time.Time `gorm:"index;not null"`
	Pageviews       int       `gorm:"not null;default:0"`
	LandingPage     string
	ExitPage        string
	DeviceType      string `gorm:"index"`
	CountryCode     string `gorm:"size:2"`
	ReferrerType    string `gorm:"index"`
	UTMSource       string
	DurationSeconds int  `gorm:"not null;default:0"`
	IsBounce        bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DayTotals holds the visit side of a daily rollup.
type DayTotals struct {
	BouncedSessions      int64
	TotalDurationSeconds int64
}

// GetDayTotals returns the bounce count and summed duration for one calendar
// day. Days with no rows resolve to zeros.
func GetDayTotals(db *gorm.DB, date string) (DayTotals, error) {
	var totals DayTotals

	query := `
    SELECT
        COALESCE(SUM(is_bounce), 0) AS bounced_sessions,
        COALESCE(SUM(duration_seconds), 0) AS total_duration_seconds
    FROM visits
    WHERE date_only = ?
    `

	if err := db.Raw(query, date).Scan(&totals).Error; err != nil {
		return DayTotals{}, fmt.Errorf("error fetching visit totals for %s: %w", date, err)
	}

	return totals, nil
}

// FindByHash returns the most recent visit row for a session hash. A visitor
// active across midnight has one row per day; the latest one carries the
// current session state.
func FindByHash(db *gorm.DB, sessionHash string) (*Visit, error) {
	var visit Visit
	err := db.Where("session_hash = ?", sessionHash).
		Order("date_only DESC").
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// DeleteBefore removes all visits dated strictly before cutoff and returns the
// number of rows deleted.
func DeleteBefore(db *gorm.DB, cutoff string) (int64, error) {
	result := db.Where("date_only < ?", cutoff).Delete(&Visit{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting visits before %s: %w", cutoff, result.Error)
	}
	return result.RowsAffected, nil
}
