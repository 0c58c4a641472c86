// Package stats owns the durable daily rollup table and the aggregation logic
// that fills it from the event store and visit rows.
package stats

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/visits"
)

// BackfillLimit bounds how many missing dates a single backfill run will
// process. A gap larger than this requires multiple runs.
const BackfillLimit = 30

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DailyStat is the durable rollup: exactly one row per calendar date.
// Values are fully recomputable from the event store and visit rows for that
// date; the table is a cache, not a source of truth.
type DailyStat struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement"`
	StatDate             string `gorm:"uniqueIndex;size:10;not null"`
	TotalPageviews       int64  `gorm:"not null;default:0"`
	UniqueSessions       int64  `gorm:"not null;default:0"`
	BouncedSessions      int64  `gorm:"not null;default:0"`
	TotalDurationSeconds int64  `gorm:"not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidDate reports whether s is a strict YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(events.DateFormat, s)
	return err == nil
}

// Aggregator computes and stores daily rollups.
type Aggregator struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAggregator(db *gorm.DB, logger *slog.Logger) *Aggregator {
	return &Aggregator{db: db, logger: logger}
}

// AggregateDay recomputes the rollup for one calendar date and upserts it.
// The upsert overwrites all four metric columns, so rerunning for the same
// date yields an identical stored row except updated_at. Days with no
// underlying rows store zeros.
func (a *Aggregator) AggregateDay(date string) (*DailyStat, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	started := time.Now()

	eventTotals, err := events.GetDayTotals(a.db, date)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", date, err)
	}

	visitTotals, err := visits.GetDayTotals(a.db, date)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", date, err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO daily_stats (stat_date, total_pageviews, unique_sessions, bounced_sessions, total_duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (stat_date) DO UPDATE SET
			total_pageviews = ?,
			unique_sessions = ?,
			bounced_sessions = ?,
			total_duration_seconds = ?,
			updated_at = ?
	`
	err = a.db.Exec(query,
		date, eventTotals.TotalPageviews, eventTotals.UniqueSessions,
		visitTotals.BouncedSessions, visitTotals.TotalDurationSeconds, now, now,
		eventTotals.TotalPageviews, eventTotals.UniqueSessions,
		visitTotals.BouncedSessions, visitTotals.TotalDurationSeconds, now).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily stat for %s: %w", date, err)
	}

	stat := &DailyStat{
		StatDate:             date,
		TotalPageviews:       eventTotals.TotalPageviews,
		UniqueSessions:       eventTotals.UniqueSessions,
		BouncedSessions:      visitTotals.BouncedSessions,
		TotalDurationSeconds: visitTotals.TotalDurationSeconds,
		UpdatedAt:            now,
	}

	a.logger.Info("Aggregated daily stats",
		slog.String("date", date),
		slog.Int64("pageviews", stat.TotalPageviews),
		slog.Int64("sessions", stat.UniqueSessions),
		slog.Int64("bounces", stat.BouncedSessions),
		slog.Int64("duration_seconds", stat.TotalDurationSeconds),
		slog.Duration("elapsed", time.Since(started)))

	return stat, nil
}

// BackfillMissingDays aggregates every event-store date that has no rollup
// row yet, restricted to dates strictly before the given date, oldest first,
// at most BackfillLimit dates per run. Each date's upsert is its own atomic
// unit: progress committed before a failure stands.
func (a *Aggregator) BackfillMissingDays(before string) (int, error) {
	if !ValidDate(before) {
		return 0, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", before)
	}

	dates, err := events.GetDaysMissingStats(a.db, before, BackfillLimit)
	if err != nil {
		return 0, fmt.Errorf("backfill: %w", err)
	}

	if len(dates) == 0 {
		a.logger.Debug("No missing daily stats to backfill", slog.String("before", before))
		return 0, nil
	}

	for i, date := range dates {
		if _, err := a.AggregateDay(date); err != nil {
			return i, fmt.Errorf("backfill stopped at %s: %w", date, err)
		}
	}

	a.logger.Info("Backfilled missing daily stats",
		slog.Int("count", len(dates)),
		slog.String("from", dates[0]),
		slog.String("to", dates[len(dates)-1]))

	return len(dates), nil
}

// DeleteBefore removes rollup rows dated strictly before cutoff and returns
// the number of rows deleted.
func DeleteBefore(db *gorm.DB, cutoff string) (int64, error) {
	result := db.Where("stat_date < ?", cutoff).Delete(&DailyStat{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting daily stats before %s: %w", cutoff, result.Error)
	}
	return result.RowsAffected, nil
}
