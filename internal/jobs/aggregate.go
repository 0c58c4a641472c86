// Package jobs holds the background maintenance work: the nightly rollup of
// raw pageviews into daily stats, retention cleanup, and the cron scheduler
// that drives both.
package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/stats"
)

// AggregateJob rolls one day of raw events into the daily_stats table and
// optionally backfills older days that never got a row.
type AggregateJob struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAggregateJob(db *gorm.DB, logger *slog.Logger) *AggregateJob {
	return &AggregateJob{db: db, logger: logger}
}

// Yesterday returns the default aggregation target: the most recent fully
// elapsed UTC day.
func Yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(events.DateFormat)
}

// Run aggregates the given date, defaulting to yesterday when date is empty.
// With backfill set it additionally fills missing days strictly before the
// target, oldest first, up to the backfill cap.
func (j *AggregateJob) Run(date string, backfill bool) error {
	if date == "" {
		date = Yesterday()
	}

	aggregator := stats.NewAggregator(j.db, j.logger)

	if _, err := aggregator.AggregateDay(date); err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", date, err)
	}

	if backfill {
		done, err := aggregator.BackfillMissingDays(date)
		if err != nil {
			return fmt.Errorf("backfill stopped after %d days: %w", done, err)
		}
		if done > 0 {
			j.logger.Info("Backfilled missing daily stats", "days", done, "before", date)
		}
	}
	return nil
}
