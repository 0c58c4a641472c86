package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/stats"
	"sitepulse/internal/timeframe"
	"sitepulse/internal/visits"
)

const (
	// statsMinRetentionDays keeps at least two years of rollups regardless of
	// the raw-data retention setting, so year-over-year reports stay usable.
	statsMinRetentionDays = 730

	// compactionThreshold is the deleted-row count above which the cleanup
	// run reclaims file space.
	compactionThreshold = 1000
)

// CleanupReport counts what one cleanup run removed.
type CleanupReport struct {
	DeletedPageviews int64
	DeletedVisits    int64
	DeletedStats     int64
}

func (r CleanupReport) total() int64 {
	return r.DeletedPageviews + r.DeletedVisits + r.DeletedStats
}

// needsCompaction reports whether any single table lost enough rows to make
// reclaiming file space worthwhile.
func (r CleanupReport) needsCompaction() bool {
	return r.DeletedPageviews > compactionThreshold || r.DeletedVisits > compactionThreshold
}

// CleanupJob deletes raw data older than the retention window and rollups
// older than the stats horizon. Retention is injected at construction so one
// run uses a single consistent value even if the setting changes mid-run.
type CleanupJob struct {
	db            *gorm.DB
	logger        *slog.Logger
	retentionDays int
}

func NewCleanupJob(db *gorm.DB, logger *slog.Logger, retentionDays int) *CleanupJob {
	return &CleanupJob{db: db, logger: logger, retentionDays: retentionDays}
}

// Run deletes expired rows and compacts the database when the run removed
// enough of them. Rows dated exactly on a cutoff are retained.
func (j *CleanupJob) Run() (CleanupReport, error) {
	start := time.Now()
	today := timeframe.Today()

	rawCutoff := today.AddDate(0, 0, -j.retentionDays).Format(events.DateFormat)
	statsCutoff := today.AddDate(0, 0, -j.statsRetentionDays()).Format(events.DateFormat)

	var report CleanupReport
	var err error

	report.DeletedPageviews, err = events.DeleteBefore(j.db, rawCutoff)
	if err != nil {
		return report, fmt.Errorf("failed to delete expired pageviews: %w", err)
	}

	report.DeletedVisits, err = visits.DeleteBefore(j.db, rawCutoff)
	if err != nil {
		return report, fmt.Errorf("failed to delete expired visits: %w", err)
	}

	report.DeletedStats, err = stats.DeleteBefore(j.db, statsCutoff)
	if err != nil {
		return report, fmt.Errorf("failed to delete expired daily stats: %w", err)
	}

	if report.needsCompaction() {
		if err := j.db.Exec("PRAGMA incremental_vacuum").Error; err != nil {
			j.logger.Warn("Database compaction failed", "error", err)
		} else {
			j.logger.Info("Compacted database after cleanup", "deleted_rows", report.total())
		}
	}

	j.logger.Info("Cleanup completed",
		"raw_cutoff", rawCutoff,
		"stats_cutoff", statsCutoff,
		"deleted_pageviews", report.DeletedPageviews,
		"deleted_visits", report.DeletedVisits,
		"deleted_stats", report.DeletedStats,
		"duration", time.Since(start))
	return report, nil
}

// statsRetentionDays keeps rollups for double the raw retention, floored at
// the two-year minimum.
func (j *CleanupJob) statsRetentionDays() int {
	days := 2 * j.retentionDays
	if days < statsMinRetentionDays {
		days = statsMinRetentionDays
	}
	return days
}
