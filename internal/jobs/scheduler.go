package jobs

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/settings"
)

// Cron expressions for the nightly jobs. Aggregation runs shortly after
// midnight so yesterday's events are complete; cleanup runs later to avoid
// overlapping with aggregation on slow nights.
const (
	aggregateSchedule = "5 0 * * *"
	cleanupSchedule   = "0 2 * * *"
)

// Scheduler drives the nightly aggregation and cleanup jobs on a cron
// schedule. Jobs are mutually exclusive within one process; a tick that
// arrives while another job is running is skipped, not queued.
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
	cron      *cron.Cron

	processingMutex sync.Mutex
	isProcessing    bool
	isRunning       bool
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	return &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		cfg:       config.GetConfig(),
	}, nil
}

// Start registers the cron entries and begins ticking. It is a no-op when
// the scheduler is disabled by configuration or already running.
func (s *Scheduler) Start() error {
	if !s.cfg.SchedulerEnabled {
		s.logger.Info("Background jobs are disabled")
		return nil
	}
	if s.isRunning {
		return nil
	}

	s.cron = cron.New()

	if _, err := s.cron.AddFunc(aggregateSchedule, func() {
		s.executeJobSafely("aggregate", s.runAggregation)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(cleanupSchedule, func() {
		s.executeJobSafely("cleanup", s.runCleanup)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Background jobs started",
		slog.String("aggregate_schedule", aggregateSchedule),
		slog.String("cleanup_schedule", cleanupSchedule))
	return nil
}

// Stop halts the cron loop, waiting for an in-flight job to finish.
func (s *Scheduler) Stop() {
	if !s.isRunning || s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// executeJobSafely runs a job only if no other job is currently executing,
// and keeps a panicking job from taking the process down.
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution, previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

func (s *Scheduler) runAggregation() error {
	job := NewAggregateJob(s.dbManager.GetConnection(), s.logger)
	return job.Run("", true)
}

func (s *Scheduler) runCleanup() error {
	db := s.dbManager.GetConnection()
	retention := settings.GetRetentionDays(db)
	_, err := NewCleanupJob(db, s.logger, retention).Run()
	return err
}
