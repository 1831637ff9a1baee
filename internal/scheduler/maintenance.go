// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/tasks"
)

// SessionSweeper drops in-memory session state that has been idle too long.
type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Config holds the cron schedules for the maintenance jobs. An empty
// schedule disables the corresponding job.
type Config struct {
	TokenPurgeSchedule string
	SweepSchedule      string
	MaxIdle            time.Duration
}

// MaintenanceScheduler purges expired auth tokens and sweeps idle sessions.
type MaintenanceScheduler struct {
	queue   *tasks.Client
	purger  tasks.TokenPurger
	sweeper SessionSweeper
	config  Config
	log     *logger.Logger

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance. When queue is
// non-nil token purges are enqueued on it; otherwise purger runs inline.
func NewMaintenanceScheduler(queue *tasks.Client, purger tasks.TokenPurger, sweeper SessionSweeper, cfg Config, log *logger.Logger) *MaintenanceScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &MaintenanceScheduler{
		queue:   queue,
		purger:  purger,
		sweeper: sweeper,
		config:  cfg,
		log:     log.With("service", "Scheduler"),
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the configured jobs and begins running them. The
// scheduler stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := 0
	if s.config.TokenPurgeSchedule != "" && (s.queue != nil || s.purger != nil) {
		if err := s.addJob(s.config.TokenPurgeSchedule, func() { s.purgeTokens(ctx) }); err != nil {
			return err
		}
		jobs++
	}
	if s.config.SweepSchedule != "" && s.sweeper != nil {
		if err := s.addJob(s.config.SweepSchedule, s.sweepSessions); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		s.log.Info("Maintenance scheduler disabled")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info("Maintenance scheduler started",
		"token_purge", s.config.TokenPurgeSchedule,
		"sweep", s.config.SweepSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

func (s *MaintenanceScheduler) addJob(schedule string, job func()) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	return nil
}

// Stop waits for running jobs to finish and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	s.log.Info("Maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow runs every configured job once, synchronously.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) {
	if s.queue != nil || s.purger != nil {
		s.purgeTokens(ctx)
	}
	if s.sweeper != nil {
		s.sweepSessions()
	}
}

func (s *MaintenanceScheduler) purgeTokens(ctx context.Context) {
	if s.queue != nil {
		id, err := s.queue.Enqueue(tasks.PurgeExpiredTokensTask{})
		if err != nil {
			s.log.Error("Failed to enqueue token purge", "error", err)
			return
		}
		s.log.Debug("Enqueued token purge", "task_id", id)
		return
	}

	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.log.Error("Token purge failed", "error", err)
		return
	}
	s.log.Info("Purged expired tokens", "count", purged)
}

func (s *MaintenanceScheduler) sweepSessions() {
	if n := s.sweeper.Sweep(s.config.MaxIdle); n > 0 {
		s.log.Info("Swept idle sessions", "count", n)
	}
}

// ValidateCronSchedule validates a five-field cron schedule string.
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}
