// Package scheduler runs the periodic token refresh sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"activity-guard/internal/common/logging"
)

// refreshSchedule fires at the top of every hour, well inside the
// five-minute expiry margin of a six-hour token lifetime.
const refreshSchedule = "0 * * * *"

// sweepTimeout bounds one full pass over the stored owners.
const sweepTimeout = 5 * time.Minute

// Sweeper is the refresh surface the scheduler drives.
type Sweeper interface {
	RefreshAllNearExpiry(ctx context.Context) error
}

// Scheduler owns the cron runner. Start and Stop bracket its lifetime.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  logging.Logger
}

func New(sweeper Sweeper, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start registers the hourly sweep and launches the cron runner in its own
// goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(refreshSchedule, s.runSweep); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("refresh scheduler started", logging.Field{Key: "schedule", Value: refreshSchedule})
	return nil
}

// Stop halts the runner and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("refresh scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if err := s.sweeper.RefreshAllNearExpiry(ctx); err != nil {
		// Individual owner failures were already logged; a sweep-level
		// error here is reported and the next hour retries.
		s.logger.Error("refresh sweep finished with errors", err)
	}
}
