// Package scheduler runs the pairing round on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler wraps a cron runner around a single job. Overlapping ticks are
// skipped: if a round is still in flight when the next one fires, the new
// tick is dropped and logged rather than queued.
type Scheduler struct {
	c      *cron.Cron
	logger zerolog.Logger
	busy   atomic.Bool
}

// New creates an empty Scheduler. Specs use the standard five-field cron
// format or "@every" descriptors.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		c:      cron.New(),
		logger: logger,
	}
}

// Add registers job to run on spec.
func (s *Scheduler) Add(spec string, job func(ctx context.Context) error) error {
	if _, err := s.c.AddFunc(spec, s.wrap(job)); err != nil {
		return fmt.Errorf("scheduler.Scheduler.Add: spec %q: %w", spec, err)
	}
	return nil
}

// wrap guards job against overlap and panics and logs its outcome.
func (s *Scheduler) wrap(job func(ctx context.Context) error) func() {
	return func() {
		if !s.busy.CompareAndSwap(false, true) {
			s.logger.Warn().Msg("previous run still in flight, skipping tick")
			return
		}
		defer s.busy.Store(false)

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("scheduled run panicked")
			}
		}()

		started := time.Now()
		if err := job(context.Background()); err != nil {
			s.logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("scheduled run failed")
			return
		}
		s.logger.Debug().Dur("elapsed", time.Since(started)).Msg("scheduled run finished")
	}
}

// Start begins firing scheduled jobs in the cron runner's own goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop stops the cron runner and waits for an in-flight run to finish or ctx
// to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.c.Stop().Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler.Scheduler.Stop: %w", ctx.Err())
	}
}
