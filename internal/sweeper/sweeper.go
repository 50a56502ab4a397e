// Package sweeper times out abandoned sessions on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IdleSweeper is the part of session.Service the sweeper drives.
type IdleSweeper interface {
	SweepIdle(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs IdleSweeper.SweepIdle on a schedule.
type Sweeper struct {
	target   IdleSweeper
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a sweeper. schedule is a standard five-field cron spec.
func New(target IdleSweeper, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		target:   target,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	n, err := s.target.SweepIdle(ctx, s.now())
	if err != nil {
		return n, fmt.Errorf("sweep idle sessions: %w", err)
	}
	return n, nil
}

// Start blocks, sweeping on schedule, until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("idle sweeper started", zap.String("schedule", s.schedule))

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(s.schedule, func() {
		n, err := s.RunOnce(ctx)
		if err != nil {
			s.logger.Error("idle sweep failed", zap.Error(err))
			return
		}
		s.logger.Debug("idle sweep finished", zap.Int("timed_out", n))
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	<-ctx.Done()

	// Wait for a running sweep to finish.
	<-c.Stop().Done()
	s.logger.Info("idle sweeper stopped")
	return nil
}
