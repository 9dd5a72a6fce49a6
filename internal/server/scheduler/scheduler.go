// Package scheduler drives the recurring task generator on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/server/generator"
)

type Generator interface {
	Generate(ctx context.Context, now time.Time) (generator.Result, error)
}

type Scheduler struct {
	gen      Generator
	clock    clock.Clock
	interval time.Duration
	logger   logging.Logger
}

func New(gen Generator, c clock.Clock, interval time.Duration, logger logging.Logger) *Scheduler {
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Scheduler{gen: gen, clock: c, interval: interval, logger: logger.With("module", "scheduler")}
}

// Run generates once immediately and then every interval until ctx is
// cancelled. Failed runs are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	s.logger.Info(ctx, "Starting scheduler", "interval", s.interval)
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping scheduler...")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := s.clock.Now()
	res, err := s.gen.Generate(ctx, start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error(ctx, "task generation failed", "error", err)
		return
	}
	s.logger.Info(ctx, "task generation finished",
		"generated", res.Generated, "errors", res.Errors, "started_at", start)
}
