package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsRelay/internal/ports"
)

type pollerLoop struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// Scheduler drives one loop per poller. Loops share nothing but the ledger.
type Scheduler struct {
	loops  []pollerLoop
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Add pairs a pipeline with the driver that paces it.
func (s *Scheduler) Add(driver ports.Scheduler, pipeline *Pipeline) {
	s.loops = append(s.loops, pollerLoop{driver: driver, pipeline: pipeline})
}

// Start launches every loop. A failing driver stops the ones already running.
func (s *Scheduler) Start(ctx context.Context) error {
	for i, loop := range s.loops {
		pipeline := loop.pipeline
		job := func(ctx context.Context) {
			pipeline.RunRound(ctx)
		}
		if err := loop.driver.Start(ctx, job); err != nil {
			for _, started := range s.loops[:i] {
				_ = started.driver.Stop(ctx)
			}
			return fmt.Errorf("start poller %s: %w", pipeline.Settings().Name, err)
		}
		s.logger.Info("poller started",
			"poller", pipeline.Settings().Name,
			"interval", pipeline.Settings().Interval,
		)
	}
	return nil
}

// Stop asks every loop to exit and waits for them within ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	var errs []error
	for _, loop := range s.loops {
		if err := loop.driver.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop poller %s: %w", loop.pipeline.Settings().Name, err))
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() {
	for _, loop := range s.loops {
		<-loop.driver.Done()
	}
}
