package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsRelay/internal/ports"
)

// ErrAlreadyStarted is returned by a second Start call.
var ErrAlreadyStarted = errors.New("scheduler already started")

// IntervalScheduler runs a job, sleeps for the interval, and repeats. A slow
// job delays the next one by its own duration; there is no fixed cadence.
type IntervalScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler sleeping interval between runs.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, done: make(chan struct{})}
}

// Start launches the loop in its own goroutine. The loop exits when ctx is
// cancelled or Stop is called, including in the middle of a sleep.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return errors.New("nil job")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return ErrAlreadyStarted
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.loop(runCtx, job)
	return nil
}

func (s *IntervalScheduler) loop(ctx context.Context, job func(context.Context)) {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		job(ctx)

		timer.Reset(s.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the loop and waits for it to exit or for ctx to expire.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return s.wait(ctx)
	}
	s.stopped = true
	if !s.started {
		close(s.done)
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	return s.wait(ctx)
}

func (s *IntervalScheduler) wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has exited.
func (s *IntervalScheduler) Done() <-chan struct{} {
	return s.done
}
