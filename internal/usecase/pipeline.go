package usecase

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/metrics"
	"NewsRelay/internal/ports"
)

// State is the phase of a poller between and during rounds.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// PollerSettings is the immutable identity of one poller.
type PollerSettings struct {
	Name     string
	Lang     string
	Interval time.Duration
}

// PipelineDeps wires all driven adapters into the round workflow.
type PipelineDeps struct {
	Settings   PollerSettings
	Source     ports.ArticleSource
	Ledger     ports.Ledger
	Normalizer ports.Normalizer
	Deliverer  ports.Deliverer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Pipeline runs poll rounds for one poller.
type Pipeline struct {
	settings   PollerSettings
	source     ports.ArticleSource
	ledger     ports.Ledger
	normalizer ports.Normalizer
	deliverer  ports.Deliverer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	state      atomic.Int32
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		settings:   deps.Settings,
		source:     deps.Source,
		ledger:     deps.Ledger,
		normalizer: deps.Normalizer,
		deliverer:  deps.Deliverer,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Settings returns the poller settings the pipeline was built with.
func (p *Pipeline) Settings() PollerSettings {
	return p.settings
}

// State reports whether a round is in progress.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// RunRound gathers stubs from every listing, delivers the ones missing from
// the ledger oldest-first and reports the totals. Cancellation stops the round
// between stubs.
func (p *Pipeline) RunRound(ctx context.Context) domain.RoundReport {
	p.state.Store(int32(Running))
	defer p.state.Store(int32(Idle))

	started := time.Now()
	report := domain.RoundReport{Poller: p.settings.Name}

	stubs := p.source.Fetch(ctx)
	report.Listed = len(stubs)
	slices.Reverse(stubs)

	for i, stub := range stubs {
		if ctx.Err() != nil {
			p.logger.Info("round interrupted", "remaining", len(stubs)-i)
			break
		}

		seen, err := p.ledger.Has(ctx, stub.ID)
		if err != nil {
			p.metrics.LedgerFailed(p.settings.Name, "has")
			p.logger.Error("ledger lookup failed", "id", stub.ID, "error", err)
			report.Failed++
			continue
		}
		if seen {
			report.Skipped++
			continue
		}

		article := p.normalizer.Normalize(ctx, stub)
		delivery := p.deliverer.Deliver(ctx, article)
		report.Delivered++
		if !delivery.Delivered() {
			report.Failed++
			last, _ := delivery.Last()
			p.logger.Warn("article not delivered", "id", stub.ID, "link", stub.Link, "last_channel", last.Channel, "last_status", last.StatusCode)
		}
	}

	report.Duration = time.Since(started)
	p.metrics.ObserveRound(p.settings.Name, report.Delivered, report.Skipped, report.Failed, report.Duration)

	if report.Empty() && report.Failed == 0 {
		p.logger.Info("nothing listed", "took", report.Duration)
	} else {
		p.logger.Info("round finished",
			"delivered", report.Delivered,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"took", report.Duration,
		)
	}

	return report
}
