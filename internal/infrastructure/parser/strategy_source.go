package parser

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/metrics"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// StrategySource implements ArticleSource by running one scanner strategy over
// every listing URL of a poller.
type StrategySource struct {
	scanner      scanner.Scanner
	listURLs     []string
	listSelector string
	poller       string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// SourceOptions configures a StrategySource.
type SourceOptions struct {
	ListURLs     []string
	ListSelector string
	Poller       string
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// NewStrategySource wires a scanner with the poller's listing URLs.
func NewStrategySource(sc scanner.Scanner, opts SourceOptions) *StrategySource {
	return &StrategySource{
		scanner:      sc,
		listURLs:     append([]string(nil), opts.ListURLs...),
		listSelector: opts.ListSelector,
		poller:       opts.Poller,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Fetch concatenates the stubs of every listing in configuration order. A
// failing listing contributes nothing and the next one is still read.
func (s *StrategySource) Fetch(ctx context.Context) []domain.ArticleStub {
	var aggregated []domain.ArticleStub
	for _, listURL := range s.listURLs {
		if ctx.Err() != nil {
			break
		}

		stubs, err := s.scanner.Scan(ctx, scanner.Request{ListURL: listURL, ListSelector: s.listSelector})
		if err != nil {
			s.reportError(listURL, err)
			continue
		}

		s.debug("listing read", "url", listURL, "scanner", s.scanner.Name(), "count", len(stubs))
		aggregated = append(aggregated, stubs...)
	}
	return aggregated
}

func (s *StrategySource) reportError(listURL string, err error) {
	kind := "other"
	var (
		te *domain.TransportError
		pe *domain.ParseError
	)
	switch {
	case errors.As(err, &te):
		kind = "transport"
	case errors.As(err, &pe):
		kind = "parse"
	}
	s.metrics.ListingFailed(s.poller, kind)

	if s.logger == nil {
		return
	}
	args := []any{"url", listURL, "kind", kind, "error", err}
	if te != nil && te.StatusCode == http.StatusForbidden {
		args = append(args, "hint", "request headers were probably rejected")
	}
	s.logger.Warn("listing fetch failed", args...)
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
