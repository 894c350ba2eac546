// Package metrics exposes prometheus counters for poll rounds and deliveries.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsrelay"

// Metrics holds all relay collectors.
type Metrics struct {
	registry *prometheus.Registry

	Rounds          *prometheus.CounterVec
	RoundDuration   *prometheus.HistogramVec
	Delivered       *prometheus.CounterVec
	Skipped         *prometheus.CounterVec
	Undelivered     *prometheus.CounterVec
	ChannelFailures *prometheus.CounterVec
	ListingErrors   *prometheus.CounterVec
	DetailErrors    *prometheus.CounterVec
	LedgerErrors    *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Completed poll rounds",
		}, []string{"poller"}),
		RoundDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall time of one poll round",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"poller"}),
		Delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_dispatched_total",
			Help:      "Articles normalized and handed to the dispatcher",
		}, []string{"poller"}),
		Skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_skipped_total",
			Help:      "Listed articles already present in the ledger",
		}, []string{"poller"}),
		Undelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_undelivered_total",
			Help:      "Articles no channel acknowledged",
		}, []string{"poller"}),
		ChannelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_failures_total",
			Help:      "Failed sends per destination channel",
		}, []string{"poller", "channel"}),
		ListingErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_errors_total",
			Help:      "Listing fetches that produced no stubs because of an error",
		}, []string{"poller", "kind"}),
		DetailErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_errors_total",
			Help:      "Detail page fetches that failed",
		}, []string{"poller"}),
		LedgerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_errors_total",
			Help:      "Ledger lookups or inserts that failed",
		}, []string{"poller", "op"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveRound records one finished round.
func (m *Metrics) ObserveRound(poller string, delivered, skipped, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.Rounds.WithLabelValues(poller).Inc()
	m.RoundDuration.WithLabelValues(poller).Observe(took.Seconds())
	m.Delivered.WithLabelValues(poller).Add(float64(delivered))
	m.Skipped.WithLabelValues(poller).Add(float64(skipped))
	m.Undelivered.WithLabelValues(poller).Add(float64(failed))
}

// ChannelFailed counts one failed send.
func (m *Metrics) ChannelFailed(poller, channel string) {
	if m == nil {
		return
	}
	m.ChannelFailures.WithLabelValues(poller, channel).Inc()
}

// ListingFailed counts a listing that yielded nothing because of err kind.
func (m *Metrics) ListingFailed(poller, kind string) {
	if m == nil {
		return
	}
	m.ListingErrors.WithLabelValues(poller, kind).Inc()
}

// DetailFailed counts a failed detail page fetch.
func (m *Metrics) DetailFailed(poller string) {
	if m == nil {
		return
	}
	m.DetailErrors.WithLabelValues(poller).Inc()
}

// LedgerFailed counts a failed ledger operation.
func (m *Metrics) LedgerFailed(poller, op string) {
	if m == nil {
		return
	}
	m.LedgerErrors.WithLabelValues(poller, op).Inc()
}
