package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/display"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/identity"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/infrastructure/web"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/metrics"
	"NewsRelay/internal/retry"
	"NewsRelay/internal/scanner"
	"NewsRelay/internal/usecase"
	"NewsRelay/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	ledger    storage.Backend
	scheduler *usecase.Scheduler
	pipelines []*usecase.Pipeline
}

// New opens the ledger and builds one pipeline per configured poller.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	ledger, err := storage.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	app, err := newWithLedger(cfg, ledger, baseLogger)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return app, nil
}

func newWithLedger(cfg config.Config, ledger storage.Backend, baseLogger *slog.Logger) (*Application, error) {
	app := &Application{
		cfg:       cfg,
		logger:    baseLogger.With("component", "app"),
		metrics:   metrics.New(),
		ledger:    ledger,
		scheduler: usecase.NewScheduler(baseLogger.With("component", "scheduler")),
	}

	registry := scanner.NewRegistry()
	registry.Register("html", parser.NewHTMLScanner)
	registry.Register("json", parser.NewJSONScanner)
	registry.Register("rss", parser.NewRSSScanner)

	for _, pc := range cfg.Pollers {
		pipeline, err := app.buildPoller(pc, registry, baseLogger)
		if err != nil {
			return nil, fmt.Errorf("poller %s: %w", pc.Name, err)
		}
		app.pipelines = append(app.pipelines, pipeline)
		app.scheduler.Add(scheduler.NewIntervalScheduler(pc.Interval), pipeline)
	}

	return app, nil
}

func (a *Application) buildPoller(pc config.PollerConfig, registry *scanner.Registry, baseLogger *slog.Logger) (*usecase.Pipeline, error) {
	pollerLogger := baseLogger.With("poller", pc.Name, "lang", pc.Lang)

	factory, err := registry.Resolve(pc.Mode)
	if err != nil {
		return nil, err
	}
	idPolicy, err := identity.ByName(pc.Identity)
	if err != nil {
		return nil, err
	}
	displayPolicy, err := display.ByName(pc.Policy)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.Config{
		MaxAttempts:  a.cfg.HTTP.MaxAttempts,
		InitialDelay: a.cfg.HTTP.InitialDelay,
		MaxDelay:     a.cfg.HTTP.MaxDelay,
		Multiplier:   2,
		IsRetryable:  domain.IsRetryable,
	}

	fetcher, err := web.New(web.Options{
		Timeout: a.cfg.HTTP.Timeout,
		Headers: pc.Headers,
		Proxy:   pc.FetchProxy,
		Retry:   retryCfg,
	})
	if err != nil {
		return nil, err
	}

	botClient, err := web.NewClient(a.cfg.HTTP.Timeout, pc.Proxy)
	if err != nil {
		return nil, err
	}

	listing := factory(scanner.Deps{
		Fetcher:  fetcher,
		Identity: idPolicy,
		Logger:   pollerLogger.With("component", "scanner."+pc.Mode),
	})

	source := parser.NewStrategySource(listing, parser.SourceOptions{
		ListURLs:     pc.ListURLs,
		ListSelector: pc.Selectors.List,
		Poller:       pc.Name,
		Metrics:      a.metrics,
		Logger:       pollerLogger.With("component", "source"),
	})

	normalizer := parser.NewArticleNormalizer(fetcher, parser.NormalizerOptions{
		Selectors:           pc.Selectors,
		ReadabilityFallback: pc.ReadabilityFallback,
		Poller:              pc.Name,
		Metrics:             a.metrics,
		Logger:              pollerLogger.With("component", "normalizer"),
	})

	sender := telegram.NewSender(telegram.Options{
		APIBase:       a.cfg.Telegram.APIBase,
		BotToken:      a.cfg.Telegram.BotToken,
		Client:        botClient,
		RatePerSecond: a.cfg.Telegram.RatePerSecond,
		Retry:         retryCfg,
	})

	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		Sender:   sender,
		Ledger:   a.ledger,
		Policy:   displayPolicy,
		Channels: pc.Channels,
		Poller:   pc.Name,
		Metrics:  a.metrics,
		Logger:   pollerLogger.With("component", "dispatcher"),
	})

	return usecase.NewPipeline(usecase.PipelineDeps{
		Settings:   usecase.PollerSettings{Name: pc.Name, Lang: pc.Lang, Interval: pc.Interval},
		Source:     source,
		Ledger:     a.ledger,
		Normalizer: normalizer,
		Deliverer:  dispatcher,
		Metrics:    a.metrics,
		Logger:     pollerLogger.With("component", "pipeline"),
	}), nil
}

// Metrics exposes the collectors, mainly for tests.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// Run starts every poller and blocks until ctx is cancelled, then shuts
// everything down and closes the ledger.
func (a *Application) Run(ctx context.Context) error {
	var server *http.Server
	if a.cfg.Metrics.Addr != "" {
		server = a.metricsServer()
		listener, err := net.Listen("tcp", a.cfg.Metrics.Addr)
		if err != nil {
			_ = a.ledger.Close()
			return fmt.Errorf("metrics listener: %w", err)
		}
		a.logger.Info("serving metrics", "addr", listener.Addr().String())
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return errors.Join(err, a.shutdown(server))
	}

	<-ctx.Done()
	a.logger.Info("shutting down", "reason", context.Cause(ctx))
	return a.shutdown(server)
}

func (a *Application) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          logger.NewStd(a.logger, "metrics"),
	}
}

func (a *Application) shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if err := a.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close ledger: %w", err))
	}
	return errors.Join(errs...)
}
