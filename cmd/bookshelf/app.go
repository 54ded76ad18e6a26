package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/catalog/actions"
	"github.com/AntonStoeckl/booklending/catalog/client"
	"github.com/AntonStoeckl/booklending/catalog/client/httptransport"
	"github.com/AntonStoeckl/booklending/catalog/identity"
	"github.com/AntonStoeckl/booklending/catalog/listing"
	"github.com/AntonStoeckl/booklending/catalog/oteladapters"
	"github.com/AntonStoeckl/booklending/shell/config"
	"github.com/AntonStoeckl/booklending/shell/observable"
)

const (
	serviceName    = "bookshelf"
	serviceVersion = "1.0.0"
)

// errReported marks a failure the user was already told about through the notifier.
var errReported = errors.New("operation failed")

// globalFlags override the environment config.
type globalFlags struct {
	envFile   string
	baseURL   string
	timeout   time.Duration
	tokenPath string
	logLevel  string
}

// app wires the catalog core for one CLI invocation.
type app struct {
	cfg       config.ClientConfig
	session   *identity.Session
	catalog   *observable.ClientWrapper
	logger    *oteladapters.SlogBridgeLogger
	notifier  catalog.Notifier
	out       io.Writer
	providers *config.ObservabilityProviders
}

func newApp(ctx context.Context, flags globalFlags, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadClientConfig(flags.envFile)
	if err != nil {
		return nil, err
	}

	applyFlags(&cfg, flags)

	var level slog.Level
	if err = level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}),
	)

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		if tokenPath, err = identity.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}

	session, err := identity.NewSession(identity.WithStore(identity.NewFileStore(tokenPath)))
	if err != nil {
		return nil, err
	}

	transport, err := httptransport.New(cfg.BaseURL, session, httptransport.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	catalogClient, err := client.NewClient(transport, session,
		client.WithPageSize(cfg.PageSize),
		client.WithContextualLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	wrapperOptions := []observable.Option{observable.WithContextualLogging(logger)}

	var providers *config.ObservabilityProviders
	if cfg.OTLPEndpoint != "" {
		providers, err = config.NewObservabilityConfig(ctx, serviceName, serviceVersion, cfg.OTLPEndpoint)
		if err != nil {
			return nil, err
		}

		wrapperOptions = append(wrapperOptions,
			observable.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter(serviceName))),
			observable.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(serviceName))),
		)
	}

	wrapper, err := observable.NewClientWrapper(catalogClient, wrapperOptions...)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		session:   session,
		catalog:   wrapper,
		logger:    logger,
		notifier:  newPrintNotifier(out, errOut),
		out:       out,
		providers: providers,
	}, nil
}

func applyFlags(cfg *config.ClientConfig, flags globalFlags) {
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}

	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}

	if flags.tokenPath != "" {
		cfg.TokenPath = flags.tokenPath
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
}

// newListing creates a Listing Controller over the observed catalog client.
func (a *app) newListing(opts ...listing.Option) (*listing.Controller, error) {
	opts = append([]listing.Option{
		listing.WithPageSize(a.cfg.PageSize),
		listing.WithContextualLogger(a.logger),
	}, opts...)

	return listing.NewController(a.catalog, a.notifier, opts...)
}

// newOrchestrator creates an Action Orchestrator that reconciles into controller.
func (a *app) newOrchestrator(controller *listing.Controller) (*actions.Orchestrator, error) {
	return actions.NewOrchestrator(a.catalog, controller, a.session, a.notifier,
		actions.WithReloadAfterCreate(false),
		actions.WithContextualLogger(a.logger),
	)
}

func (a *app) requireSignIn() error {
	if _, ok := a.session.CurrentToken(); !ok {
		return errors.New("not signed in, run `bookshelf login` first")
	}

	return nil
}

func (a *app) close() {
	if a.providers == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.providers.Shutdown(ctx); err != nil {
		a.logger.Warn("flushing observability providers failed", "error", err.Error())
	}
}

func newPrintNotifier(out, errOut io.Writer) catalog.Notifier {
	return catalog.NotifierFunc(func(message string, isError bool) {
		if isError {
			_, _ = fmt.Fprintln(errOut, message)
			return
		}

		_, _ = fmt.Fprintln(out, message)
	})
}
