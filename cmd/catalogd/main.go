// Command catalogd serves the book catalog HTTP API on top of PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/booklending/catalog/oteladapters"
	"github.com/AntonStoeckl/booklending/server/httpapi"
	"github.com/AntonStoeckl/booklending/shell/config"
)

const (
	serviceName    = "catalogd"
	serviceVersion = "1.0.0"

	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("catalogd failed: %v", err)
	}
}

func run() error {
	envFile := flag.String("env-file", config.DefaultEnvFile, "Path of the .env file to load")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	serverOptions := []httpapi.Option{httpapi.WithContextualLogging(logger)}

	if cfg.OTLPEndpoint != "" {
		providers, obsErr := config.NewObservabilityConfig(ctx, serviceName, serviceVersion, cfg.OTLPEndpoint)
		if obsErr != nil {
			return fmt.Errorf("failed to set up observability: %w", obsErr)
		}
		defer shutdownProviders(providers)

		serverOptions = append(serverOptions,
			httpapi.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter(serviceName))),
			httpapi.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(serviceName))),
		)

		log.Printf("Observability enabled: exporting to %s", cfg.OTLPEndpoint)
	}

	store, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	if err = store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err = bootstrapAdmin(ctx, store, cfg); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	issuer, err := httpapi.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	server, err := httpapi.NewServer(store, issuer, serverOptions...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("catalogd listening on %s (db driver: %s)", cfg.ListenAddr, cfg.DBDriver)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("Received shutdown signal, draining connections...")
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // the signal context is already canceled
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Printf("catalogd stopped")

	return nil
}

func shutdownProviders(providers *config.ObservabilityProviders) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := providers.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush observability providers: %v", err)
	}
}
