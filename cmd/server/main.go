package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-finlit/internal/api"
	"github.com/p-n-ai/pai-finlit/internal/catalog"
	"github.com/p-n-ai/pai-finlit/internal/platform/cache"
	"github.com/p-n-ai/pai-finlit/internal/platform/config"
	"github.com/p-n-ai/pai-finlit/internal/platform/database"
	"github.com/p-n-ai/pai-finlit/internal/platform/metrics"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	metrics.Init()

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, cleanup, err := setup(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "content", cfg.Content.BaseURL, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// setup connects the configured backends and assembles the API server. The
// returned cleanup closes every connection that was opened.
func setup(ctx context.Context, cfg *config.Config) (*api.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	loaderOpts := []catalog.Option{
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.Content.Timeout}),
	}
	var apiOpts []api.Option

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting cache: %w", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		loaderOpts = append(loaderOpts, catalog.WithCache(c.Manifests()))
		apiOpts = append(apiOpts, api.WithReadinessCheck("cache", c.HealthCheck))
	}

	loader := catalog.NewLoader(cfg.Content.BaseURL, loaderOpts...)
	apiOpts = append(apiOpts, api.WithReadinessCheck("content", loader.HealthCheck))

	var (
		store  progress.Store
		events progress.EventLogger
	)
	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting database: %w", err)
		}
		closers = append(closers, db.Close)

		if err := progress.EnsureSchema(ctx, db.Pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		pgStore, err := progress.NewPostgresStore(db.Pool)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store = pgStore
		events = progress.NewPostgresEventLogger(db.Pool)
		apiOpts = append(apiOpts, api.WithReadinessCheck("database", db.HealthCheck))
	default:
		store = progress.NewMemoryStore()
		events = progress.NopEventLogger{}
		slog.Warn("using in-memory progress store; progress is lost on restart")
	}

	svc := progress.NewService(loader, store, events)
	return api.New(loader, svc, apiOpts...), cleanup, nil
}
