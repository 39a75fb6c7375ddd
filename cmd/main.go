package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snagasawa/kpisync/internal/adapters/http/api"
	"github.com/snagasawa/kpisync/internal/adapters/http/swagger"
	"github.com/snagasawa/kpisync/internal/adapters/notify"
	"github.com/snagasawa/kpisync/internal/adapters/source"
	"github.com/snagasawa/kpisync/internal/adapters/state"
	"github.com/snagasawa/kpisync/internal/adapters/turso"
	app "github.com/snagasawa/kpisync/internal/app"
	"github.com/snagasawa/kpisync/internal/config"
	enginesync "github.com/snagasawa/kpisync/internal/sync"
	"github.com/snagasawa/kpisync/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Local state store: sync cursors and per-project targets.
	store, err := state.Open(cfg.StateDB)
	if err != nil {
		log.Error(ctx, "failed to open state store",
			logger.String("path", cfg.StateDB), logger.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	// Upstream grids.
	grid := source.NewHTTPGrid(cfg.SourceURL, source.WithToken(cfg.SourceToken))

	// Remote store pipeline and operator notifications.
	pipeline := turso.NewClient(cfg.TursoURL, cfg.TursoToken)
	notifier := notify.NewWebhook(cfg.WebhookURL, notify.WithLogger(log))

	targets := []enginesync.Target{
		enginesync.PerformanceTarget(cfg.PerformanceSheet),
		enginesync.SalesTarget(cfg.SalesSheet),
		enginesync.ExternalIDTarget(cfg.ExternalIDSheet),
	}
	for i := range targets {
		targets[i].BatchSize = cfg.SyncBatchSize
		targets[i].Interval = cfg.SyncInterval()
	}
	targets[0].SyncDays = cfg.SyncDays

	engine := enginesync.New(grid, store, pipeline, targets,
		enginesync.WithLogger(log.Named("sync")),
		enginesync.WithNotifier(notifier),
		enginesync.WithCredentials(cfg.TursoURL, cfg.TursoToken),
	)

	opts := []app.Option{
		app.WithGrid(app.SourceDefault, grid),
		app.WithSettingsStore(store),
		app.WithSyncer(engine),
		app.WithSheets(cfg.PerformanceSheet, cfg.MonthlySheet),
		app.WithLogger(log),
	}
	if cfg.AllStaffSourceURL != "" {
		opts = append(opts, app.WithGrid(app.SourceAllStaff,
			source.NewHTTPGrid(cfg.AllStaffSourceURL, source.WithToken(cfg.SourceToken))))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API documentation under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
