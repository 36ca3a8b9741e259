// Command server serves the ledger HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const version = "1.0.0"

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "config file (default: ./config.toml or /app/config.toml)")
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger: load configuration:", err)
		os.Exit(1)
	}
	baseLog, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger: init logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, baseLog); err != nil {
		baseLog.Error("Ledger service failed", zap.Error(err))
		_ = baseLog.Sync()
		os.Exit(1)
	}
}

// serve runs the API until ctx is cancelled or the listener fails, then
// drains in-flight requests and releases the database, the background jobs
// and the telemetry exporters.
func serve(ctx context.Context, cfg *config.Config, baseLog *zap.Logger) error {
	// Disabled pipelines are no-ops
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	log := providers.Logs.Bridge(baseLog)
	defer func() { _ = log.Sync() }()

	log.Info("Starting ledger service",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("sequence_backend", cfg.Ledger.SequenceBackend),
		zap.Bool("overdue_sweep", cfg.Ledger.OverdueSweep),
	)

	app, err := newApplication(cfg, providers, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        app.engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	listenErr := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", srv.Addr))
		listenErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown requested")
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown incomplete", zap.Error(err))
	}
	app.close(shutdownCtx)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}
	log.Info("Ledger service stopped")
	return runErr
}
