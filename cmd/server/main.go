// Package main runs the goal engine HTTP server together with the daily
// history snapshot scheduler.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"wealth-planner/internal/api"
	"wealth-planner/internal/app"
	"wealth-planner/internal/config"
	"wealth-planner/internal/history"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml if present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Create context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create stores
	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics("", reg)

	svc, err := app.NewService(cfg, stores, metrics, log)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	// History scheduler
	var scheduler *history.Scheduler
	if cfg.History.Enabled {
		scheduler, err = history.NewScheduler(svc.Recorder(), cfg.History.Schedule, cfg.History.Timeout, log)
		if err != nil {
			return err
		}
		scheduler.Start(ctx)
	}

	// HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(api.Options{Service: svc, Metrics: metrics, Logger: log}).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("environment", cfg.Environment),
			zap.Bool("memory_storage", cfg.Storage.UseMemory),
			zap.String("portfolio_source", cfg.Portfolio.Source),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn("history run still in progress at shutdown")
		}
	}

	log.Info("shutdown complete")
	return nil
}
