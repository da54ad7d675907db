package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lysyi3m/regcheck/app/api"
	"github.com/lysyi3m/regcheck/app/cfg"
	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/metrics"
	"github.com/lysyi3m/regcheck/app/source"
	"github.com/lysyi3m/regcheck/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Registry Check server", "version", appCfg.Version)

	if err := os.MkdirAll(filepath.Dir(appCfg.DBPath), 0755); err != nil {
		slog.Error("Failed to create database directory", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", appCfg.SourcesDir, "count", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	runRepo := database.NewRunRepository(db)

	fetcher := source.NewFetcher(&http.Client{}, appCfg.FetchRate, appCfg.UserAgent)

	deps := tasks.Deps{
		SourceRepo: sourceRepo,
		RunRepo:    runRepo,
		Acquirer:   source.NewAcquirer(fetcher),
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
	}

	stale, err := runRepo.FailStaleRuns("interrupted")
	if err != nil {
		slog.Error("Failed to fail interrupted runs", "error", err)
		os.Exit(1)
	}
	if stale > 0 {
		slog.Info("Interrupted runs marked failed", "count", stale)
	}

	scheduler := tasks.NewScheduler(configCache, deps)
	scheduler.Start()
	slog.Info("Scheduler started", "workers", appCfg.WorkerCount, "interval", time.Duration(appCfg.SchedulerInterval)*time.Second)

	apiHandler := api.NewHandler(configCache, sourceRepo, runRepo, scheduler, deps.Metrics, appCfg.UploadLimit)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, prometheus.DefaultGatherer)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("Registry Check server shutdown complete")
}
