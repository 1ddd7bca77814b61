package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/payorsync/internal/config"
	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/JonMunkholm/payorsync/internal/logging"
	"github.com/JonMunkholm/payorsync/internal/store"
	"github.com/JonMunkholm/payorsync/internal/web"
	"github.com/JonMunkholm/payorsync/internal/workbook"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"compare_max_concurrent", cfg.Compare.MaxConcurrent,
		"parallel_sheets", cfg.Compare.ParallelSheets,
		"duplicate_policy", cfg.Compare.DuplicatePolicy,
		"history_persisted", cfg.Database.HistoryPersisted(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Without a database, run summaries live in memory for the process lifetime
	var history core.HistoryStore
	if cfg.Database.HistoryPersisted() {
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg, err := store.NewPostgres(ctx, pool)
		if err != nil {
			slog.Error("failed to prepare history schema", "error", err)
			os.Exit(1)
		}
		history = pg
		slog.Info("connected to database", "name", store.DatabaseName(cfg.Database.URL))
	} else {
		slog.Info("no database configured, keeping run history in memory")
	}

	service := core.NewService(workbook.New(), history, cfg.ServiceConfig())
	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartMaintenance(jobCtx, cfg.MaintenanceConfig())

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight comparisons finish (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for comparisons to complete", "active", status.Active)
			if err := service.WaitForComparisons(shutdownCtx); err != nil {
				slog.Warn("comparisons did not complete in time", "error", err)
			} else {
				slog.Info("all comparisons completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
