package core

// scheduler.go runs periodic maintenance for long-lived services.
//
// Each cycle:
//  1. Drops comparison runs older than the run retention window, releasing the
//     old datasets they hold for export.
//  2. Purges run summaries older than the history retention window, when the
//     HistoryStore supports it.
//
// Failures are logged and never stop the loop.

import (
	"context"
	"log/slog"
	"time"
)

// MaintenanceConfig holds configuration for the maintenance scheduler.
// Zero values fall back to the defaults below.
type MaintenanceConfig struct {
	HistoryRetention time.Duration // Age after which summaries are purged (default: 90 days)
	CheckInterval    time.Duration // How often to run (default: 1h)
}

const (
	DefaultHistoryRetention    = 90 * 24 * time.Hour
	DefaultMaintenanceInterval = time.Hour
)

// HistoryPurger is implemented by history stores that can delete old entries.
type HistoryPurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// StartMaintenance runs one maintenance cycle immediately, then every
// CheckInterval until ctx is cancelled.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.HistoryRetention <= 0 {
		cfg.HistoryRetention = DefaultHistoryRetention
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultMaintenanceInterval
	}

	slog.Info("maintenance scheduler started",
		"run_retention", s.cfg.RunRetention,
		"history_retention", cfg.HistoryRetention,
		"interval", cfg.CheckInterval,
	)

	s.runMaintenance(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.runMaintenance(ctx, cfg)
		}
	}
}

// runMaintenance performs one prune + purge cycle.
func (s *Service) runMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	start := time.Now()

	if pruned := s.PruneExpired(); pruned > 0 {
		slog.Info("expired comparison runs dropped", "runs_pruned", pruned)
	}

	if purger, ok := s.history.(HistoryPurger); ok {
		cutoff := s.now().Add(-cfg.HistoryRetention)
		purged, err := purger.Purge(ctx, cutoff)
		if err != nil {
			slog.Error("history purge failed", "error", err)
		} else if purged > 0 {
			slog.Info("purged old run history", "entries_purged", purged, "before", cutoff)
		}
	}

	slog.Debug("maintenance completed", "duration_ms", time.Since(start).Milliseconds())
}

// PruneExpired drops runs past the retention window and reports how many.
func (s *Service) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.runs)
	s.pruneLocked(s.now())
	return before - len(s.runs)
}
