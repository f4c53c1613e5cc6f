package services

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredClaimDeleter removes address records older than a cutoff.
type ExpiredClaimDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CompactionWorker periodically purges address records whose window has ended,
// keeping the address store bounded by the number of recent claimants.
type CompactionWorker struct {
	store    ExpiredClaimDeleter
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewCompactionWorker(store ExpiredClaimDeleter, window, interval time.Duration, logger *slog.Logger) *CompactionWorker {
	if window <= 0 {
		window = DefaultClaimWindow
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CompactionWorker{
		store:    store,
		window:   window,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

func (w *CompactionWorker) Start(ctx context.Context) {
	w.logger.Info("Compaction worker starting", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Compaction failed", "error", err)
			}
		case <-ctx.Done():
			w.logger.Info("Compaction worker stopping")
			return
		}
	}
}

// RunOnce deletes every record last claimed before now minus the window.
func (w *CompactionWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.window)
	deleted, err := w.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		w.logger.Info("Compacted expired address claims", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
