package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/observability/metrics"
)

// Purger drops expired entries and reports how many it removed. Len reports
// what remains.
type Purger interface {
	PurgeExpired() int
	Len() int
}

// CleanupWorker periodically reclaims expired entries from an in-memory
// cache. Redis expires keys itself and needs no worker.
type CleanupWorker struct {
	target   Purger
	logger   *slog.Logger
	interval time.Duration
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(target Purger, logger *slog.Logger, interval time.Duration) *CleanupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &CleanupWorker{
		target:   target,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cleanup worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *CleanupWorker) sweep() int {
	purged := w.target.PurgeExpired()
	if purged > 0 {
		metrics.ObserveCacheEvictions(purged)
		w.logger.Debug("purged expired cache entries", slog.Int("count", purged))
	}
	metrics.SetCacheEntries(w.target.Len())
	return purged
}
