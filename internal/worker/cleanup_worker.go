package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/repository"
)

// CleanupWorker periodically removes visitor accounts that have been idle
// longer than the retention window. Stops when the context is cancelled.
type CleanupWorker struct {
	users     repository.UserRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewCleanupWorker builds the worker from cleanup configuration.
func NewCleanupWorker(users repository.UserRepository, cfg config.CleanupConfig, logger *zap.Logger) *CleanupWorker {
	return &CleanupWorker{
		users:     users,
		interval:  cfg.Interval(),
		retention: cfg.Retention(),
		logger:    logger,
	}
}

// Run blocks, sweeping on each tick. Intended to run in its own goroutine.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("visitor cleanup started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("visitor cleanup stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)
	deleted, err := w.users.DeleteInactiveVisitors(ctx, cutoff)
	if err != nil {
		w.logger.Error("visitor cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.logger.Info("inactive visitor accounts removed", zap.Int64("count", deleted))
	}
}
