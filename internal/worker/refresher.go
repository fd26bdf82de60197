package worker

import (
	"context"
	"log/slog"
	"time"
)

// Loader reloads the directory from its store
type Loader interface {
	Load(ctx context.Context, source string) error
}

// Refresher periodically reloads the directory. A failed load is logged and
// the next tick runs on schedule; there is no backoff.
type Refresher struct {
	loader   Loader
	logger   *slog.Logger
	interval time.Duration
}

// NewRefresher creates a new refresher
func NewRefresher(loader Loader, logger *slog.Logger, interval time.Duration) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		loader:   loader,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the refresh loop until ctx is cancelled. A non-positive interval
// returns immediately.
func (w *Refresher) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("refresher disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("refresher started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Refresher) refresh(ctx context.Context) {
	if err := w.loader.Load(ctx, "refresh"); err != nil {
		w.logger.Warn("scheduled refresh failed",
			slog.String("error", err.Error()),
		)
	}
}
