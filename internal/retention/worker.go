package retention

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs the sweeper on a fixed interval until its context is
// cancelled. Each run is bounded by its own deadline so a stalled store
// cannot wedge the schedule.
type Worker struct {
	sweeper  *Sweeper
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewWorker(sweeper *Sweeper, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		sweeper:  sweeper,
		interval: interval,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.sweeper.Sweep(runCtx, time.Now().UTC()); err != nil {
		w.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
		return
	}
	w.logger.InfoContext(ctx, "retention sweep completed")
}
