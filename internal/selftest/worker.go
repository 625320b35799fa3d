package selftest

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs the full battery and the config validation on a fixed
// interval, weekly by default.
type Worker struct {
	engine   *Engine
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewWorker(engine *Engine, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		engine:   engine,
		interval: interval,
		timeout:  5 * time.Minute,
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
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if _, err := w.engine.RunAll(runCtx); err != nil {
		w.logger.ErrorContext(ctx, "scheduled self-test run failed", "error", err)
	}
	if _, err := w.engine.ValidateConfig(runCtx); err != nil {
		w.logger.ErrorContext(ctx, "scheduled config validation failed", "error", err)
	}
}
