// Package worker runs the periodic embedding backfill so recipes
// stored degraded eventually get their vectors without operator action.
package worker

import (
	"context"
	"log/slog"
	"time"

	"recipe-harvester/internal/usecase"
)

const passTimeout = 10 * time.Minute

type BackfillWorker struct {
	backfill  usecase.BackfillEmbeddingsUsecase
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	stopChan  chan struct{}
}

func NewBackfillWorker(
	backfill usecase.BackfillEmbeddingsUsecase,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *BackfillWorker {
	return &BackfillWorker{
		backfill:  backfill,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

func (w *BackfillWorker) Start() {
	w.logger.Info("backfill_worker_started",
		slog.Duration("interval", w.interval),
		slog.Int("batch_size", w.batchSize),
	)
	go w.run()
}

func (w *BackfillWorker) Stop() {
	w.logger.Info("backfill_worker_stopping")
	close(w.stopChan)
}

func (w *BackfillWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.runPass()
		}
	}
}

func (w *BackfillWorker) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	stats, err := w.backfill.Execute(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("backfill_pass_failed", slog.String("error", err.Error()))
		return
	}
	if stats.Scanned > 0 {
		w.logger.Info("backfill_pass_completed",
			slog.Int("scanned", stats.Scanned),
			slog.Int("updated", stats.Updated),
			slog.Int("skipped", stats.Skipped),
		)
	}
}
