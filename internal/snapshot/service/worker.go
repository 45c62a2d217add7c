package service

import (
	"context"
	"log/slog"
	"time"

	id "partyreg/pkg/domain"
)

// Worker drives capture on a timer. Each tick processes one batch and keeps
// a cursor between ticks, so a full pass over a large registry spreads
// across several intervals instead of stalling other work.
type Worker struct {
	service   *Service
	interval  time.Duration
	batchSize int
	logger    *slog.Logger

	cursor id.PartyID
}

func NewWorker(service *Service, interval time.Duration, batchSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		service:   service,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		cursor:    1,
	}
}

// Run captures batches until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	next, processed, err := w.service.CaptureBatch(ctx, w.cursor, w.batchSize)
	if err != nil {
		w.logger.WarnContext(ctx, "snapshot batch failed, restarting pass",
			"cursor", w.cursor,
			"error", err,
		)
		w.cursor = 1
		return
	}
	w.logger.DebugContext(ctx, "snapshot batch captured",
		"cursor", w.cursor,
		"processed", processed,
		"next", next,
	)
	if next == id.NoParty {
		w.cursor = 1
		return
	}
	w.cursor = next
}
