// Package worker drains the audit outbox to a publish sink.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "serviapp/pkg/platform/audit"
)

// OutboxStore is the claim/ack surface of the postgres audit store.
type OutboxStore interface {
	NextBatch(ctx context.Context, limit int) ([]audit.OutboxRow, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// Sink delivers a batch of serialized events; the Kafka producer implements
// it. A failed Produce leaves the rows unmarked so the next tick retries;
// delivery is at-least-once.
type Sink interface {
	Produce(ctx context.Context, rows []audit.OutboxRow) error
}

const (
	defaultBatchSize = 100
	defaultInterval  = 2 * time.Second
)

// Worker polls the outbox and publishes claimed rows to the sink.
type Worker struct {
	store    OutboxStore
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// Option configures a Worker.
type Option func(*Worker)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func NewWorker(store OutboxStore, sink Sink, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: defaultInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is cancelled. Errors are logged and retried on
// the next tick rather than terminating the worker.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.WarnContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	rows, err := w.store.NextBatch(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	if err := w.sink.Produce(ctx, rows); err != nil {
		return err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return w.store.MarkPublished(ctx, ids)
}
