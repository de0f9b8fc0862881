package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

// OutboxWorker drains pending notifications toward the broker. Separating
// transactional ledger writes from broker delivery keeps fund custody
// operations synchronous and atomic while delivery stays retryable.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize, maxRetries int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// Run executes the periodic publish loop until context cancellation.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.ProcessOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) ProcessOnce(ctx context.Context) error {
	records, err := w.outbox.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	published := 0
	for _, rec := range records {
		if rec.RetryCount >= w.maxRetries {
			w.logger.ErrorContext(ctx, "outbox record exhausted retries",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"record_id", rec.RecordID,
				"event_type", rec.Envelope.EventType,
				"retry_count", rec.RetryCount,
			)
			continue
		}
		payload, err := json.Marshal(rec.Envelope)
		if err != nil {
			_ = w.outbox.MarkFailed(ctx, rec.RecordID, "marshal envelope: "+err.Error(), now)
			continue
		}
		if err := w.publisher.Publish(ctx, rec.Envelope.EventType, payload, rec.Envelope.PartitionKey); err != nil {
			w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"record_id", rec.RecordID,
				"event_type", rec.Envelope.EventType,
				"retry_count", rec.RetryCount+1,
				"error", err,
			)
			_ = w.outbox.MarkFailed(ctx, rec.RecordID, err.Error(), now)
			continue
		}
		published++
		_ = w.outbox.MarkSent(ctx, rec.RecordID, now)
	}
	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "outbox_process_once",
			"outcome", "success",
			"batch_size", len(records),
			"published_count", published,
		)
	}
	return nil
}
