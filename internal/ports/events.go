package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
)

type OutboxRecord struct {
	RecordID   string
	EventClass string
	Envelope   contracts.EventEnvelope
	RetryCount int
	LastError  string
	CreatedAt  time.Time
	SentAt     *time.Time
}

// OutboxRepository buffers notifications written in the same logical step as
// the ledger mutation; the outbox worker drains it toward the broker.
type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
	MarkFailed(ctx context.Context, recordID string, reason string, at time.Time) error
}

// EventPublisher delivers one serialized envelope to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
