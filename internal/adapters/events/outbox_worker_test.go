package events_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/events"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

func enqueue(t *testing.T, outbox ports.OutboxRepository, recordID, eventType string) {
	t.Helper()
	err := outbox.Enqueue(context.Background(), ports.OutboxRecord{
		RecordID:   recordID,
		EventClass: domain.CanonicalEventClass(eventType),
		Envelope: contracts.EventEnvelope{
			EventID:      recordID,
			EventType:    eventType,
			PartitionKey: "7",
			Data:         []byte(`{"campaign_id":7}`),
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
}

func TestProcessOncePublishesAndMarksSent(t *testing.T) {
	outbox := memory.NewRepositories().Outbox
	publisher := events.NewMemoryPublisher()
	worker := events.NewOutboxWorker(slog.Default(), outbox, publisher, time.Second, 10, 3)

	enqueue(t, outbox, "rec_1", domain.EventContributionMade)
	enqueue(t, outbox, "rec_2", domain.EventFundsWithdrawn)

	if err := worker.ProcessOnce(context.Background()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	published := publisher.Events()
	if len(published) != 2 {
		t.Fatalf("published %d events, want 2", len(published))
	}
	if published[0].EventType != domain.EventContributionMade || published[0].PartitionKey != "7" {
		t.Fatalf("unexpected first event: %+v", published[0])
	}
	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("records still pending after publish: %d, %v", len(pending), err)
	}
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, string, []byte, string) error {
	p.calls++
	return errors.New("broker unavailable")
}

func TestProcessOnceRetriesUpToLimit(t *testing.T) {
	outbox := memory.NewRepositories().Outbox
	publisher := &failingPublisher{}
	worker := events.NewOutboxWorker(slog.Default(), outbox, publisher, time.Second, 10, 3)

	enqueue(t, outbox, "rec_1", domain.EventRefundClaimed)

	for i := 0; i < 5; i++ {
		if err := worker.ProcessOnce(context.Background()); err != nil {
			t.Fatalf("ProcessOnce %d: %v", i, err)
		}
	}
	// Three delivery attempts, then the record is parked.
	if publisher.calls != 3 {
		t.Fatalf("publish attempts = %d, want 3", publisher.calls)
	}
	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	if pending[0].RetryCount != 3 || pending[0].LastError == "" {
		t.Fatalf("retry bookkeeping wrong: %+v", pending[0])
	}
}

func TestProcessOnceHonorsBatchSize(t *testing.T) {
	outbox := memory.NewRepositories().Outbox
	publisher := events.NewMemoryPublisher()
	worker := events.NewOutboxWorker(slog.Default(), outbox, publisher, time.Second, 2, 3)

	for i := 0; i < 5; i++ {
		enqueue(t, outbox, fmt.Sprintf("rec_%d", i), domain.EventCampaignCreated)
	}
	if err := worker.ProcessOnce(context.Background()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if got := len(publisher.Events()); got != 2 {
		t.Fatalf("published %d events in one batch, want 2", got)
	}
}
