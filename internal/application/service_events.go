package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

// Notifications are advisory, not authoritative state: they are written to the
// outbox in the same logical step as the ledger mutation and drained toward
// the broker by the outbox worker.

func (s *Service) enqueueEvent(ctx context.Context, eventType, traceID string, data any, campaignID int64, now time.Time) error {
	if s.outbox == nil {
		return nil
	}
	if !domain.IsCanonicalEmittedEvent(eventType) {
		return domain.ErrUnsupportedEventType
	}
	b, err := json.Marshal(data)
	if err != nil {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(traceID) == "" {
		traceID = uuid.NewString()
	}
	env := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClass(eventType),
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     strconv.FormatInt(campaignID, 10),
		SourceService:    s.cfg.ServiceName,
		TraceID:          traceID,
		SchemaVersion:    "v1",
		Data:             b,
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		RecordID:   uuid.NewString(),
		EventClass: env.EventClass,
		Envelope:   env,
		CreatedAt:  now,
	})
}

func (s *Service) enqueueCampaignCreated(ctx context.Context, c domain.Campaign, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventCampaignCreated, traceID, contracts.CampaignCreatedPayload{
		CampaignID: c.ID,
		Creator:    c.Creator,
		Title:      c.Title,
		Goal:       c.Goal,
		Deadline:   c.Deadline.UTC().Format(time.RFC3339),
	}, c.ID, now)
}

func (s *Service) enqueueContributionMade(ctx context.Context, r ContributionResult, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventContributionMade, traceID, contracts.ContributionMadePayload{
		CampaignID:  r.CampaignID,
		Contributor: r.Contributor,
		Amount:      r.Amount,
		TotalRaised: r.NewTotalRaised,
		MadeAt:      now.UTC().Format(time.RFC3339),
	}, r.CampaignID, now)
}

func (s *Service) enqueueFundsWithdrawn(ctx context.Context, r WithdrawalResult, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventFundsWithdrawn, traceID, contracts.FundsWithdrawnPayload{
		CampaignID:    r.CampaignID,
		Creator:       r.Creator,
		CreatorAmount: r.CreatorAmount,
		PlatformFee:   r.PlatformFee,
		WithdrawnAt:   now.UTC().Format(time.RFC3339),
	}, r.CampaignID, now)
}

func (s *Service) enqueueRefundClaimed(ctx context.Context, r RefundResult, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventRefundClaimed, traceID, contracts.RefundClaimedPayload{
		CampaignID:  r.CampaignID,
		Contributor: r.Contributor,
		Amount:      r.Amount,
		RefundedAt:  now.UTC().Format(time.RFC3339),
	}, r.CampaignID, now)
}

func (s *Service) enqueueCampaignCancelled(ctx context.Context, c domain.Campaign, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventCampaignCancelled, traceID, contracts.CampaignCancelledPayload{
		CampaignID:  c.ID,
		Creator:     c.Creator,
		CancelledAt: now.UTC().Format(time.RFC3339),
	}, c.ID, now)
}
