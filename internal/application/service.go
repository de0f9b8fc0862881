package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// CreateCampaign validates the terms, allocates the next sequential campaign
// id and stores the new campaign with zeroed counters.
func (s *Service) CreateCampaign(ctx context.Context, actor Actor, input CreateCampaignInput) (domain.Campaign, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Campaign{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.Campaign{}, domain.ErrIdempotencyRequired
	}
	if input.Goal <= 0 {
		return domain.Campaign{}, domain.ErrInvalidGoal
	}
	now := s.nowFn()
	if !input.Deadline.After(now) {
		return domain.Campaign{}, domain.ErrInvalidDeadline
	}

	requestHash := hashJSON(input)
	var cached domain.Campaign
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Campaign{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Campaign{}, err
	}

	created, err := s.campaigns.Create(ctx, domain.Campaign{
		Creator:     actor.SubjectID,
		Title:       input.Title,
		Description: input.Description,
		Goal:        input.Goal,
		Deadline:    input.Deadline.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := s.enqueueCampaignCreated(ctx, created, actor.RequestID, now); err != nil {
		return domain.Campaign{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, created)
	return created, nil
}

// Contribute accepts funds into custody against an existing, still-open
// campaign. It runs under the campaign's reentrancy lock so a transfer
// callback from a concurrent withdrawal or refund cannot slip a contribution
// into inconsistent intermediate state.
func (s *Service) Contribute(ctx context.Context, actor Actor, input ContributeInput) (ContributionResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return ContributionResult{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return ContributionResult{}, domain.ErrIdempotencyRequired
	}

	requestHash := hashJSON(struct {
		ContributeInput
		Contributor string
	}{input, actor.SubjectID})
	var cached ContributionResult
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return ContributionResult{}, err
	} else if ok {
		return cached, nil
	}

	if err := s.locks.Acquire(ctx, input.CampaignID); err != nil {
		return ContributionResult{}, err
	}
	defer s.locks.Release(ctx, input.CampaignID)

	campaign, err := s.campaigns.GetByID(ctx, input.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ContributionResult{}, domain.ErrCampaignNotFound
		}
		return ContributionResult{}, err
	}
	if input.Amount <= 0 {
		return ContributionResult{}, domain.ErrZeroContribution
	}
	now := s.nowFn()
	// The deadline is an exclusive upper bound: a contribution arriving at the
	// deadline instant is already late.
	if !now.Before(campaign.Deadline) {
		return ContributionResult{}, domain.ErrDeadlinePassed
	}
	if campaign.Cancelled {
		return ContributionResult{}, domain.ErrCampaignCancelled
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return ContributionResult{}, err
	}

	if _, err := s.contributions.Add(ctx, campaign.ID, actor.SubjectID, input.Amount, now); err != nil {
		return ContributionResult{}, err
	}
	campaign.AmountRaised += input.Amount
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return ContributionResult{}, err
	}

	result := ContributionResult{
		CampaignID:     campaign.ID,
		Contributor:    actor.SubjectID,
		Amount:         input.Amount,
		NewTotalRaised: campaign.AmountRaised,
	}
	if err := s.enqueueContributionMade(ctx, result, actor.RequestID, now); err != nil {
		return ContributionResult{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, result)
	return result, nil
}

func (s *Service) replayIdempotent(ctx context.Context, key, requestHash string, out any) (bool, error) {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return false, nil
	}
	rec, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil || rec == nil {
		return false, err
	}
	if rec.RequestHash != requestHash {
		return false, domain.ErrIdempotencyConflict
	}
	if len(rec.ResponseBody) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rec.ResponseBody, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Service) reserveIdempotency(ctx context.Context, key, requestHash string) error {
	if s.idempotency == nil {
		return nil
	}
	err := s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL))
	if errors.Is(err, domain.ErrConflict) {
		return domain.ErrIdempotencyConflict
	}
	return err
}

func (s *Service) completeIdempotencyJSON(ctx context.Context, key string, code int, payload any) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	b, _ := json.Marshal(payload)
	return s.idempotency.Complete(ctx, key, code, b, s.nowFn())
}

func hashJSON(v any) string {
	b, _ := json.Marshal(v)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
