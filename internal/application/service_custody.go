package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// WithdrawFunds pays the creator the net proceeds of a successful campaign
// and accrues the platform fee. Ordering is strict checks-effects-interactions:
// every ledger mutation lands before the external transfer is attempted, and
// the campaign's reentrancy lock is held across the transfer so a recipient
// callback re-entering the ledger is rejected rather than interleaved.
func (s *Service) WithdrawFunds(ctx context.Context, actor Actor, campaignID int64) (WithdrawalResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return WithdrawalResult{}, domain.ErrUnauthorized
	}
	if err := s.locks.Acquire(ctx, campaignID); err != nil {
		return WithdrawalResult{}, err
	}
	defer s.locks.Release(ctx, campaignID)

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return WithdrawalResult{}, domain.ErrCampaignNotFound
		}
		return WithdrawalResult{}, err
	}
	now := s.nowFn()
	if now.Before(campaign.Deadline) {
		return WithdrawalResult{}, domain.ErrDeadlineNotReached
	}
	if actor.SubjectID != campaign.Creator {
		return WithdrawalResult{}, domain.ErrUnauthorized
	}
	// Cancellation is terminal: a cancelled campaign is refund-only even when
	// contributions later matched the goal.
	if campaign.Cancelled {
		return WithdrawalResult{}, domain.ErrCampaignCancelled
	}
	if campaign.AmountRaised < campaign.Goal {
		return WithdrawalResult{}, domain.ErrGoalNotReached
	}
	if campaign.Withdrawn {
		return WithdrawalResult{}, domain.ErrAlreadyWithdrawn
	}

	platformFee := domain.PlatformFee(campaign.AmountRaised)
	creatorAmount := campaign.AmountRaised - platformFee

	campaign.Withdrawn = true
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return WithdrawalResult{}, err
	}
	feeEntry := domain.FeeEntry{
		EntryID:    uuid.NewString(),
		CampaignID: campaign.ID,
		Recipient:  s.cfg.FeeRecipient,
		Amount:     platformFee,
		OccurredAt: now,
	}
	if err := s.fees.Append(ctx, feeEntry); err != nil {
		campaign.Withdrawn = false
		_ = s.campaigns.Update(ctx, campaign)
		return WithdrawalResult{}, err
	}

	reference := fmt.Sprintf("campaign:%d:withdrawal", campaign.ID)
	if err := s.transfers.Transfer(ctx, campaign.Creator, creatorAmount, reference); err != nil {
		// All-or-nothing: a rejected transfer must leave the ledger exactly as
		// it was before the call.
		_ = s.fees.Remove(ctx, feeEntry.EntryID)
		campaign.Withdrawn = false
		_ = s.campaigns.Update(ctx, campaign)
		return WithdrawalResult{}, domain.ErrTransferFailed
	}

	result := WithdrawalResult{
		CampaignID:    campaign.ID,
		Creator:       campaign.Creator,
		CreatorAmount: creatorAmount,
		PlatformFee:   platformFee,
	}
	if err := s.enqueueFundsWithdrawn(ctx, result, actor.RequestID, now); err != nil {
		return WithdrawalResult{}, err
	}
	return result, nil
}

// ClaimRefund returns a contributor's cumulative entry once the campaign has
// failed or been cancelled. The entry is zeroed before the transfer; a second
// claim finds nothing left and fails cleanly instead of transferring zero.
func (s *Service) ClaimRefund(ctx context.Context, actor Actor, campaignID int64) (RefundResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return RefundResult{}, domain.ErrUnauthorized
	}
	if err := s.locks.Acquire(ctx, campaignID); err != nil {
		return RefundResult{}, err
	}
	defer s.locks.Release(ctx, campaignID)

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return RefundResult{}, domain.ErrCampaignNotFound
		}
		return RefundResult{}, err
	}
	now := s.nowFn()
	if !domain.Refundable(campaign, now) {
		return RefundResult{}, domain.ErrCampaignWasSuccessful
	}

	amount, err := s.contributions.Get(ctx, campaign.ID, actor.SubjectID)
	if err != nil {
		return RefundResult{}, err
	}
	if amount <= 0 {
		return RefundResult{}, domain.ErrNothingToRefund
	}

	if err := s.contributions.Set(ctx, campaign.ID, actor.SubjectID, 0, now); err != nil {
		return RefundResult{}, err
	}
	// AmountRaised is deliberately left untouched: it is the historical
	// high-water mark the state evaluator compares against the goal.
	reference := fmt.Sprintf("campaign:%d:refund:%s", campaign.ID, actor.SubjectID)
	if err := s.transfers.Transfer(ctx, actor.SubjectID, amount, reference); err != nil {
		_ = s.contributions.Set(ctx, campaign.ID, actor.SubjectID, amount, now)
		return RefundResult{}, domain.ErrRefundFailed
	}

	result := RefundResult{CampaignID: campaign.ID, Contributor: actor.SubjectID, Amount: amount}
	if err := s.enqueueRefundClaimed(ctx, result, actor.RequestID, now); err != nil {
		return RefundResult{}, err
	}
	return result, nil
}

// CancelCampaign lets the creator end an active campaign before its deadline.
// No funds move; cancellation only unlocks refund eligibility.
func (s *Service) CancelCampaign(ctx context.Context, actor Actor, campaignID int64) (domain.Campaign, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Campaign{}, domain.ErrUnauthorized
	}
	if err := s.locks.Acquire(ctx, campaignID); err != nil {
		return domain.Campaign{}, err
	}
	defer s.locks.Release(ctx, campaignID)

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Campaign{}, domain.ErrCampaignNotFound
		}
		return domain.Campaign{}, err
	}
	if actor.SubjectID != campaign.Creator {
		return domain.Campaign{}, domain.ErrUnauthorized
	}
	now := s.nowFn()
	if !now.Before(campaign.Deadline) {
		return domain.Campaign{}, domain.ErrDeadlinePassed
	}
	if campaign.Cancelled {
		return domain.Campaign{}, domain.ErrCampaignCancelled
	}

	campaign.Cancelled = true
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return domain.Campaign{}, err
	}
	if err := s.enqueueCampaignCancelled(ctx, campaign, actor.RequestID, now); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}
