package application

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// Read-only projections of the ledger store. None of these mutate state or
// require authorization beyond an authenticated subject.

func (s *Service) GetCampaignDetails(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Campaign{}, domain.ErrCampaignNotFound
		}
		return domain.Campaign{}, err
	}
	return campaign, nil
}

// GetState recomputes the derived lifecycle state from stored facts and the
// current clock on every call. It is never cached.
func (s *Service) GetState(ctx context.Context, campaignID int64) (domain.State, error) {
	campaign, err := s.GetCampaignDetails(ctx, campaignID)
	if err != nil {
		return "", err
	}
	return domain.StateOf(campaign, s.nowFn()), nil
}

func (s *Service) GetContribution(ctx context.Context, campaignID int64, contributor string) (int64, error) {
	if _, err := s.GetCampaignDetails(ctx, campaignID); err != nil {
		return 0, err
	}
	return s.contributions.Get(ctx, campaignID, contributor)
}

func (s *Service) GetAllCampaignIDs(ctx context.Context) ([]int64, error) {
	return s.campaigns.ListIDs(ctx)
}

func (s *Service) IsGoalReached(ctx context.Context, campaignID int64) (bool, error) {
	campaign, err := s.GetCampaignDetails(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return domain.GoalReached(campaign), nil
}

func (s *Service) GetTimeRemaining(ctx context.Context, campaignID int64) (time.Duration, error) {
	campaign, err := s.GetCampaignDetails(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return domain.TimeRemaining(campaign, s.nowFn()), nil
}

func (s *Service) GetTotalCampaigns(ctx context.Context) (int64, error) {
	return s.campaigns.Count(ctx)
}

// GetPlatformFeePool reports the accumulated fees withheld across all
// withdrawals; it is not tied to any single campaign.
func (s *Service) GetPlatformFeePool(ctx context.Context) (int64, error) {
	return s.fees.Total(ctx)
}

// CampaignView pairs stored campaign facts with the derived projections
// transported to callers.
type CampaignView struct {
	Campaign      domain.Campaign
	State         domain.State
	GoalReached   bool
	TimeRemaining time.Duration
}

func (s *Service) View(c domain.Campaign) CampaignView {
	now := s.nowFn()
	return CampaignView{
		Campaign:      c,
		State:         domain.StateOf(c, now),
		GoalReached:   domain.GoalReached(c),
		TimeRemaining: domain.TimeRemaining(c, now),
	}
}
