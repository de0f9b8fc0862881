package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// CampaignRepository owns campaign rows. Create assigns the next dense
// sequential identifier starting at 0; identifiers are never reused.
type CampaignRepository interface {
	Create(ctx context.Context, row domain.Campaign) (domain.Campaign, error)
	GetByID(ctx context.Context, campaignID int64) (domain.Campaign, error)
	Update(ctx context.Context, row domain.Campaign) error
	ListIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

// ContributionRepository owns the (campaign, contributor) ledger entries.
// Set overwrites the cumulative entry; Add increments it and returns the new
// per-contributor total.
type ContributionRepository interface {
	Get(ctx context.Context, campaignID int64, contributor string) (int64, error)
	Add(ctx context.Context, campaignID int64, contributor string, amount int64, at time.Time) (int64, error)
	Set(ctx context.Context, campaignID int64, contributor string, amount int64, at time.Time) error
	ListByCampaignID(ctx context.Context, campaignID int64) ([]domain.Contribution, error)
}

// FeeLedgerRepository accumulates platform fees withheld across withdrawals.
// Remove exists solely so a failed creator transfer can undo its fee accrual.
type FeeLedgerRepository interface {
	Append(ctx context.Context, entry domain.FeeEntry) error
	Remove(ctx context.Context, entryID string) error
	Total(ctx context.Context) (int64, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
