package application

import (
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

type Config struct {
	ServiceName          string
	FeeRecipient         string
	IdempotencyTTL       time.Duration
	OutboxFlushBatchSize int
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

type CreateCampaignInput struct {
	Title       string
	Description string
	Goal        int64
	Deadline    time.Time
}

type ContributeInput struct {
	CampaignID int64
	Amount     int64
}

type ContributionResult struct {
	CampaignID     int64
	Contributor    string
	Amount         int64
	NewTotalRaised int64
}

type WithdrawalResult struct {
	CampaignID    int64
	Creator       string
	CreatorAmount int64
	PlatformFee   int64
}

type RefundResult struct {
	CampaignID  int64
	Contributor string
	Amount      int64
}

type Service struct {
	cfg Config

	campaigns     ports.CampaignRepository
	contributions ports.ContributionRepository
	fees          ports.FeeLedgerRepository
	idempotency   ports.IdempotencyRepository
	outbox        ports.OutboxRepository
	transfers     ports.TransferGateway
	locks         ports.ReentrancyLocker
	nowFn         func() time.Time
}

type Dependencies struct {
	Config Config

	Campaigns     ports.CampaignRepository
	Contributions ports.ContributionRepository
	Fees          ports.FeeLedgerRepository
	Idempotency   ports.IdempotencyRepository
	Outbox        ports.OutboxRepository
	Transfers     ports.TransferGateway
	Locks         ports.ReentrancyLocker

	// NowFn overrides the clock; tests use it to advance past deadlines.
	NowFn func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M15-Campaign-Funding-Service"
	}
	if cfg.FeeRecipient == "" {
		cfg.FeeRecipient = "acct_platform_treasury"
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	nowFn := deps.NowFn
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:           cfg,
		campaigns:     deps.Campaigns,
		contributions: deps.Contributions,
		fees:          deps.Fees,
		idempotency:   deps.Idempotency,
		outbox:        deps.Outbox,
		transfers:     deps.Transfers,
		locks:         deps.Locks,
		nowFn:         nowFn,
	}
}
