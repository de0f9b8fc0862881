package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

// Repositories is the in-memory ledger store used by tests and the local
// runtime. Campaign ids are slice indexes, which keeps them dense, unique and
// assigned in creation order starting at 0.
type Repositories struct {
	Campaigns     *CampaignRepository
	Contributions *ContributionRepository
	Fees          *FeeLedgerRepository
	Idempotency   *IdempotencyRepository
	Outbox        *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Campaigns:     &CampaignRepository{},
		Contributions: &ContributionRepository{rows: map[string]domain.Contribution{}},
		Fees:          &FeeLedgerRepository{rows: map[string]domain.FeeEntry{}},
		Idempotency:   &IdempotencyRepository{rows: map[string]ports.IdempotencyRecord{}},
		Outbox:        &OutboxRepository{rows: map[string]ports.OutboxRecord{}},
	}
}

type CampaignRepository struct {
	mu   sync.Mutex
	rows []domain.Campaign
}

func (r *CampaignRepository) Create(_ context.Context, row domain.Campaign) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = int64(len(r.rows))
	r.rows = append(r.rows, row)
	return row, nil
}

func (r *CampaignRepository) GetByID(_ context.Context, campaignID int64) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if campaignID < 0 || campaignID >= int64(len(r.rows)) {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return r.rows[campaignID], nil
}

func (r *CampaignRepository) Update(_ context.Context, row domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row.ID < 0 || row.ID >= int64(len(r.rows)) {
		return domain.ErrNotFound
	}
	r.rows[row.ID] = row
	return nil
}

func (r *CampaignRepository) ListIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.rows))
	for i := range r.rows {
		out[i] = int64(i)
	}
	return out, nil
}

func (r *CampaignRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

type ContributionRepository struct {
	mu   sync.Mutex
	rows map[string]domain.Contribution
}

func contributionKey(campaignID int64, contributor string) string {
	return fmt.Sprintf("%d/%s", campaignID, contributor)
}

func (r *ContributionRepository) Get(_ context.Context, campaignID int64, contributor string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[contributionKey(campaignID, contributor)].Amount, nil
}

func (r *ContributionRepository) Add(_ context.Context, campaignID int64, contributor string, amount int64, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := contributionKey(campaignID, contributor)
	row := r.rows[key]
	row.CampaignID, row.Contributor = campaignID, contributor
	row.Amount += amount
	row.UpdatedAt = at
	r.rows[key] = row
	return row.Amount, nil
}

func (r *ContributionRepository) Set(_ context.Context, campaignID int64, contributor string, amount int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := contributionKey(campaignID, contributor)
	r.rows[key] = domain.Contribution{CampaignID: campaignID, Contributor: contributor, Amount: amount, UpdatedAt: at}
	return nil
}

func (r *ContributionRepository) ListByCampaignID(_ context.Context, campaignID int64) ([]domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Contribution, 0)
	for _, row := range r.rows {
		if row.CampaignID == campaignID {
			out = append(out, row)
		}
	}
	return out, nil
}

type FeeLedgerRepository struct {
	mu   sync.Mutex
	rows map[string]domain.FeeEntry
}

func (r *FeeLedgerRepository) Append(_ context.Context, entry domain.FeeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[entry.EntryID]; ok {
		return domain.ErrConflict
	}
	r.rows[entry.EntryID] = entry
	return nil
}

func (r *FeeLedgerRepository) Remove(_ context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[entryID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, entryID)
	return nil
}

func (r *FeeLedgerRepository) Total(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, row := range r.rows {
		total += row.Amount
	}
	return total, nil
}

type IdempotencyRepository struct {
	mu   sync.Mutex
	rows map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	if now.After(row.ExpiresAt) {
		delete(r.rows, key)
		return nil, nil
	}
	c := row
	c.ResponseBody = append([]byte(nil), row.ResponseBody...)
	return &c, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok && row.RequestHash != requestHash {
		return domain.ErrConflict
	}
	if row, ok := r.rows[key]; ok {
		row.ExpiresAt = expiresAt
		r.rows[key] = row
		return nil
	}
	r.rows[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	row.ResponseCode = responseCode
	row.ResponseBody = append([]byte(nil), responseBody...)
	r.rows[key] = row
	return nil
}

type OutboxRepository struct {
	mu    sync.Mutex
	rows  map[string]ports.OutboxRecord
	order []string
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[record.RecordID]; ok {
		return domain.ErrConflict
	}
	r.rows[record.RecordID] = record
	r.order = append(r.order, record.RecordID)
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		row, ok := r.rows[id]
		if !ok || row.SentAt != nil {
			continue
		}
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.SentAt = &at
	r.rows[recordID] = row
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, recordID, reason string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.RetryCount++
	row.LastError = reason
	r.rows[recordID] = row
	return nil
}
