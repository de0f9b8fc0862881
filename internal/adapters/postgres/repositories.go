package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

const campaignCounterName = "campaign_id"

type Repositories struct {
	Campaigns     *CampaignRepository
	Contributions *ContributionRepository
	Fees          *FeeLedgerRepository
	Idempotency   *IdempotencyRepository
	Outbox        *OutboxRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Campaigns:     &CampaignRepository{db: db},
		Contributions: &ContributionRepository{db: db},
		Fees:          &FeeLedgerRepository{db: db},
		Idempotency:   &IdempotencyRepository{db: db},
		Outbox:        &OutboxRepository{db: db},
	}
}

type CampaignRepository struct {
	db *gorm.DB
}

// Create allocates the next dense id under a row lock on the counter, then
// inserts the campaign in the same transaction so a failed insert never
// burns an id.
func (r *CampaignRepository) Create(ctx context.Context, row domain.Campaign) (domain.Campaign, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter counterModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", campaignCounterName).
			Take(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = counterModel{Name: campaignCounterName, NextValue: 0}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		row.ID = counter.NextValue
		rec := toCampaignModel(row)
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Model(&counterModel{}).
			Where("name = ?", campaignCounterName).
			Update("next_value", counter.NextValue+1).Error
	})
	if err != nil {
		return domain.Campaign{}, err
	}
	return row, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec), nil
}

func (r *CampaignRepository) Update(ctx context.Context, row domain.Campaign) error {
	rec := toCampaignModel(row)
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ?", row.ID).
		Updates(map[string]any{
			"amount_raised": rec.AmountRaised,
			"withdrawn":     rec.Withdrawn,
			"cancelled":     rec.Cancelled,
			"updated_at":    rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CampaignRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&campaignModel{}).
		Order("campaign_id ASC").
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *CampaignRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&campaignModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type ContributionRepository struct {
	db *gorm.DB
}

func (r *ContributionRepository) Get(ctx context.Context, campaignID int64, contributor string) (int64, error) {
	var rec contributionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND contributor = ?", campaignID, contributor).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Amount, nil
}

func (r *ContributionRepository) Add(ctx context.Context, campaignID int64, contributor string, amount int64, at time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec contributionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ? AND contributor = ?", campaignID, contributor).
			Take(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = contributionModel{CampaignID: campaignID, Contributor: contributor, Amount: amount, UpdatedAt: at}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			rec.Amount += amount
			rec.UpdatedAt = at
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		}
		total = rec.Amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ContributionRepository) Set(ctx context.Context, campaignID int64, contributor string, amount int64, at time.Time) error {
	rec := contributionModel{CampaignID: campaignID, Contributor: contributor, Amount: amount, UpdatedAt: at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "contributor"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&rec).Error
}

func (r *ContributionRepository) ListByCampaignID(ctx context.Context, campaignID int64) ([]domain.Contribution, error) {
	var recs []contributionModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("contributor ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Contribution, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Contribution{
			CampaignID:  rec.CampaignID,
			Contributor: rec.Contributor,
			Amount:      rec.Amount,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return out, nil
}

type FeeLedgerRepository struct {
	db *gorm.DB
}

func (r *FeeLedgerRepository) Append(ctx context.Context, entry domain.FeeEntry) error {
	rec := feeEntryModel{
		EntryID:    entry.EntryID,
		CampaignID: entry.CampaignID,
		Recipient:  entry.Recipient,
		Amount:     entry.Amount,
		OccurredAt: entry.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *FeeLedgerRepository) Remove(ctx context.Context, entryID string) error {
	res := r.db.WithContext(ctx).Where("entry_id = ?", entryID).Delete(&feeEntryModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FeeLedgerRepository) Total(ctx context.Context) (int64, error) {
	var total *int64
	if err := r.db.WithContext(ctx).Model(&feeEntryModel{}).
		Select("SUM(amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

type IdempotencyRepository struct {
	db *gorm.DB
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if now.After(rec.ExpiresAt) {
		_ = r.db.WithContext(ctx).Where("idempotency_key = ?", key).Delete(&idempotencyModel{}).Error
		return nil, nil
	}
	return &ports.IdempotencyRecord{
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		ResponseCode: rec.ResponseCode,
		ResponseBody: rec.ResponseBody,
		ExpiresAt:    rec.ExpiresAt,
	}, nil
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	rec := idempotencyModel{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	var existing idempotencyModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&existing).Error; err != nil {
		return err
	}
	if existing.RequestHash != requestHash {
		return domain.ErrConflict
	}
	return nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	res := r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"response_code": responseCode,
			"response_body": responseBody,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type OutboxRepository struct {
	db *gorm.DB
}

func (r *OutboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	envelope, err := json.Marshal(record.Envelope)
	if err != nil {
		return err
	}
	rec := outboxModel{
		RecordID:   record.RecordID,
		EventClass: record.EventClass,
		EventType:  record.Envelope.EventType,
		Envelope:   string(envelope),
		RetryCount: record.RetryCount,
		LastError:  record.LastError,
		CreatedAt:  record.CreatedAt,
		SentAt:     record.SentAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []outboxModel
	if err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(recs))
	for _, rec := range recs {
		var envelope contracts.EventEnvelope
		if err := json.Unmarshal([]byte(rec.Envelope), &envelope); err != nil {
			continue
		}
		out = append(out, ports.OutboxRecord{
			RecordID:   rec.RecordID,
			EventClass: rec.EventClass,
			Envelope:   envelope,
			RetryCount: rec.RetryCount,
			LastError:  rec.LastError,
			CreatedAt:  rec.CreatedAt,
			SentAt:     rec.SentAt,
		})
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("record_id = ?", recordID).
		Update("sent_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, recordID, reason string, _ time.Time) error {
	res := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("record_id = ?", recordID).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toCampaignModel(c domain.Campaign) campaignModel {
	return campaignModel{
		CampaignID:   c.ID,
		Creator:      c.Creator,
		Title:        c.Title,
		Description:  c.Description,
		Goal:         c.Goal,
		Deadline:     c.Deadline,
		AmountRaised: c.AmountRaised,
		Withdrawn:    c.Withdrawn,
		Cancelled:    c.Cancelled,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toDomainCampaign(rec campaignModel) domain.Campaign {
	return domain.Campaign{
		ID:           rec.CampaignID,
		Creator:      rec.Creator,
		Title:        rec.Title,
		Description:  rec.Description,
		Goal:         rec.Goal,
		Deadline:     rec.Deadline,
		AmountRaised: rec.AmountRaised,
		Withdrawn:    rec.Withdrawn,
		Cancelled:    rec.Cancelled,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
