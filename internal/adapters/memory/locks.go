package memory

import (
	"context"
	"sync"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// CampaignLocker is the in-process reentrancy guard. Acquire never blocks: a
// campaign whose lock is already held rejects the caller immediately, which
// is the defense against transfer callbacks re-entering the ledger.
type CampaignLocker struct {
	mu   sync.Mutex
	held map[int64]bool
}

func NewCampaignLocker() *CampaignLocker {
	return &CampaignLocker{held: map[int64]bool{}}
}

func (l *CampaignLocker) Acquire(_ context.Context, campaignID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[campaignID] {
		return domain.ErrReentrantCall
	}
	l.held[campaignID] = true
	return nil
}

func (l *CampaignLocker) Release(_ context.Context, campaignID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, campaignID)
}
