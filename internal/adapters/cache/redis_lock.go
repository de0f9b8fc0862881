package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// RedisCampaignLocker serializes per-campaign mutations across replicas with
// SET NX. Like the in-process locker it never blocks: a held lock means a
// concurrent or re-entrant call, which is rejected outright. The TTL bounds
// lock lifetime if a holder dies mid-operation.
type RedisCampaignLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCampaignLocker(client *redis.Client, ttl time.Duration) *RedisCampaignLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCampaignLocker{client: client, ttl: ttl}
}

func lockKey(campaignID int64) string {
	return "campaign:lock:" + strconv.FormatInt(campaignID, 10)
}

func (l *RedisCampaignLocker) Acquire(ctx context.Context, campaignID int64) error {
	ok, err := l.client.SetNX(ctx, lockKey(campaignID), "1", l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReentrantCall
	}
	return nil
}

func (l *RedisCampaignLocker) Release(ctx context.Context, campaignID int64) {
	_ = l.client.Del(ctx, lockKey(campaignID)).Err()
}
