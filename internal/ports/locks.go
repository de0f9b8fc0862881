package ports

import "context"

// ReentrancyLocker serializes mutating operations per campaign. Acquire is
// non-blocking: a second entry while the lock is held fails with
// domain.ErrReentrantCall instead of waiting, which is what rejects a
// transfer-callback re-entering the ledger mid-operation.
type ReentrancyLocker interface {
	Acquire(ctx context.Context, campaignID int64) error
	Release(ctx context.Context, campaignID int64)
}
