package memory

import (
	"context"
	"fmt"
	"sync"
)

// SettlementGateway simulates the external settlement rail for tests and the
// local runtime. Accounts can be marked as rejecting, and a hook can run
// recipient-side code synchronously inside Transfer, which is exactly how a
// re-entrant callback reaches the ledger in production.
type SettlementGateway struct {
	mu        sync.Mutex
	balances  map[string]int64
	rejecting map[string]bool
	hook      func(ctx context.Context, to string, amount int64)
}

func NewSettlementGateway() *SettlementGateway {
	return &SettlementGateway{balances: map[string]int64{}, rejecting: map[string]bool{}}
}

// RejectAccount makes every subsequent transfer to the account fail.
func (g *SettlementGateway) RejectAccount(account string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejecting[account] = true
}

// SetTransferHook installs recipient-side code executed synchronously before
// the credit lands.
func (g *SettlementGateway) SetTransferHook(hook func(ctx context.Context, to string, amount int64)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hook = hook
}

func (g *SettlementGateway) Balance(account string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[account]
}

func (g *SettlementGateway) Transfer(ctx context.Context, to string, amount int64, _ string) error {
	g.mu.Lock()
	rejected := g.rejecting[to]
	hook := g.hook
	g.mu.Unlock()

	if hook != nil {
		hook(ctx, to, amount)
	}
	if rejected {
		return fmt.Errorf("account %s rejected transfer", to)
	}

	g.mu.Lock()
	g.balances[to] += amount
	g.mu.Unlock()
	return nil
}
