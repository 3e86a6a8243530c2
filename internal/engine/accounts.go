package engine

import (
	"context"
	"sync"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

// AccountSource supplies account state to the engine and absorbs the cash
// effect of fills.
type AccountSource interface {
	// Snapshot returns the account's current equity and cash.
	Snapshot(ctx context.Context, accountID string) (domain.AccountSnapshot, error)
	// ApplyTrade adjusts the account for an executed trade: buys debit cash,
	// sells credit it, commission is always deducted.
	ApplyTrade(ctx context.Context, trade domain.Trade) error
}

// Compile-time interface check.
var _ AccountSource = (*StaticAccounts)(nil)

// StaticAccounts is an in-memory AccountSource for simulated accounts.
type StaticAccounts struct {
	mu       sync.RWMutex
	accounts map[string]domain.AccountSnapshot
}

// NewStaticAccounts creates an empty StaticAccounts.
func NewStaticAccounts() *StaticAccounts {
	return &StaticAccounts{accounts: make(map[string]domain.AccountSnapshot)}
}

// Seed registers or replaces an account with the given equity and cash.
func (s *StaticAccounts) Seed(accountID string, equity, cash float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = domain.AccountSnapshot{
		AccountID: accountID,
		Equity:    equity,
		Cash:      cash,
	}
}

// Snapshot implements AccountSource.
func (s *StaticAccounts) Snapshot(_ context.Context, accountID string) (domain.AccountSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.accounts[accountID]
	if !ok {
		return domain.AccountSnapshot{}, enginerr.New(enginerr.ErrorCategoryNotFound,
			"accounts", "snapshot", "unknown account "+accountID)
	}
	return snap, nil
}

// ApplyTrade implements AccountSource. Equity moves by realized P&L net of
// commission; cash moves by the trade notional.
func (s *StaticAccounts) ApplyTrade(_ context.Context, trade domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.accounts[trade.AccountID]
	if !ok {
		return enginerr.New(enginerr.ErrorCategoryNotFound,
			"accounts", "apply_trade", "unknown account "+trade.AccountID)
	}

	switch trade.Side {
	case domain.SideBuy:
		snap.Cash -= trade.TotalUSD
	case domain.SideSell:
		snap.Cash += trade.TotalUSD
	}
	snap.Cash -= trade.CommissionUSD
	snap.Equity += trade.RealizedPnL - trade.CommissionUSD

	s.accounts[trade.AccountID] = snap
	return nil
}
