package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory behind one mutex, which
// also makes CommitFill trivially atomic. Suitable for tests and
// single-process runs.
type MemoryStore struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	positions map[string]domain.Position // account|symbol
	trades    []domain.Trade
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]domain.Order),
		positions: make(map[string]domain.Position),
	}
}

func positionKey(accountID, symbol string) string {
	return accountID + "|" + symbol
}

// SaveOrder inserts or replaces an order record.
func (s *MemoryStore) SaveOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	return nil
}

// GetOrder retrieves an order by id.
func (s *MemoryStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, enginerr.NewNotFoundError("store", "get_order", enginerr.ErrOrderNotFound)
	}
	cp := o
	return &cp, nil
}

// UpdateOrder persists changes to an existing order.
func (s *MemoryStore) UpdateOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return enginerr.NewNotFoundError("store", "update_order", enginerr.ErrOrderNotFound)
	}
	s.orders[o.ID] = *o
	return nil
}

// ListOrders returns the account's orders, newest first.
func (s *MemoryStore) ListOrders(_ context.Context, accountID string, status domain.OrderStatus) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, o := range s.orders {
		if o.AccountID != accountID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetPosition retrieves the open position for account+symbol.
func (s *MemoryStore) GetPosition(_ context.Context, accountID, symbol string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[positionKey(accountID, symbol)]
	if !ok {
		return nil, enginerr.NewNotFoundError("store", "get_position", enginerr.ErrPositionNotFound)
	}
	cp := p
	return &cp, nil
}

// ListPositions returns all open positions for the account, sorted by symbol.
func (s *MemoryStore) ListPositions(_ context.Context, accountID string) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Position
	for _, p := range s.positions {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// SavePosition inserts or replaces the position for account+symbol.
func (s *MemoryStore) SavePosition(_ context.Context, p *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[positionKey(p.AccountID, p.Symbol)] = *p
	return nil
}

// DeletePosition removes the position for account+symbol.
func (s *MemoryStore) DeletePosition(_ context.Context, accountID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, positionKey(accountID, symbol))
	return nil
}

// SaveTrade appends an immutable trade record.
func (s *MemoryStore) SaveTrade(_ context.Context, t *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, *t)
	return nil
}

// ListTrades returns the account's trades executed at or after since.
func (s *MemoryStore) ListTrades(_ context.Context, accountID string, since time.Time) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Trade
	for _, t := range s.trades {
		if t.AccountID != accountID {
			continue
		}
		if !since.IsZero() && t.ExecutedAt.Before(since) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.Before(out[j].ExecutedAt) })
	return out, nil
}

// CommitFill applies the order update, trade insert, and position mutation
// under a single lock acquisition.
func (s *MemoryStore) CommitFill(_ context.Context, order *domain.Order, trade *domain.Trade, position *domain.Position, closed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = *order
	s.trades = append(s.trades, *trade)
	if closed {
		delete(s.positions, positionKey(trade.AccountID, trade.Symbol))
	} else if position != nil {
		s.positions[positionKey(position.AccountID, position.Symbol)] = *position
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
