package pricing

import (
	"context"
	"sync"

	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

// StaticSource is an in-memory price table, used in tests and offline runs.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticSource creates a StaticSource seeded with the given prices.
func NewStaticSource(prices map[string]float64) *StaticSource {
	s := &StaticSource{prices: make(map[string]float64, len(prices))}
	for sym, p := range prices {
		s.prices[sym] = p
	}
	return s
}

// Set updates the price for a symbol.
func (s *StaticSource) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Delete removes a symbol, making subsequent lookups fail.
func (s *StaticSource) Delete(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prices, symbol)
}

// LastPrice implements Source.
func (s *StaticSource) LastPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[symbol]
	if !ok || price <= 0 {
		return 0, enginerr.NewExternalError("pricing", "last_price", enginerr.ErrPriceUnavailable)
	}
	return price, nil
}
