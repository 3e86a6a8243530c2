package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

func testOrder(id string, status domain.OrderStatus, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:          id,
		AccountID:   "acct",
		Symbol:      "BTCUSDT",
		Side:        domain.SideBuy,
		Type:        domain.OrderTypeMarket,
		Quantity:    1,
		TimeInForce: domain.TimeInForceDay,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func TestMemoryStore_OrderRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveOrder(ctx, testOrder("o1", domain.OrderStatusPending, now)))

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.ID)
	assert.Equal(t, domain.OrderStatusPending, got.Status)

	// Mutating the returned copy must not affect the stored record.
	got.Status = domain.OrderStatusFilled
	again, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, again.Status)
}

func TestMemoryStore_GetOrderNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetOrder(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrOrderNotFound))
}

func TestMemoryStore_UpdateOrderNotFound(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpdateOrder(context.Background(), testOrder("ghost", domain.OrderStatusPending, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrOrderNotFound))
}

func TestMemoryStore_ListOrdersByStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveOrder(ctx, testOrder("o1", domain.OrderStatusPending, base)))
	require.NoError(t, s.SaveOrder(ctx, testOrder("o2", domain.OrderStatusFilled, base.Add(time.Minute))))
	require.NoError(t, s.SaveOrder(ctx, testOrder("o3", domain.OrderStatusPending, base.Add(2*time.Minute))))

	pending, err := s.ListOrders(ctx, "acct", domain.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "o3", pending[0].ID, "orders should be newest first")

	all, err := s.ListOrders(ctx, "acct", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other, err := s.ListOrders(ctx, "someone-else", "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStore_PositionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetPosition(ctx, "acct", "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrPositionNotFound))

	pos := &domain.Position{AccountID: "acct", Symbol: "BTCUSDT", Quantity: 2, AverageEntryPrice: 100, TotalCostBasis: 200}
	require.NoError(t, s.SavePosition(ctx, pos))

	got, err := s.GetPosition(ctx, "acct", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Quantity)

	require.NoError(t, s.DeletePosition(ctx, "acct", "BTCUSDT"))
	_, err = s.GetPosition(ctx, "acct", "BTCUSDT")
	assert.Error(t, err)
}

func TestMemoryStore_ListTradesSince(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{base.Add(-time.Hour), base.Add(time.Hour), base.Add(2 * time.Hour)} {
		require.NoError(t, s.SaveTrade(ctx, &domain.Trade{
			ID:         string(rune('a' + i)),
			AccountID:  "acct",
			Symbol:     "BTCUSDT",
			Side:       domain.SideBuy,
			ExecutedAt: at,
		}))
	}

	trades, err := s.ListTrades(ctx, "acct", base)
	require.NoError(t, err)
	require.Len(t, trades, 2, "trades before the cutoff are excluded")
	assert.True(t, trades[0].ExecutedAt.Before(trades[1].ExecutedAt), "oldest first")

	all, err := s.ListTrades(ctx, "acct", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_CommitFill(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	order := testOrder("o1", domain.OrderStatusPending, now)
	require.NoError(t, s.SaveOrder(ctx, order))

	order.Status = domain.OrderStatusFilled
	order.FilledQuantity = 1
	order.AverageFillPrice = 100
	trade := &domain.Trade{ID: "t1", OrderID: "o1", AccountID: "acct", Symbol: "BTCUSDT", Side: domain.SideBuy, Quantity: 1, Price: 100, ExecutedAt: now}
	pos := &domain.Position{AccountID: "acct", Symbol: "BTCUSDT", Quantity: 1, AverageEntryPrice: 100, TotalCostBasis: 100}

	require.NoError(t, s.CommitFill(ctx, order, trade, pos, false))

	gotOrder, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, gotOrder.Status)

	gotPos, err := s.GetPosition(ctx, "acct", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, gotPos.Quantity)

	trades, err := s.ListTrades(ctx, "acct", time.Time{})
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestMemoryStore_CommitFillClosesPosition(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SavePosition(ctx, &domain.Position{
		AccountID: "acct", Symbol: "BTCUSDT", Quantity: 1, AverageEntryPrice: 100, TotalCostBasis: 100,
	}))

	order := testOrder("o2", domain.OrderStatusFilled, now)
	order.Side = domain.SideSell
	trade := &domain.Trade{ID: "t2", OrderID: "o2", AccountID: "acct", Symbol: "BTCUSDT", Side: domain.SideSell, Quantity: 1, Price: 110, RealizedPnL: 10, ExecutedAt: now}

	require.NoError(t, s.CommitFill(ctx, order, trade, nil, true))

	_, err := s.GetPosition(ctx, "acct", "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrPositionNotFound))
}
