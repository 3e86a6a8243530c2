package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
	"github.com/takkaros/brave-market-buddy-sub000/internal/monitoring"
	"github.com/takkaros/brave-market-buddy-sub000/internal/pricing"
	"github.com/takkaros/brave-market-buddy-sub000/internal/store"
)

const testAccount = "acct"

func newTestEngine(t *testing.T, limits domain.RiskLimits, prices map[string]float64) (*Engine, *pricing.StaticSource) {
	t.Helper()
	source := pricing.NewStaticSource(prices)
	accounts := NewStaticAccounts()
	accounts.Seed(testAccount, 100000, 100000)
	return NewEngine(store.NewMemoryStore(), source, accounts, limits, nil), source
}

func buyIntent(quantity float64) domain.OrderIntent {
	return domain.OrderIntent{
		AccountID:     testAccount,
		Symbol:        "BTCUSDT",
		Side:          domain.SideBuy,
		Type:          domain.OrderTypeMarket,
		Quantity:      quantity,
		StopLossPrice: 95,
	}
}

func TestSubmitOrder_MarketBuyFillsSynchronously(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})

	result, err := eng.SubmitOrder(context.Background(), buyIntent(2))
	require.NoError(t, err)
	require.True(t, result.Check.Allowed)

	assert.Equal(t, domain.OrderStatusFilled, result.Order.Status)
	assert.Equal(t, 2.0, result.Order.FilledQuantity)
	assert.Equal(t, 100.0, result.Order.AverageFillPrice)
	require.NotNil(t, result.Order.FilledAt)

	require.NotNil(t, result.Trade)
	assert.InDelta(t, 200.0, result.Trade.TotalUSD, 1e-9)
	assert.InDelta(t, 0.2, result.Trade.CommissionUSD, 1e-9, "commission is 0.1% of notional")

	require.NotNil(t, result.Position)
	assert.Equal(t, 2.0, result.Position.Quantity)
	assert.Equal(t, 95.0, result.Position.StopLossPrice)

	positions, err := eng.GetPositions(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Len(t, positions, 1)
}

func TestSubmitOrder_MissingPriceBlocksSubmission(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), nil)

	_, err := eng.SubmitOrder(context.Background(), buyIntent(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrPriceUnavailable))

	// Nothing may have been persisted.
	orders, err := eng.store.ListOrders(context.Background(), testAccount, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSubmitOrder_RejectionIsPersistedNotErrored(t *testing.T) {
	limits := domain.DefaultRiskLimits()
	limits.RequireStopLoss = true
	eng, _ := newTestEngine(t, limits, map[string]float64{"BTCUSDT": 100})

	intent := buyIntent(1)
	intent.StopLossPrice = 0

	result, err := eng.SubmitOrder(context.Background(), intent)
	require.NoError(t, err, "a risk rejection is a result, not an error")
	assert.False(t, result.Check.Allowed)
	assert.Equal(t, domain.OrderStatusRejected, result.Order.Status)
	assert.NotEmpty(t, result.Order.RejectReason)
	assert.Nil(t, result.Trade)

	stored, err := eng.GetOrder(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, stored.Status)
}

func TestSubmitOrder_LimitOrderRestsPending(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})

	intent := buyIntent(1)
	intent.Type = domain.OrderTypeLimit
	intent.LimitPrice = 90

	result, err := eng.SubmitOrder(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, result.Order.Status)
	assert.Nil(t, result.Trade)
}

func TestSubmitOrder_LimitOrderRequiresLimitPrice(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})

	intent := buyIntent(1)
	intent.Type = domain.OrderTypeLimit
	intent.LimitPrice = 0

	_, err := eng.SubmitOrder(context.Background(), intent)
	require.Error(t, err)
	assert.Equal(t, enginerr.ErrorCategoryValidation, enginerr.CategoryOf(err))
}

func TestSubmitOrder_OversellFailsWithInsufficientPosition(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})

	intent := buyIntent(1)
	intent.Side = domain.SideSell

	_, err := eng.SubmitOrder(context.Background(), intent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrInsufficientPosition))

	// The order must land in a terminal state, not rest as pending.
	orders, err := eng.store.ListOrders(context.Background(), testAccount, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusRejected, orders[0].Status)
	assert.Contains(t, orders[0].RejectReason, "insufficient position")
}

func TestSubmitOrder_FillUpdatesHealthChecker(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	health := monitoring.NewHealthChecker()
	eng.SetHealthChecker(health)

	_, err := eng.SubmitOrder(context.Background(), buyIntent(1))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	health.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status monitoring.HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 100.0, status.LastPrice)
	assert.False(t, status.LastFill.IsZero())
	assert.True(t, status.StoreReachable)
}

func TestSubmitOrder_SellRealizesPnL(t *testing.T) {
	eng, source := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	ctx := context.Background()

	_, err := eng.SubmitOrder(ctx, buyIntent(2))
	require.NoError(t, err)

	sell := buyIntent(2)
	sell.Side = domain.SideSell
	source.Set("BTCUSDT", 120)

	result, err := eng.SubmitOrder(ctx, sell)
	require.NoError(t, err)
	require.NotNil(t, result.Trade)
	assert.InDelta(t, 40.0, result.Trade.RealizedPnL, 1e-9)
	assert.Nil(t, result.Position, "full close deletes the position")

	positions, err := eng.GetPositions(ctx, testAccount)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestCancelOrder_TerminalStates(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	ctx := context.Background()

	// Cancel a resting limit order.
	intent := buyIntent(1)
	intent.Type = domain.OrderTypeLimit
	intent.LimitPrice = 90
	result, err := eng.SubmitOrder(ctx, intent)
	require.NoError(t, err)

	cancelled, err := eng.CancelOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// Cancelling again names the cancelled state.
	_, err = eng.CancelOrder(ctx, result.Order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrOrderAlreadyCancelled))

	// Cancelling a filled order names the filled state.
	filled, err := eng.SubmitOrder(ctx, buyIntent(1))
	require.NoError(t, err)
	_, err = eng.CancelOrder(ctx, filled.Order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrOrderAlreadyFilled))
}

func TestCancelOrder_NotFound(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), nil)
	_, err := eng.CancelOrder(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrOrderNotFound))
}

func TestExpireStale_DayOrdersOnly(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	ctx := context.Background()

	yesterday := time.Now().AddDate(0, 0, -1)
	eng.now = func() time.Time { return yesterday }

	day := buyIntent(1)
	day.Type = domain.OrderTypeLimit
	day.LimitPrice = 90
	dayResult, err := eng.SubmitOrder(ctx, day)
	require.NoError(t, err)

	gtc := buyIntent(1)
	gtc.Type = domain.OrderTypeLimit
	gtc.LimitPrice = 90
	gtc.TimeInForce = domain.TimeInForceGTC
	gtcResult, err := eng.SubmitOrder(ctx, gtc)
	require.NoError(t, err)

	eng.now = time.Now
	expired, err := eng.ExpireStale(ctx, testAccount, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, dayResult.Order.ID, expired[0].ID)

	stored, err := eng.GetOrder(ctx, gtcResult.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status, "GTC orders never expire")

	// An expired order cannot be cancelled.
	_, err = eng.CancelOrder(ctx, dayResult.Order.ID)
	require.Error(t, err)
	assert.Equal(t, enginerr.ErrorCategoryState, enginerr.CategoryOf(err))
}

func TestSubmitOrder_DailyLossBlocksFurtherOrders(t *testing.T) {
	limits := domain.DefaultRiskLimits()
	limits.MaxDailyLossUSD = 500
	limits.MaxDailyLossPercent = 0
	limits.CircuitBreakerLossPercent = 0
	eng, source := newTestEngine(t, limits, map[string]float64{"BTCUSDT": 1000})
	ctx := context.Background()

	buy := buyIntent(10)
	buy.StopLossPrice = 995
	_, err := eng.SubmitOrder(ctx, buy)
	require.NoError(t, err)

	// Sell the lot at a $700 loss.
	source.Set("BTCUSDT", 930)
	sell := buy
	sell.Side = domain.SideSell
	_, err = eng.SubmitOrder(ctx, sell)
	require.NoError(t, err)

	result, err := eng.SubmitOrder(ctx, buyIntent(1))
	require.NoError(t, err)
	assert.False(t, result.Check.Allowed)
	assert.Contains(t, result.Order.RejectReason, "daily loss")
}

func TestSubmitOrder_BreakerTripsAfterHeavyLoss(t *testing.T) {
	limits := domain.DefaultRiskLimits()
	limits.MaxDailyLossUSD = 0
	limits.MaxDailyLossPercent = 0
	limits.CircuitBreakerLossPercent = 0.5
	limits.CoolDownMinutes = 60
	eng, source := newTestEngine(t, limits, map[string]float64{"BTCUSDT": 1000})
	ctx := context.Background()

	buy := buyIntent(10)
	buy.StopLossPrice = 995
	_, err := eng.SubmitOrder(ctx, buy)
	require.NoError(t, err)

	// Realize a loss over 0.5% of equity.
	source.Set("BTCUSDT", 930)
	sell := buy
	sell.Side = domain.SideSell
	_, err = eng.SubmitOrder(ctx, sell)
	require.NoError(t, err)

	assert.True(t, eng.Breaker().Snapshot(time.Now()).Tripped)

	result, err := eng.SubmitOrder(ctx, buyIntent(1))
	require.NoError(t, err)
	assert.False(t, result.Check.Allowed)
}

func TestSubmitOrder_ConcurrentFillsAreSerialized(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := eng.SubmitOrder(ctx, buyIntent(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	positions, err := eng.GetPositions(ctx, testAccount)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, float64(workers), positions[0].Quantity, 1e-9)
	assert.InDelta(t, 100.0, positions[0].AverageEntryPrice, 1e-9)

	trades, err := eng.Trades(ctx, testAccount, time.Time{})
	require.NoError(t, err)
	assert.Len(t, trades, workers)
}

func TestValidateRisk_ReadOnly(t *testing.T) {
	eng, _ := newTestEngine(t, domain.DefaultRiskLimits(), map[string]float64{"BTCUSDT": 100})
	ctx := context.Background()

	check, err := eng.ValidateRisk(ctx, buyIntent(1))
	require.NoError(t, err)
	assert.True(t, check.Allowed)

	orders, err := eng.store.ListOrders(ctx, testAccount, "")
	require.NoError(t, err)
	assert.Empty(t, orders, "validation must not persist anything")
}

func TestNormalizeIntent_Defaults(t *testing.T) {
	intent := domain.OrderIntent{AccountID: "a", Symbol: "BTCUSDT", Side: domain.SideBuy, Quantity: 1}
	require.NoError(t, normalizeIntent(&intent))
	assert.Equal(t, domain.OrderTypeMarket, intent.Type)
	assert.Equal(t, domain.TimeInForceDay, intent.TimeInForce)
}

func TestNormalizeIntent_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		intent domain.OrderIntent
	}{
		{"missing account", domain.OrderIntent{Symbol: "BTCUSDT", Side: domain.SideBuy}},
		{"missing symbol", domain.OrderIntent{AccountID: "a", Side: domain.SideBuy}},
		{"bad side", domain.OrderIntent{AccountID: "a", Symbol: "BTCUSDT", Side: "short"}},
		{"bad type", domain.OrderIntent{AccountID: "a", Symbol: "BTCUSDT", Side: domain.SideBuy, Type: "iceberg"}},
		{"bad tif", domain.OrderIntent{AccountID: "a", Symbol: "BTCUSDT", Side: domain.SideBuy, TimeInForce: "fok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := tt.intent
			assert.Error(t, normalizeIntent(&intent))
		})
	}
}
