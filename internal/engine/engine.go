// Package engine ties validation, sizing, pricing, the ledger, and storage
// into the order submission path. All state changes for one account are
// serialized behind a per-account lock, so a risk verdict and the fill it
// authorizes always see the same account state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
	"github.com/takkaros/brave-market-buddy-sub000/internal/ledger"
	"github.com/takkaros/brave-market-buddy-sub000/internal/monitoring"
	"github.com/takkaros/brave-market-buddy-sub000/internal/notifications"
	"github.com/takkaros/brave-market-buddy-sub000/internal/pricing"
	"github.com/takkaros/brave-market-buddy-sub000/internal/risk"
	"github.com/takkaros/brave-market-buddy-sub000/internal/safety"
	"github.com/takkaros/brave-market-buddy-sub000/internal/store"
	"github.com/takkaros/brave-market-buddy-sub000/pkg/utils"
)

// commissionRate is the flat commission charged on every fill, as a
// fraction of notional.
const commissionRate = 0.001

// Engine owns the order lifecycle for simulated trading.
type Engine struct {
	store     store.Store
	prices    pricing.Source
	accounts  AccountSource
	validator *risk.Validator
	breaker   *safety.LossBreaker
	limits    domain.RiskLimits
	notifier  notifications.Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	health *monitoring.HealthChecker

	now func() time.Time
}

// NewEngine creates an Engine. A nil notifier disables notifications.
func NewEngine(st store.Store, prices pricing.Source, accounts AccountSource, limits domain.RiskLimits, notifier notifications.Notifier) *Engine {
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}
	breaker := safety.NewLossBreaker(limits.CircuitBreakerLossPercent,
		time.Duration(limits.CoolDownMinutes)*time.Minute)

	e := &Engine{
		store:     st,
		prices:    prices,
		accounts:  accounts,
		validator: risk.NewValidator(),
		breaker:   breaker,
		limits:    limits,
		notifier:  notifier,
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
	breaker.SetStateChangeCallback(func(tripped bool) {
		monitoring.SetBreakerTripped(tripped)
		if h := e.health; h != nil {
			h.SetBreakerTripped(tripped)
		}
	})
	return e
}

// SetHealthChecker mirrors fills, store reachability, and breaker state into
// the health endpoint. Wire it before serving traffic.
func (e *Engine) SetHealthChecker(h *monitoring.HealthChecker) {
	e.health = h
}

// Breaker exposes the engine's circuit breaker for manual resets.
func (e *Engine) Breaker() *safety.LossBreaker {
	return e.breaker
}

// OrderResult is the outcome of a submission: the persisted order, the risk
// verdict, and the trade and position when a fill occurred.
type OrderResult struct {
	Order    domain.Order     `json:"order"`
	Check    *risk.Check      `json:"check"`
	Trade    *domain.Trade    `json:"trade,omitempty"`
	Position *domain.Position `json:"position,omitempty"`
}

// SubmitOrder validates an intent and, when accepted, persists the order.
// Market orders fill synchronously at the last price; limit and stop orders
// rest as pending. A risk rejection is a normal outcome carried in the
// result, not an error.
func (e *Engine) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (*OrderResult, error) {
	if err := normalizeIntent(&intent); err != nil {
		return nil, err
	}

	lock := e.accountLock(intent.AccountID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	entryPrice, err := e.resolveEntryPrice(ctx, intent)
	if err != nil {
		monitoring.RecordError(string(enginerr.CategoryOf(err)))
		return nil, err
	}

	snapshot, positions, todayPnL, err := e.gatherState(ctx, intent.AccountID, now)
	if err != nil {
		return nil, err
	}

	check := e.validator.Validate(risk.Input{
		Intent:           intent,
		EntryPrice:       entryPrice,
		Account:          snapshot,
		OpenPositions:    positions,
		Limits:           e.limits,
		TodayRealizedPnL: todayPnL,
		Breaker:          e.breaker.Snapshot(now),
		Now:              now,
	})

	order := newOrder(intent, now)
	monitoring.RecordOrderSubmitted(order.Symbol, string(order.Side))

	if !check.Allowed {
		order.Status = domain.OrderStatusRejected
		order.RejectReason = check.Reason
		if err := e.store.SaveOrder(ctx, &order); err != nil {
			return nil, enginerr.NewExternalError("engine", "submit_order", err)
		}
		monitoring.RecordOrderRejected(string(check.Rule))
		utils.Logger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"symbol":   order.Symbol,
			"rule":     check.Rule,
			"reason":   check.Reason,
		}).Warn("Order rejected by risk validation")
		go e.notifier.SendAlert("warning", fmt.Sprintf("Order rejected (%s): %s", check.Rule, check.Reason))
		return &OrderResult{Order: order, Check: check}, nil
	}

	if err := e.store.SaveOrder(ctx, &order); err != nil {
		return nil, enginerr.NewExternalError("engine", "submit_order", err)
	}

	result := &OrderResult{Order: order, Check: check}
	if order.Type == domain.OrderTypeMarket {
		if err := e.fill(ctx, result, entryPrice, todayPnL, snapshot.Equity, now); err != nil {
			return nil, err
		}
	}

	utils.LogOrderResult(order.ID, string(result.Order.Status), "")
	return result, nil
}

// fill executes a simulated fill at price and commits it atomically. The
// caller holds the account lock.
func (e *Engine) fill(ctx context.Context, result *OrderResult, price, todayPnL, equity float64, now time.Time) error {
	order := &result.Order

	existing, err := e.store.GetPosition(ctx, order.AccountID, order.Symbol)
	if err != nil && !errors.Is(err, enginerr.ErrPositionNotFound) {
		return enginerr.NewExternalError("engine", "fill", err)
	}

	notional := order.Quantity * price
	trade := domain.Trade{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		AccountID:     order.AccountID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Quantity:      order.Quantity,
		Price:         price,
		TotalUSD:      notional,
		CommissionUSD: notional * commissionRate,
		ExecutedAt:    now,
	}

	applied, err := ledger.ApplyFill(existing, trade)
	if err != nil {
		// The fill can never apply to this account state, so the order must
		// not rest as pending. Persist the terminal status before erroring.
		order.Status = domain.OrderStatusRejected
		order.RejectReason = rejectReason(err)
		if uerr := e.store.UpdateOrder(ctx, order); uerr != nil {
			utils.LogError(enginerr.NewExternalError("engine", "fill", uerr))
		}
		monitoring.RecordError(string(enginerr.CategoryOf(err)))
		utils.Logger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"symbol":   order.Symbol,
			"reason":   order.RejectReason,
		}).Error("Fill rejected by position ledger")
		return err
	}
	trade.RealizedPnL = applied.RealizedPnL

	if applied.Position != nil {
		if order.StopLossPrice > 0 {
			applied.Position.StopLossPrice = order.StopLossPrice
		}
		if order.TakeProfitPrice > 0 {
			applied.Position.TakeProfitPrice = order.TakeProfitPrice
		}
	}

	order.Status = domain.OrderStatusFilled
	order.FilledQuantity = order.Quantity
	order.AverageFillPrice = price
	order.FilledAt = &now

	if err := e.store.CommitFill(ctx, order, &trade, applied.Position, applied.Closed); err != nil {
		// Roll the in-memory order back so the caller never sees a filled
		// order that was not persisted.
		order.Status = domain.OrderStatusPending
		order.FilledQuantity = 0
		order.AverageFillPrice = 0
		order.FilledAt = nil
		monitoring.RecordError(string(enginerr.ErrorCategoryExternal))
		if e.health != nil {
			e.health.SetStoreReachable(false)
			e.health.RecordFailure(err.Error())
		}
		return enginerr.NewExternalError("engine", "fill", err)
	}
	if e.health != nil {
		e.health.SetStoreReachable(true)
		e.health.RecordFill(price)
	}

	if err := e.accounts.ApplyTrade(ctx, trade); err != nil {
		// The fill is already committed; the cash snapshot lags until the
		// next successful ApplyTrade. Surface the failure, never unwind.
		utils.LogError(err)
		if e.health != nil {
			e.health.RecordFailure(err.Error())
		}
	}

	result.Trade = &trade
	result.Position = applied.Position

	netPnL := trade.RealizedPnL - trade.CommissionUSD
	if e.breaker.Observe(todayPnL+netPnL, equity, now) {
		msg := fmt.Sprintf("Circuit breaker tripped for account %s: daily loss limit breached", order.AccountID)
		utils.Logger.WithField("account_id", order.AccountID).Error(msg)
		go e.notifier.SendAlert("error", msg)
	}

	monitoring.RecordFill(trade.Symbol, string(trade.Side), trade.TotalUSD, trade.CommissionUSD)
	if trade.RealizedPnL != 0 {
		monitoring.RecordRealizedPnL(trade.Symbol, trade.RealizedPnL)
	}
	if positions, err := e.store.ListPositions(ctx, order.AccountID); err == nil {
		monitoring.SetOpenPositions(len(positions))
	}

	go e.notifier.SendAlert("success", fmt.Sprintf("%s %s %.8g %s @ %.2f",
		order.AccountID, trade.Side, trade.Quantity, trade.Symbol, trade.Price))

	return nil
}

// ValidateRisk runs the risk checks for an intent without persisting
// anything. The verdict is informational; submission re-validates.
func (e *Engine) ValidateRisk(ctx context.Context, intent domain.OrderIntent) (*risk.Check, error) {
	if err := normalizeIntent(&intent); err != nil {
		return nil, err
	}

	now := e.now()
	entryPrice, err := e.resolveEntryPrice(ctx, intent)
	if err != nil {
		return nil, err
	}
	snapshot, positions, todayPnL, err := e.gatherState(ctx, intent.AccountID, now)
	if err != nil {
		return nil, err
	}

	return e.validator.Validate(risk.Input{
		Intent:           intent,
		EntryPrice:       entryPrice,
		Account:          snapshot,
		OpenPositions:    positions,
		Limits:           e.limits,
		TodayRealizedPnL: todayPnL,
		Breaker:          e.breaker.Snapshot(now),
		Now:              now,
	}), nil
}

// GetOrder returns an order by id.
func (e *Engine) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return e.store.GetOrder(ctx, id)
}

// GetPositions returns the account's open positions.
func (e *Engine) GetPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	return e.store.ListPositions(ctx, accountID)
}

// Trades returns the account's trades executed at or after since, oldest
// first.
func (e *Engine) Trades(ctx context.Context, accountID string, since time.Time) ([]domain.Trade, error) {
	return e.store.ListTrades(ctx, accountID, since)
}

// resolveEntryPrice returns the price an order would execute at. Limit-type
// orders use their limit price; market-type orders use the last traded
// price. Failure to resolve is a hard error: nothing ever defaults to zero.
func (e *Engine) resolveEntryPrice(ctx context.Context, intent domain.OrderIntent) (float64, error) {
	switch intent.Type {
	case domain.OrderTypeLimit, domain.OrderTypeStopLimit:
		if intent.LimitPrice <= 0 {
			return 0, enginerr.New(enginerr.ErrorCategoryValidation, "engine", "resolve_price",
				fmt.Sprintf("%s order requires a positive limit price", intent.Type))
		}
		return intent.LimitPrice, nil
	default:
		price, err := e.prices.LastPrice(ctx, intent.Symbol)
		if err != nil {
			return 0, err
		}
		return price, nil
	}
}

// gatherState collects the account snapshot, open positions, and today's
// realized P&L net of commissions.
func (e *Engine) gatherState(ctx context.Context, accountID string, now time.Time) (domain.AccountSnapshot, []domain.Position, float64, error) {
	snapshot, err := e.accounts.Snapshot(ctx, accountID)
	if err != nil {
		return domain.AccountSnapshot{}, nil, 0, err
	}
	positions, err := e.store.ListPositions(ctx, accountID)
	if err != nil {
		return domain.AccountSnapshot{}, nil, 0, enginerr.NewExternalError("engine", "gather_state", err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	trades, err := e.store.ListTrades(ctx, accountID, midnight)
	if err != nil {
		return domain.AccountSnapshot{}, nil, 0, enginerr.NewExternalError("engine", "gather_state", err)
	}
	var todayPnL float64
	for i := range trades {
		todayPnL += trades[i].RealizedPnL - trades[i].CommissionUSD
	}

	return snapshot, positions, todayPnL, nil
}

// rejectReason strips the category wrapper so the stored reason reads like
// the sentinel, not the log line.
func rejectReason(err error) string {
	var ee *enginerr.EngineError
	if errors.As(err, &ee) && ee.Underlying != nil {
		return ee.Underlying.Error()
	}
	return err.Error()
}

func (e *Engine) accountLock(accountID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[accountID] = lock
	}
	return lock
}

func newOrder(intent domain.OrderIntent, now time.Time) domain.Order {
	return domain.Order{
		ID:              uuid.NewString(),
		AccountID:       intent.AccountID,
		Symbol:          intent.Symbol,
		Side:            intent.Side,
		Type:            intent.Type,
		Quantity:        intent.Quantity,
		LimitPrice:      intent.LimitPrice,
		StopPrice:       intent.StopPrice,
		StopLossPrice:   intent.StopLossPrice,
		TakeProfitPrice: intent.TakeProfitPrice,
		TimeInForce:     intent.TimeInForce,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
	}
}

// normalizeIntent applies defaults and rejects structurally invalid intents
// before any account state is consulted.
func normalizeIntent(intent *domain.OrderIntent) error {
	if intent.AccountID == "" {
		return enginerr.New(enginerr.ErrorCategoryValidation, "engine", "normalize_intent",
			"account id is required")
	}
	if intent.Symbol == "" {
		return enginerr.New(enginerr.ErrorCategoryValidation, "engine", "normalize_intent",
			"symbol is required")
	}
	switch intent.Side {
	case domain.SideBuy, domain.SideSell:
	default:
		return enginerr.New(enginerr.ErrorCategoryValidation, "engine", "normalize_intent",
			fmt.Sprintf("unknown side %q", intent.Side))
	}
	if intent.Type == "" {
		intent.Type = domain.OrderTypeMarket
	}
	switch intent.Type {
	case domain.OrderTypeMarket, domain.OrderTypeLimit, domain.OrderTypeStop, domain.OrderTypeStopLimit:
	default:
		return enginerr.New(enginerr.ErrorCategoryValidation, "engine", "normalize_intent",
			fmt.Sprintf("unknown order type %q", intent.Type))
	}
	if intent.TimeInForce == "" {
		intent.TimeInForce = domain.TimeInForceDay
	}
	switch intent.TimeInForce {
	case domain.TimeInForceDay, domain.TimeInForceGTC:
	default:
		return enginerr.New(enginerr.ErrorCategoryValidation, "engine", "normalize_intent",
			fmt.Sprintf("unknown time in force %q", intent.TimeInForce))
	}
	return nil
}
