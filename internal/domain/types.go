package domain

import (
	"time"
)

// Side represents the direction of an order or trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType represents how an order is priced and triggered.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// TimeInForce controls how long a non-immediate order stays working.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusExpired   OrderStatus = "expired"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// OrderIntent is the caller's description of an order before it is accepted
// by the engine. Price fields set to zero are treated as unset.
type OrderIntent struct {
	AccountID       string      `json:"account_id"`
	Symbol          string      `json:"symbol"`
	Side            Side        `json:"side"`
	Type            OrderType   `json:"type"`
	Quantity        float64     `json:"quantity"`
	LimitPrice      float64     `json:"limit_price,omitempty"`
	StopPrice       float64     `json:"stop_price,omitempty"`
	StopLossPrice   float64     `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64     `json:"take_profit_price,omitempty"`
	TimeInForce     TimeInForce `json:"time_in_force,omitempty"`
}

// Order is the persisted record of a submitted order.
//
// Invariants: FilledQuantity <= Quantity, and once Status is terminal it
// never changes again.
type Order struct {
	ID               string      `json:"id"`
	AccountID        string      `json:"account_id"`
	Symbol           string      `json:"symbol"`
	Side             Side        `json:"side"`
	Type             OrderType   `json:"type"`
	Quantity         float64     `json:"quantity"`
	LimitPrice       float64     `json:"limit_price,omitempty"`
	StopPrice        float64     `json:"stop_price,omitempty"`
	StopLossPrice    float64     `json:"stop_loss_price,omitempty"`
	TakeProfitPrice  float64     `json:"take_profit_price,omitempty"`
	TimeInForce      TimeInForce `json:"time_in_force"`
	Status           OrderStatus `json:"status"`
	RejectReason     string      `json:"reject_reason,omitempty"`
	FilledQuantity   float64     `json:"filled_quantity"`
	AverageFillPrice float64     `json:"average_fill_price"`
	CreatedAt        time.Time   `json:"created_at"`
	FilledAt         *time.Time  `json:"filled_at,omitempty"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty"`
}

// Position is the authoritative record of an open holding, unique per
// account and symbol. Quantity is always positive; a position whose
// quantity reaches zero is deleted, never stored.
type Position struct {
	AccountID         string    `json:"account_id"`
	Symbol            string    `json:"symbol"`
	Quantity          float64   `json:"quantity"`
	AverageEntryPrice float64   `json:"average_entry_price"`
	TotalCostBasis    float64   `json:"total_cost_basis"`
	StopLossPrice     float64   `json:"stop_loss_price,omitempty"`
	TakeProfitPrice   float64   `json:"take_profit_price,omitempty"`
	OpenedAt          time.Time `json:"opened_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UnrealizedPnL returns the mark-to-market profit at the given price. It is
// derived for display only and never persisted as ground truth.
func (p *Position) UnrealizedPnL(currentPrice float64) float64 {
	return (currentPrice - p.AverageEntryPrice) * p.Quantity
}

// MarketValue returns the notional value of the position at the given price.
func (p *Position) MarketValue(currentPrice float64) float64 {
	return currentPrice * p.Quantity
}

// Trade is an immutable fill record. RealizedPnL is set only on fills that
// reduce or close a position.
type Trade struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	AccountID     string    `json:"account_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	TotalUSD      float64   `json:"total_usd"`
	CommissionUSD float64   `json:"commission_usd"`
	RealizedPnL   float64   `json:"realized_pnl"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// AccountSnapshot is the engine's read-only view of an account at
// validation time.
type AccountSnapshot struct {
	AccountID string  `json:"account_id"`
	Equity    float64 `json:"equity"`
	Cash      float64 `json:"cash"`
}
