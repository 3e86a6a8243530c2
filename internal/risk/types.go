package risk

import (
	"time"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	"github.com/takkaros/brave-market-buddy-sub000/internal/safety"
)

// Rule identifies which risk check produced a rejection or warning.
type Rule string

const (
	RuleStopLossRequired Rule = "stop_loss_required"
	RuleInvalidIntent    Rule = "invalid_intent"
	RulePositionSize     Rule = "position_size"
	RulePerTradeRisk     Rule = "per_trade_risk"
	RuleOrderSize        Rule = "order_size"
	RuleOpenPositions    Rule = "open_positions"
	RuleDailyLoss        Rule = "daily_loss"
	RuleCircuitBreaker   Rule = "circuit_breaker"

	WarnRiskReward   Rule = "risk_reward"
	WarnStopDistance Rule = "stop_distance"
	WarnCorrelated   Rule = "correlated_positions"
)

// Warning is a non-blocking advisory attached to an otherwise passing check.
type Warning struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// CalculatedRisk carries the figures computed during validation so the
// caller can display them alongside the verdict.
type CalculatedRisk struct {
	DollarRisk    float64 `json:"dollar_risk"`
	PercentRisk   float64 `json:"percent_risk"`
	PositionValue float64 `json:"position_value"`
}

// Check is the verdict of a risk validation pass. A verdict is only valid
// for the exact inputs it was computed from; any change to quantity, stop,
// symbol, or account state invalidates it and the caller must re-validate.
type Check struct {
	Allowed  bool           `json:"allowed"`
	Rule     Rule           `json:"rule,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Warnings []Warning      `json:"warnings,omitempty"`
	Risk     CalculatedRisk `json:"calculated_risk"`
}

// Input bundles everything Validate needs. EntryPrice is the price the
// order would execute at, resolved by the caller (limit price for limit
// orders, last market price otherwise). It is never defaulted to zero.
type Input struct {
	Intent           domain.OrderIntent
	EntryPrice       float64
	Account          domain.AccountSnapshot
	OpenPositions    []domain.Position
	Limits           domain.RiskLimits
	TodayRealizedPnL float64
	Breaker          safety.BreakerState
	Now              time.Time
}
