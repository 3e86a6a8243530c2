package risk

import (
	"fmt"
	"math"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
)

// defaultPerTradeRiskPercent applies when no portfolio risk budget is
// configured to derive a per-trade ceiling from.
const defaultPerTradeRiskPercent = 2.0

// Validator evaluates order intents against configured risk limits. It is
// stateless and side-effect free: the same Input always produces the same
// Check, and nothing is cached between calls. Callers must re-validate on
// every change to the intent or account state and must never submit against
// a stale verdict.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs the hard checks in order, short-circuiting on the first
// failure, then attaches soft warnings to a passing verdict.
func (v *Validator) Validate(in Input) *Check {
	check := &Check{Allowed: true}

	intent := in.Intent
	limits := in.Limits

	// 1. Stop-loss requirement. Evaluated first, independent of every other
	// input.
	if limits.RequireStopLoss && intent.StopLossPrice <= 0 {
		return reject(check, RuleStopLossRequired, "a stop-loss price is required on every order")
	}

	if intent.Quantity <= 0 {
		return reject(check, RuleInvalidIntent, fmt.Sprintf("quantity must be positive, got %v", intent.Quantity))
	}
	if in.EntryPrice <= 0 {
		return reject(check, RuleInvalidIntent, fmt.Sprintf("entry price must be positive, got %v", in.EntryPrice))
	}

	check.Risk.PositionValue = intent.Quantity * in.EntryPrice
	if intent.StopLossPrice > 0 {
		check.Risk.DollarRisk = intent.Quantity * math.Abs(in.EntryPrice-intent.StopLossPrice)
	}
	if in.Account.Equity > 0 {
		check.Risk.PercentRisk = check.Risk.DollarRisk / in.Account.Equity * 100
	}

	// 2. Position size as a fraction of account equity.
	if limits.MaxPositionSizePercent > 0 && in.Account.Equity > 0 {
		pct := check.Risk.PositionValue / in.Account.Equity * 100
		if pct > limits.MaxPositionSizePercent {
			return reject(check, RulePositionSize,
				fmt.Sprintf("position value $%.2f is %.1f%% of account, limit %.1f%%",
					check.Risk.PositionValue, pct, limits.MaxPositionSizePercent))
		}
	}

	// 3. Per-trade dollar risk against the derived ceiling.
	ceiling := defaultPerTradeRiskPercent
	if limits.MaxPortfolioRiskPercent > 0 && limits.MaxOpenPositions > 0 {
		ceiling = limits.MaxPortfolioRiskPercent / float64(limits.MaxOpenPositions)
	}
	if in.Account.Equity > 0 && check.Risk.PercentRisk > ceiling {
		return reject(check, RulePerTradeRisk,
			fmt.Sprintf("trade risks %.2f%% of account ($%.2f), per-trade ceiling is %.2f%%",
				check.Risk.PercentRisk, check.Risk.DollarRisk, ceiling))
	}

	// 4. Absolute order notional.
	if limits.MaxOrderSizeUSD > 0 && check.Risk.PositionValue > limits.MaxOrderSizeUSD {
		return reject(check, RuleOrderSize,
			fmt.Sprintf("order value $%.2f exceeds maximum $%.2f",
				check.Risk.PositionValue, limits.MaxOrderSizeUSD))
	}

	// 5. Open position count, only when the order would open a new symbol.
	if limits.MaxOpenPositions > 0 && intent.Side == domain.SideBuy && !holdsSymbol(in.OpenPositions, intent.Symbol) {
		if len(in.OpenPositions) >= limits.MaxOpenPositions {
			return reject(check, RuleOpenPositions,
				fmt.Sprintf("already holding %d positions, limit %d",
					len(in.OpenPositions), limits.MaxOpenPositions))
		}
	}

	// 6. Daily loss limits against realized P&L so far today.
	if limits.MaxDailyLossUSD > 0 && -in.TodayRealizedPnL >= limits.MaxDailyLossUSD {
		return reject(check, RuleDailyLoss,
			fmt.Sprintf("daily loss $%.2f has reached the $%.2f limit",
				-in.TodayRealizedPnL, limits.MaxDailyLossUSD))
	}
	if limits.MaxDailyLossPercent > 0 && in.Account.Equity > 0 {
		lossLimit := limits.MaxDailyLossPercent / 100 * in.Account.Equity
		if -in.TodayRealizedPnL >= lossLimit {
			return reject(check, RuleDailyLoss,
				fmt.Sprintf("daily loss $%.2f has reached %.1f%% of account ($%.2f)",
					-in.TodayRealizedPnL, limits.MaxDailyLossPercent, lossLimit))
		}
	}

	// 7. Circuit breaker cool-down.
	if limits.CircuitBreakerLossPercent > 0 && in.Breaker.Tripped && in.Now.Before(in.Breaker.CoolDownUntil) {
		return reject(check, RuleCircuitBreaker,
			fmt.Sprintf("circuit breaker tripped, trading halted until %s",
				in.Breaker.CoolDownUntil.Format("15:04:05")))
	}

	v.appendWarnings(check, in)
	return check
}

func reject(check *Check, rule Rule, reason string) *Check {
	check.Allowed = false
	check.Rule = rule
	check.Reason = reason
	return check
}

func (v *Validator) appendWarnings(check *Check, in Input) {
	intent := in.Intent
	limits := in.Limits

	if intent.StopLossPrice > 0 && intent.TakeProfitPrice > 0 {
		riskPerUnit := math.Abs(in.EntryPrice - intent.StopLossPrice)
		rewardPerUnit := math.Abs(intent.TakeProfitPrice - in.EntryPrice)
		if riskPerUnit > 0 && rewardPerUnit/riskPerUnit < 2 {
			check.Warnings = append(check.Warnings, Warning{
				Rule: WarnRiskReward,
				Message: fmt.Sprintf("risk/reward %.2f:1 is below 2:1",
					rewardPerUnit/riskPerUnit),
			})
		}
	}

	if intent.StopLossPrice > 0 && in.EntryPrice > 0 {
		distPct := math.Abs(in.EntryPrice-intent.StopLossPrice) / in.EntryPrice * 100
		if limits.MinStopDistancePercent > 0 && distPct < limits.MinStopDistancePercent {
			check.Warnings = append(check.Warnings, Warning{
				Rule: WarnStopDistance,
				Message: fmt.Sprintf("stop distance %.2f%% is below the %.2f%% minimum",
					distPct, limits.MinStopDistancePercent),
			})
		}
		if limits.MaxStopDistancePercent > 0 && distPct > limits.MaxStopDistancePercent {
			check.Warnings = append(check.Warnings, Warning{
				Rule: WarnStopDistance,
				Message: fmt.Sprintf("stop distance %.2f%% is above the %.2f%% maximum",
					distPct, limits.MaxStopDistancePercent),
			})
		}
	}

	if limits.MaxCorrelatedPositions > 0 && intent.Side == domain.SideBuy && !holdsSymbol(in.OpenPositions, intent.Symbol) {
		if len(in.OpenPositions)+1 >= limits.MaxCorrelatedPositions {
			check.Warnings = append(check.Warnings, Warning{
				Rule: WarnCorrelated,
				Message: fmt.Sprintf("%d open positions approaches the correlated-position limit of %d",
					len(in.OpenPositions)+1, limits.MaxCorrelatedPositions),
			})
		}
	}
}

func holdsSymbol(positions []domain.Position, symbol string) bool {
	for i := range positions {
		if positions[i].Symbol == symbol {
			return true
		}
	}
	return false
}
