package domain

// RiskLimits is the per-account risk configuration. It is persisted
// externally and consumed read-only by the engine; zero-valued limits are
// disabled unless noted otherwise.
type RiskLimits struct {
	MaxPositionSizePercent    float64 `yaml:"max_position_size_percent" json:"max_position_size_percent"`
	MaxPortfolioRiskPercent   float64 `yaml:"max_portfolio_risk_percent" json:"max_portfolio_risk_percent"`
	MaxDailyLossPercent       float64 `yaml:"max_daily_loss_percent" json:"max_daily_loss_percent"`
	MaxDailyLossUSD           float64 `yaml:"max_daily_loss_usd" json:"max_daily_loss_usd"`
	MaxOpenPositions          int     `yaml:"max_open_positions" json:"max_open_positions"`
	MaxLeverage               float64 `yaml:"max_leverage" json:"max_leverage"`
	RequireStopLoss           bool    `yaml:"require_stop_loss" json:"require_stop_loss"`
	CircuitBreakerLossPercent float64 `yaml:"circuit_breaker_loss_percent" json:"circuit_breaker_loss_percent"`
	CoolDownMinutes           int     `yaml:"cool_down_minutes" json:"cool_down_minutes"`
	MaxCorrelatedPositions    int     `yaml:"max_correlated_positions" json:"max_correlated_positions"`
	MaxOrderSizeUSD           float64 `yaml:"max_order_size_usd" json:"max_order_size_usd"`
	MaxSlippagePercent        float64 `yaml:"max_slippage_percent" json:"max_slippage_percent"`
	MinStopDistancePercent    float64 `yaml:"min_stop_distance_percent" json:"min_stop_distance_percent"`
	MaxStopDistancePercent    float64 `yaml:"max_stop_distance_percent" json:"max_stop_distance_percent"`
}

// DefaultRiskLimits returns the limits applied when no configuration file
// is provided.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSizePercent:    20.0,
		MaxPortfolioRiskPercent:   10.0,
		MaxDailyLossPercent:       5.0,
		MaxDailyLossUSD:           0,
		MaxOpenPositions:          5,
		MaxLeverage:               1.0,
		RequireStopLoss:           false,
		CircuitBreakerLossPercent: 10.0,
		CoolDownMinutes:           60,
		MaxCorrelatedPositions:    3,
		MaxOrderSizeUSD:           25000.0,
		MaxSlippagePercent:        1.0,
		MinStopDistancePercent:    0.5,
		MaxStopDistancePercent:    15.0,
	}
}
