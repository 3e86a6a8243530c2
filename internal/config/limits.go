package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
)

// LoadRiskLimits reads risk limits from a YAML file. An empty path returns
// the defaults. Fields omitted in the file keep their default values.
func LoadRiskLimits(path string) (domain.RiskLimits, error) {
	limits := domain.DefaultRiskLimits()
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("read risk limits file: %w", err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("parse risk limits file: %w", err)
	}

	if err := validateLimits(limits); err != nil {
		return limits, err
	}
	return limits, nil
}

func validateLimits(l domain.RiskLimits) error {
	if l.MaxPositionSizePercent <= 0 || l.MaxPositionSizePercent > 100 {
		return fmt.Errorf("max_position_size_percent must be in (0, 100], got %.2f", l.MaxPositionSizePercent)
	}
	if l.MaxPortfolioRiskPercent <= 0 || l.MaxPortfolioRiskPercent > 100 {
		return fmt.Errorf("max_portfolio_risk_percent must be in (0, 100], got %.2f", l.MaxPortfolioRiskPercent)
	}
	if l.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive, got %d", l.MaxOpenPositions)
	}
	if l.MaxDailyLossPercent < 0 || l.MaxDailyLossUSD < 0 {
		return fmt.Errorf("daily loss limits must be non-negative")
	}
	return nil
}
