package sizing

import "fmt"

// Method selects the position sizing algorithm.
type Method string

const (
	MethodFixedFractional Method = "fixed_fractional"
)

// Recommendation is the output of a sizing calculation.
type Recommendation struct {
	Quantity    float64
	DollarRisk  float64
	PerUnitRisk float64
}

// FixedFractional sizes a position so that hitting the stop loses exactly
// riskPercent of the account.
//
// A zero stop distance is a valid degenerate input (entry == stop, or no
// stop at all) and yields a zero quantity rather than an error; dividing
// through it would produce NaN/Inf.
func FixedFractional(accountSize, riskPercent, entryPrice, stopLossPrice float64) Recommendation {
	rec := Recommendation{}
	if accountSize <= 0 || riskPercent <= 0 || entryPrice <= 0 {
		return rec
	}
	rec.DollarRisk = accountSize * riskPercent / 100
	rec.PerUnitRisk = entryPrice - stopLossPrice
	if rec.PerUnitRisk < 0 {
		rec.PerUnitRisk = -rec.PerUnitRisk
	}
	if stopLossPrice <= 0 || rec.PerUnitRisk == 0 {
		rec.PerUnitRisk = 0
		return rec
	}
	rec.Quantity = rec.DollarRisk / rec.PerUnitRisk
	return rec
}

// CalculatePositionSize dispatches to the configured sizing method.
func CalculatePositionSize(method Method, accountSize, riskPercent, entryPrice, stopLossPrice float64) (Recommendation, error) {
	switch method {
	case MethodFixedFractional, "":
		return FixedFractional(accountSize, riskPercent, entryPrice, stopLossPrice), nil
	default:
		return Recommendation{}, fmt.Errorf("unknown position sizing method: %s", method)
	}
}
