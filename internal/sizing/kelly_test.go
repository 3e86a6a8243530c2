package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKelly_PositiveEdge(t *testing.T) {
	// p=0.6, ratio=2 -> f = 0.6 - 0.4/2 = 0.4
	res := Kelly(10000, 0.6, 2)
	assert.Equal(t, KellyOK, res.State)
	assert.InDelta(t, 0.4, res.Fraction, 1e-9)
	assert.InDelta(t, 0.2, res.HalfFraction, 1e-9)
	assert.InDelta(t, 2000, res.RecommendedUSD, 1e-9)
}

func TestKelly_NegativeEdge(t *testing.T) {
	// p=0.4, ratio=1 -> f = 0.4 - 0.6 = -0.2
	res := Kelly(10000, 0.4, 1)
	assert.Equal(t, KellyNegativeEdge, res.State)
	assert.Less(t, res.Fraction, 0.0)
	assert.Equal(t, 0.0, res.HalfFraction, "negative edge must not recommend exposure")
	assert.Equal(t, 0.0, res.RecommendedUSD)
}

func TestKelly_ZeroEdge(t *testing.T) {
	// p=0.5, ratio=1 -> f = 0
	res := Kelly(10000, 0.5, 1)
	assert.Equal(t, KellyZeroEdge, res.State)
	assert.Equal(t, 0.0, res.RecommendedUSD)
}

func TestKelly_EdgeSignMatchesBreakeven(t *testing.T) {
	// The edge is negative exactly when p < 1/(1+ratio).
	ratios := []float64{0.5, 1, 2, 3}
	probs := []float64{0.1, 0.25, 0.4, 0.5, 0.6, 0.75, 0.9}
	for _, ratio := range ratios {
		breakeven := 1 / (1 + ratio)
		for _, p := range probs {
			res := Kelly(10000, p, ratio)
			if p < breakeven {
				assert.Equal(t, KellyNegativeEdge, res.State,
					"p=%v ratio=%v should be negative edge", p, ratio)
			} else if p > breakeven {
				assert.Equal(t, KellyOK, res.State,
					"p=%v ratio=%v should have positive edge", p, ratio)
			}
		}
	}
}

func TestKelly_MonotonicInWinProbability(t *testing.T) {
	prev := Kelly(10000, 0.35, 2)
	for _, p := range []float64{0.45, 0.55, 0.65, 0.75, 0.85} {
		res := Kelly(10000, p, 2)
		assert.Greater(t, res.Fraction, prev.Fraction,
			"fraction should grow with win probability")
		prev = res
	}
}

func TestKelly_InsufficientData(t *testing.T) {
	assert.Equal(t, KellyInsufficientData, Kelly(0, 0.6, 2).State)
	assert.Equal(t, KellyInsufficientData, Kelly(10000, 0, 2).State)
	assert.Equal(t, KellyInsufficientData, Kelly(10000, 1, 2).State)
	assert.Equal(t, KellyInsufficientData, Kelly(10000, 0.6, 0).State)
}
