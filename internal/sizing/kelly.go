package sizing

// KellyState distinguishes the reasons a Kelly recommendation can be zero.
// Callers that see KellyNegativeEdge should block the strategy outright
// rather than treat it as "size to nothing".
type KellyState string

const (
	KellyOK               KellyState = "ok"
	KellyZeroEdge         KellyState = "zero_edge"
	KellyNegativeEdge     KellyState = "negative_edge"
	KellyInsufficientData KellyState = "insufficient_data"
)

// KellyResult is an advisory sizing suggestion. It is never fed directly
// into order submission.
type KellyResult struct {
	State          KellyState
	Fraction       float64
	HalfFraction   float64
	RecommendedUSD float64
}

// Kelly computes the Kelly criterion fraction for a strategy with the given
// win probability and win/loss payoff ratio, and recommends half-Kelly
// dollar exposure of the account.
func Kelly(accountSize, winProbability, winLossRatio float64) KellyResult {
	if accountSize <= 0 || winProbability <= 0 || winProbability >= 1 || winLossRatio <= 0 {
		return KellyResult{State: KellyInsufficientData}
	}

	fraction := winProbability - (1-winProbability)/winLossRatio
	res := KellyResult{
		Fraction:     fraction,
		HalfFraction: fraction / 2,
	}
	switch {
	case fraction < 0:
		res.State = KellyNegativeEdge
		res.HalfFraction = 0
	case fraction == 0:
		res.State = KellyZeroEdge
	default:
		res.State = KellyOK
		res.RecommendedUSD = accountSize * res.HalfFraction
	}
	return res
}
