// Package ledger owns the arithmetic that turns fills into position state.
// It never touches storage: callers hand in the existing position (or nil)
// and persist whatever comes back.
package ledger

import (
	"math"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

// quantityTolerance absorbs float noise when deciding whether a sell closes
// a position exactly.
const quantityTolerance = 1e-9

// Result describes the position state after a fill has been applied.
// Position is nil when the fill closed the position (or none existed and
// the fill was rejected).
type Result struct {
	Position    *domain.Position
	RealizedPnL float64
	Closed      bool
}

// ApplyFill applies one trade to the existing position for its symbol and
// returns the new position state plus any realized P&L. The input position
// is never mutated; on error the caller's state is untouched.
//
// Cost basis is always carried forward from the stored total, never
// re-derived from the rounded average price, so rounding error does not
// compound across fills.
func ApplyFill(existing *domain.Position, trade domain.Trade) (Result, error) {
	switch trade.Side {
	case domain.SideBuy:
		return applyBuy(existing, trade), nil
	case domain.SideSell:
		return applySell(existing, trade)
	default:
		return Result{}, enginerr.New(enginerr.ErrorCategoryValidation, "ledger", "apply_fill",
			"unknown trade side "+string(trade.Side))
	}
}

func applyBuy(existing *domain.Position, trade domain.Trade) Result {
	if existing == nil {
		pos := &domain.Position{
			AccountID:         trade.AccountID,
			Symbol:            trade.Symbol,
			Quantity:          trade.Quantity,
			AverageEntryPrice: trade.Price,
			TotalCostBasis:    trade.Quantity * trade.Price,
			OpenedAt:          trade.ExecutedAt,
			UpdatedAt:         trade.ExecutedAt,
		}
		return Result{Position: pos}
	}

	next := *existing
	next.Quantity = existing.Quantity + trade.Quantity
	next.TotalCostBasis = existing.TotalCostBasis + trade.Quantity*trade.Price
	next.AverageEntryPrice = next.TotalCostBasis / next.Quantity
	next.UpdatedAt = trade.ExecutedAt
	return Result{Position: &next}
}

func applySell(existing *domain.Position, trade domain.Trade) (Result, error) {
	if existing == nil {
		return Result{}, enginerr.NewStateError("ledger", "apply_fill", enginerr.ErrInsufficientPosition)
	}
	if trade.Quantity > existing.Quantity+quantityTolerance {
		return Result{}, enginerr.NewStateError("ledger", "apply_fill", enginerr.ErrInsufficientPosition)
	}

	realized := (trade.Price - existing.AverageEntryPrice) * trade.Quantity

	if math.Abs(trade.Quantity-existing.Quantity) <= quantityTolerance {
		return Result{RealizedPnL: realized, Closed: true}, nil
	}

	// Partial close: the average entry price of the remainder is unchanged,
	// so the basis shrinks by exactly the closed portion's share.
	next := *existing
	next.Quantity = existing.Quantity - trade.Quantity
	next.TotalCostBasis = existing.TotalCostBasis - existing.AverageEntryPrice*trade.Quantity
	next.UpdatedAt = trade.ExecutedAt
	return Result{Position: &next, RealizedPnL: realized}, nil
}

// RealizedOn returns the P&L a sell of quantity at price would realize
// against the position, without applying anything.
func RealizedOn(pos *domain.Position, quantity, price float64) float64 {
	if pos == nil {
		return 0
	}
	return (price - pos.AverageEntryPrice) * quantity
}
