// Package pricing supplies last-trade prices to the engine. A price that
// cannot be resolved is a hard error: risk math must never run against a
// defaulted zero, which would read as "zero risk".
package pricing

import (
	"context"
)

// Source returns the most recent price for a symbol. Implementations may
// block on I/O; callers pass a context for cancellation.
type Source interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}
