// Package store persists orders, positions, and trades. Positions are keyed
// by account+symbol, orders and trades by id.
package store

import (
	"context"
	"time"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
)

// Store is the persistence surface the engine depends on. Lookups for
// missing entities return ErrOrderNotFound / ErrPositionNotFound from the
// errors package.
type Store interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o *domain.Order) error
	// ListOrders returns the account's orders with the given status; an
	// empty status matches all.
	ListOrders(ctx context.Context, accountID string, status domain.OrderStatus) ([]domain.Order, error)

	GetPosition(ctx context.Context, accountID, symbol string) (*domain.Position, error)
	ListPositions(ctx context.Context, accountID string) ([]domain.Position, error)
	SavePosition(ctx context.Context, p *domain.Position) error
	DeletePosition(ctx context.Context, accountID, symbol string) error

	SaveTrade(ctx context.Context, t *domain.Trade) error
	// ListTrades returns the account's trades executed at or after since,
	// oldest first. A zero since returns everything.
	ListTrades(ctx context.Context, accountID string, since time.Time) ([]domain.Trade, error)

	// CommitFill persists a fill all-or-nothing: the order's status change,
	// the trade record, and the position mutation (upsert, or delete when
	// closed is true) either all land or none do.
	CommitFill(ctx context.Context, order *domain.Order, trade *domain.Trade, position *domain.Position, closed bool) error

	Close() error
}
