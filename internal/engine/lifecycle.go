package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
	"github.com/takkaros/brave-market-buddy-sub000/pkg/utils"
)

// CancelOrder moves a pending order to cancelled. Terminal orders cannot be
// cancelled; the error names the state that blocked it.
func (e *Engine) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lock := e.accountLock(order.AccountID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent fill may have landed.
	order, err = e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.OrderStatusFilled:
		return nil, enginerr.NewStateError("engine", "cancel_order", enginerr.ErrOrderAlreadyFilled)
	case domain.OrderStatusCancelled:
		return nil, enginerr.NewStateError("engine", "cancel_order", enginerr.ErrOrderAlreadyCancelled)
	case domain.OrderStatusRejected, domain.OrderStatusExpired:
		return nil, enginerr.New(enginerr.ErrorCategoryState, "engine", "cancel_order",
			"order is already "+string(order.Status))
	}

	now := e.now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	if err := e.store.UpdateOrder(ctx, order); err != nil {
		return nil, enginerr.NewExternalError("engine", "cancel_order", err)
	}

	utils.Logger.WithField("order_id", order.ID).Info("Order cancelled")
	go e.notifier.SendAlert("info", fmt.Sprintf("Order %s cancelled (%s %s)", order.ID, order.Side, order.Symbol))
	return order, nil
}

// ExpireStale sweeps the account's pending day orders and expires any whose
// trading day has ended. Returns the orders it expired.
func (e *Engine) ExpireStale(ctx context.Context, accountID string, now time.Time) ([]domain.Order, error) {
	lock := e.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	pending, err := e.store.ListOrders(ctx, accountID, domain.OrderStatusPending)
	if err != nil {
		return nil, enginerr.NewExternalError("engine", "expire_stale", err)
	}

	var expired []domain.Order
	for i := range pending {
		order := pending[i]
		if order.TimeInForce != domain.TimeInForceDay {
			continue
		}
		dayEnd := endOfDay(order.CreatedAt)
		if !now.After(dayEnd) {
			continue
		}

		order.Status = domain.OrderStatusExpired
		if err := e.store.UpdateOrder(ctx, &order); err != nil {
			return expired, enginerr.NewExternalError("engine", "expire_stale", err)
		}
		expired = append(expired, order)
		utils.Logger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"symbol":   order.Symbol,
		}).Info("Day order expired")
	}
	return expired, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
