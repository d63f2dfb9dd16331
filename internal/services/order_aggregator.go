package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// DefaultRecomputeAttempts is used when the configured attempt count is not positive.
const DefaultRecomputeAttempts = 3

type recomputeScope int

const (
	scopeTotals recomputeScope = 1 << iota
	scopeStatus

	scopeAll = scopeTotals | scopeStatus
)

// orderMutation changes an order's children (and possibly the order itself)
// inside the order's transaction, before the aggregate is recomputed.
type orderMutation func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error

// ComputeOrderTotals applies the totals merge rule: subtotal and service charge
// are derived from the items, taxes and discount are carried through as inputs.
func ComputeOrderTotals(items []models.OrderItem, serviceChargeRate, taxes, discount decimal.Decimal) models.OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal).Add(item.VariationsTotal())
	}
	serviceCharge := subtotal.Mul(serviceChargeRate).Round(2)

	total := subtotal.Add(serviceCharge).Add(taxes).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return models.OrderTotals{
		Subtotal:      subtotal,
		ServiceCharge: serviceCharge,
		Taxes:         taxes,
		Discount:      discount,
		Total:         total,
	}
}

// DeriveOrderStatus classifies a multiset of item statuses. The second return
// value is false when there are no items, in which case the order keeps its status.
func DeriveOrderStatus(statuses []models.ItemStatus) (models.OrderStatus, bool) {
	if len(statuses) == 0 {
		return "", false
	}

	allCancelled, allDelivered, allReadyOrDelivered, anyInKitchen := true, true, true, false
	for _, st := range statuses {
		if st != models.ItemStatusCancelled {
			allCancelled = false
		}
		if st != models.ItemStatusDelivered {
			allDelivered = false
		}
		if st != models.ItemStatusReady && st != models.ItemStatusDelivered {
			allReadyOrDelivered = false
		}
		if st == models.ItemStatusPreparing || st == models.ItemStatusReady {
			anyInKitchen = true
		}
	}

	switch {
	case allCancelled:
		return models.OrderStatusCancelled, true
	case allDelivered:
		return models.OrderStatusDelivered, true
	case allReadyOrDelivered:
		return models.OrderStatusReady, true
	case anyInKitchen:
		return models.OrderStatusPreparing, true
	default:
		return models.OrderStatusOpen, true
	}
}

// applyDerivedStatus folds the derived status into the current one. Paid and
// cancelled orders never move, and a derived open keeps a submitted order submitted.
func applyDerivedStatus(current models.OrderStatus, items []models.OrderItem) models.OrderStatus {
	if current.IsTerminal() {
		return current
	}
	statuses := make([]models.ItemStatus, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, item.Status)
	}
	derived, ok := DeriveOrderStatus(statuses)
	if !ok {
		return current
	}
	if derived == models.OrderStatusOpen && current == models.OrderStatusSubmitted {
		return current
	}
	return derived
}

// OrderAggregator keeps an order's totals and status consistent with its items.
// Every mutation of an order's children goes through mutate, which holds the
// order's in-process lock, runs in one transaction and finishes with a
// compare-and-swap write of the aggregate.
type OrderAggregator struct {
	tx          repositories.TxManager
	orders      repositories.OrderRepository
	items       repositories.OrderItemRepository
	payments    repositories.PaymentRepository
	settings    repositories.SettingRepository
	locks       *keyedLocks
	maxAttempts int
}

// NewOrderAggregator creates an OrderAggregator. maxAttempts bounds the retries on version conflicts.
func NewOrderAggregator(
	tx repositories.TxManager,
	orders repositories.OrderRepository,
	items repositories.OrderItemRepository,
	payments repositories.PaymentRepository,
	settings repositories.SettingRepository,
	maxAttempts int,
) *OrderAggregator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRecomputeAttempts
	}
	return &OrderAggregator{
		tx:          tx,
		orders:      orders,
		items:       items,
		payments:    payments,
		settings:    settings,
		locks:       newKeyedLocks(),
		maxAttempts: maxAttempts,
	}
}

// RecomputeTotals re-derives subtotal, service charge and total from the current items.
func (a *OrderAggregator) RecomputeTotals(ctx context.Context, orderID int64) (*models.Order, error) {
	return a.mutate(ctx, orderID, scopeTotals, nil)
}

// RecomputeStatus re-derives the order status from the current item statuses.
func (a *OrderAggregator) RecomputeStatus(ctx context.Context, orderID int64) (*models.Order, error) {
	return a.mutate(ctx, orderID, scopeStatus, nil)
}

// Recompute re-derives both totals and status.
func (a *OrderAggregator) Recompute(ctx context.Context, orderID int64) (*models.Order, error) {
	return a.mutate(ctx, orderID, scopeAll, nil)
}

// refresh reloads the items of order and recomputes the requested parts of the aggregate in place.
func (a *OrderAggregator) refresh(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, scope recomputeScope) error {
	items, err := a.items.ListByOrder(ctx, executor, order.ID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("loading items of order %d", order.ID))
	}

	if scope&scopeTotals != 0 {
		restaurant, err := a.settings.GetRestaurant(ctx, executor, order.RestaurantID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("restaurant %d", order.RestaurantID))
		}
		order.OrderTotals = ComputeOrderTotals(items, restaurant.ServiceChargeRate, order.Taxes, order.Discount)
	}
	if scope&scopeStatus != 0 {
		order.Status = applyDerivedStatus(order.Status, items)
	}
	order.Items = items
	return nil
}

// reconcilePayments checks the refreshed total against the approved payments.
// A change that would leave the order over-paid is rejected, and an order the
// approved payments now cover exactly is finalized as of at.
func (a *OrderAggregator) reconcilePayments(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, at time.Time) error {
	if order.Status.IsTerminal() {
		return nil
	}
	payments, err := a.payments.ListByOrder(ctx, executor, order.ID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("payments of order %d", order.ID))
	}
	approved := approvedSum(payments, 0)
	switch {
	case approved.GreaterThan(order.Total):
		return fmt.Errorf("%w: order %s total would drop to %s, below the %s already approved",
			ErrValidation, order.Number, order.Total.StringFixed(2), approved.StringFixed(2))
	case approved.IsPositive() && approved.Equal(order.Total):
		return finalizeOrder(order, at)
	}
	return nil
}

func (a *OrderAggregator) mutate(ctx context.Context, orderID int64, scope recomputeScope, fn orderMutation) (*models.Order, error) {
	return a.mutateChecked(ctx, orderID, scope, fn, nil)
}

// mutateChecked is mutate with check run on the refreshed aggregate, before it is written.
func (a *OrderAggregator) mutateChecked(ctx context.Context, orderID int64, scope recomputeScope, fn, check orderMutation) (*models.Order, error) {
	unlock := a.locks.Lock(orderID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		var result *models.Order
		err := a.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
			order, err := a.orders.GetByID(ctx, executor, orderID)
			if err != nil {
				return mapRepoError(err, fmt.Sprintf("order %d", orderID))
			}
			expectedVersion := order.Version
			before, beforeStatus := order.OrderTotals, order.Status

			if fn != nil {
				if err := fn(ctx, executor, order); err != nil {
					return err
				}
			}
			if err := a.refresh(ctx, executor, order, scope); err != nil {
				return err
			}
			if check != nil {
				if err := check(ctx, executor, order); err != nil {
					return err
				}
			}

			if fn == nil && order.OrderTotals.Equal(before) && order.Status == beforeStatus {
				result = order
				return nil
			}
			if err := a.orders.Update(ctx, executor, order, expectedVersion); err != nil {
				return err
			}
			result = order
			return nil
		})
		if err == nil {
			utils.LogDebug("Order recomputed", map[string]interface{}{
				"order_id": orderID, "status": result.Status, "total": result.Total.String(), "version": result.Version,
			})
			return result, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, mapRepoError(err, fmt.Sprintf("updating order %d", orderID))
		}
		lastErr = err
		utils.LogWarn("Order version conflict, retrying", map[string]interface{}{
			"order_id": orderID, "attempt": attempt, "max_attempts": a.maxAttempts,
		})
	}
	return nil, fmt.Errorf("%w: order %d kept changing after %d attempts: %v", ErrConflict, orderID, a.maxAttempts, lastErr)
}
