package services

import (
	"context"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderOfHundred creates an order whose total is exactly 100.
func orderOfHundred(t *testing.T, env *testEnv) *models.Order {
	t.Helper()
	menu := env.addProduct(t, "Tasting menu", "100", false)
	order := env.createOrder(t, env.restaurantID, item(menu, "1"))
	require.True(t, dec("100").Equal(order.Total), "total %s", order.Total)
	return order
}

func pay(amount string, method models.PaymentMethod, status models.PaymentStatus) ApplyPaymentRequest {
	return ApplyPaymentRequest{Amount: dec(amount), Method: method, Status: status}
}

func (e *testEnv) paymentCount(orderID int64) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	n := 0
	for _, p := range e.store.payments {
		if p.OrderID == orderID {
			n++
		}
	}
	return n
}

func TestApplyPaymentRejectsOverPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	first, err := env.payments.ApplyPayment(ctx, order.ID, pay("60", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, first.Order.Status)
	require.NotNil(t, first.Payment.ProcessedAt)
	before := env.storedOrder(t, order.ID)

	_, err = env.payments.ApplyPayment(ctx, order.ID, pay("50", models.PaymentMethodCreditCard, models.PaymentStatusApproved))
	assert.ErrorIs(t, err, ErrValidation)

	after := env.storedOrder(t, order.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Version, after.Version)
	assert.Nil(t, after.FinalizedAt)
	assert.Equal(t, 1, env.paymentCount(order.ID))

	t.Run("pending payments count as approval eligible", func(t *testing.T) {
		_, err := env.payments.ApplyPayment(ctx, order.ID, pay("50", models.PaymentMethodCash, ""))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejected payments are recorded without coverage check", func(t *testing.T) {
		res, err := env.payments.ApplyPayment(ctx, order.ID, pay("50", models.PaymentMethodCash, models.PaymentStatusRejected))
		require.NoError(t, err)
		assert.Nil(t, res.Payment.ProcessedAt)
		assert.Equal(t, models.OrderStatusOpen, res.Order.Status)
	})
}

func TestApplyPaymentFinalizesOnceCovered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	first, err := env.payments.ApplyPayment(ctx, order.ID, pay("60", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, first.Order.Status)
	assert.Nil(t, first.Order.FinalizedAt)

	env.clock.Advance(5 * time.Minute)
	paidAt := env.clock.Now()
	second, err := env.payments.ApplyPayment(ctx, order.ID, pay("40", models.PaymentMethodDebitCard, models.PaymentStatusApproved))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, second.Order.Status)
	require.NotNil(t, second.Order.FinalizedAt)
	assert.True(t, paidAt.Equal(*second.Order.FinalizedAt))

	stored := env.storedOrder(t, order.ID)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.FinalizedAt)
	assert.True(t, paidAt.Equal(*stored.FinalizedAt))

	_, err = env.payments.ApplyPayment(ctx, order.ID, pay("1", models.PaymentMethodCash, models.PaymentStatusApproved))
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = env.items.AddItem(ctx, order.ID, item(order.Items[0].ProductID, "1"))
	assert.ErrorIs(t, err, ErrInvalidStateTransition, "paid orders accept no new items")
}

func TestApplyPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	_, err := env.payments.ApplyPayment(ctx, order.ID, pay("0", models.PaymentMethodCash, ""))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.payments.ApplyPayment(ctx, order.ID, pay("10", "barter", ""))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.payments.ApplyPayment(ctx, order.ID, pay("10", models.PaymentMethodCash, "settled"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.payments.ApplyPayment(ctx, 999, pay("10", models.PaymentMethodCash, ""))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovingPendingPaymentFinalizesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	res, err := env.payments.ApplyPayment(ctx, order.ID, pay("100", models.PaymentMethodPix, ""))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, res.Payment.Status)
	assert.Equal(t, models.OrderStatusOpen, res.Order.Status)

	processing, err := env.payments.UpdatePaymentStatus(ctx, res.Payment.ID, UpdatePaymentStatusRequest{Status: models.PaymentStatusProcessing})
	require.NoError(t, err)
	assert.Nil(t, processing.Payment.ProcessedAt)

	approved, err := env.payments.UpdatePaymentStatus(ctx, res.Payment.ID, UpdatePaymentStatusRequest{Status: models.PaymentStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, approved.Order.Status)
	assert.NotNil(t, approved.Payment.ProcessedAt)
	assert.NotNil(t, approved.Order.FinalizedAt)
}

func TestPaymentReversalRederivesOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)
	itemID := order.Items[0].ID

	for _, st := range []models.ItemStatus{models.ItemStatusPreparing, models.ItemStatusReady} {
		_, err := env.items.UpdateItemStatus(ctx, itemID, UpdateItemStatusRequest{Status: st})
		require.NoError(t, err)
	}
	res, err := env.payments.ApplyPayment(ctx, order.ID, pay("100", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPaid, res.Order.Status)

	reversed, err := env.payments.UpdatePaymentStatus(ctx, res.Payment.ID, UpdatePaymentStatusRequest{Status: models.PaymentStatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, reversed.Order.Status, "status comes from the items, not a fixed fallback")
	assert.Nil(t, reversed.Order.FinalizedAt)
	assert.Nil(t, reversed.Payment.ProcessedAt)
	assert.Equal(t, models.PaymentStatusRejected, reversed.Payment.Status)

	_, err = env.payments.UpdatePaymentStatus(ctx, res.Payment.ID, UpdatePaymentStatusRequest{Status: models.PaymentStatusApproved})
	assert.ErrorIs(t, err, ErrInvalidStateTransition, "rejected is final")

	same, err := env.payments.UpdatePaymentStatus(ctx, res.Payment.ID, UpdatePaymentStatusRequest{Status: models.PaymentStatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, same.Payment.Status)
}

func TestDeletePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	approved, err := env.payments.ApplyPayment(ctx, order.ID, pay("30", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err)
	pending, err := env.payments.ApplyPayment(ctx, order.ID, pay("20", models.PaymentMethodCash, ""))
	require.NoError(t, err)

	_, err = env.payments.DeletePayment(ctx, approved.Payment.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = env.payments.DeletePayment(ctx, pending.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.paymentCount(order.ID))

	_, err = env.payments.DeletePayment(ctx, pending.Payment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := env.payments.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.Payment.ID, list[0].ID)
}

func TestApplyPaymentRejectsFractionalCents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := orderOfHundred(t, env)

	_, err := env.payments.ApplyPayment(ctx, order.ID, pay("33.333", models.PaymentMethodCash, models.PaymentStatusApproved))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, env.paymentCount(order.ID))

	res, err := env.payments.ApplyPayment(ctx, order.ID, pay("33.330", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err, "trailing zeros fit the stored scale")
	assert.True(t, dec("33.33").Equal(res.Payment.Amount))
}
