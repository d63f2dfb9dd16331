package services

import (
	"context"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paidOrder creates and fully pays an order of the given amount with one method.
func paidOrder(t *testing.T, env *testEnv, amount string, method models.PaymentMethod) *models.Order {
	t.Helper()
	p := env.addProduct(t, "Dish "+amount, amount, false)
	order := env.createOrder(t, env.restaurantID, item(p, "1"))
	res, err := env.payments.ApplyPayment(context.Background(), order.ID, pay(amount, method, models.PaymentStatusApproved))
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPaid, res.Order.Status)
	return res.Order
}

func TestCloseShiftComputesVariance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	paidOrder(t, env, "999", models.PaymentMethodCash) // before the shift opened
	env.clock.Advance(time.Minute)

	shift, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusOpen, shift.Status)

	env.clock.Advance(time.Hour)
	paidOrder(t, env, "120", models.PaymentMethodCash)
	paidOrder(t, env, "30", models.PaymentMethodCreditCard)
	paidOrder(t, env, "15", models.PaymentMethodVoucher)

	// Still open: not part of the reconciliation.
	soup := env.addProduct(t, "Soup", "8", false)
	open := env.createOrder(t, env.restaurantID, item(soup, "1"))
	_, err = env.payments.ApplyPayment(ctx, open.ID, pay("5", models.PaymentMethodCash, models.PaymentStatusApproved))
	require.NoError(t, err)

	preview, err := env.shifts.PreviewShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.OrderCount)
	assert.True(t, dec("170").Equal(preview.ExpectedCash))
	assert.False(t, preview.Variance.Valid)

	env.clock.Advance(time.Hour)
	closed, err := env.shifts.CloseShift(ctx, shift.ID, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("165"))})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusClosed, closed.Status)
	assert.True(t, dec("120").Equal(closed.CashTotal), "cash %s", closed.CashTotal)
	assert.True(t, dec("30").Equal(closed.CardTotal))
	assert.True(t, dec("15").Equal(closed.OtherTotal))
	assert.True(t, dec("170").Equal(closed.ExpectedCash.Decimal))
	assert.True(t, dec("-5").Equal(closed.Variance.Decimal), "variance %s", closed.Variance.Decimal)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, env.clock.Now().Equal(*closed.ClosedAt))

	_, err = env.shifts.CloseShift(ctx, shift.ID, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("165"))})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	after, err := env.shifts.PreviewShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.True(t, dec("-5").Equal(after.Variance.Decimal))
	assert.True(t, dec("165").Equal(after.ClosingAmount.Decimal))
}

func TestOpenShift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("50.005")})
	assert.ErrorIs(t, err, ErrValidation)

	first, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("20")})
	require.NoError(t, err)
	require.NotNil(t, first.StaffMember)

	_, err = env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("20")})
	assert.ErrorIs(t, err, ErrConflict, "one open shift per staff member")

	_, err = env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: 999})
	assert.ErrorIs(t, err, ErrNotFound)

	env.store.mu.Lock()
	formerID := env.store.id()
	env.store.staff[formerID] = models.StaffMember{ID: formerID, FullName: "Former", Active: false}
	env.store.mu.Unlock()
	_, err = env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: formerID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.shifts.CloseShift(ctx, first.ID, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("20"))})
	require.NoError(t, err)
	_, err = env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID, OpeningFloat: dec("20")})
	assert.NoError(t, err, "a new shift may open once the previous one is closed")
}

func TestCloseShiftValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shift, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID})
	require.NoError(t, err)

	_, err = env.shifts.CloseShift(ctx, shift.ID, CloseShiftRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.shifts.CloseShift(ctx, shift.ID, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("-3"))})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.shifts.CloseShift(ctx, 999, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("3"))})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteShift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	idle, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID})
	require.NoError(t, err)
	require.NoError(t, env.shifts.DeleteShift(ctx, idle.ID))
	_, err = env.shifts.GetShift(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	busy, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	paidOrder(t, env, "10", models.PaymentMethodCash)
	assert.ErrorIs(t, env.shifts.DeleteShift(ctx, busy.ID), ErrInvalidStateTransition)

	_, err = env.shifts.CloseShift(ctx, busy.ID, CloseShiftRequest{ClosingAmount: decimal.NewNullDecimal(dec("10"))})
	require.NoError(t, err)
	assert.ErrorIs(t, env.shifts.DeleteShift(ctx, busy.ID), ErrInvalidStateTransition)
}

func TestListShifts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.shifts.OpenShift(ctx, OpenShiftRequest{StaffID: env.cashierID})
	require.NoError(t, err)

	open := string(models.ShiftStatusOpen)
	shifts, err := env.shifts.ListShifts(ctx, models.ShiftFilters{Status: &open})
	require.NoError(t, err)
	assert.Len(t, shifts, 1)

	bogus := "paused"
	_, err = env.shifts.ListShifts(ctx, models.ShiftFilters{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}
