package services

import (
	"context"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest is the payload for registering a payment against an order.
type ApplyPaymentRequest struct {
	Amount            decimal.Decimal      `json:"amount"`
	Method            models.PaymentMethod `json:"method" binding:"required"`
	Status            models.PaymentStatus `json:"status"` // defaults to pending
	ExternalReference *string              `json:"external_reference"`
}

// UpdatePaymentStatusRequest moves a payment through its state machine.
type UpdatePaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required"`
}

// PaymentResult carries the payment together with the order after reconciliation.
type PaymentResult struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order"`
}

// PaymentService reconciles payments against the order total and drives the
// order into and out of paid.
type PaymentService interface {
	ApplyPayment(ctx context.Context, orderID int64, req ApplyPaymentRequest) (*PaymentResult, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, req UpdatePaymentStatusRequest) (*PaymentResult, error)
	DeletePayment(ctx context.Context, paymentID int64) (*models.Order, error)
	GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error)
	ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error)
}

type paymentService struct {
	aggregator *OrderAggregator
	orders     repositories.OrderRepository
	payments   repositories.PaymentRepository
	now        func() time.Time
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(aggregator *OrderAggregator, orders repositories.OrderRepository, payments repositories.PaymentRepository) PaymentService {
	return &paymentService{
		aggregator: aggregator,
		orders:     orders,
		payments:   payments,
		now:        time.Now,
	}
}

// approvedSum adds up the approved payments, skipping excludeID.
func approvedSum(payments []models.Payment, excludeID int64) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.ID == excludeID {
			continue
		}
		if p.Status == models.PaymentStatusApproved {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// finalizeOrder moves the order to paid and stamps FinalizedAt once.
func finalizeOrder(order *models.Order, at time.Time) error {
	next, ok := order.Status.Apply(models.OrderEventPay)
	if !ok {
		return fmt.Errorf("%w: order %s cannot be paid from '%s'", ErrInvalidStateTransition, order.Number, order.Status)
	}
	order.Status = next
	if order.FinalizedAt == nil {
		order.FinalizedAt = &at
	}
	return nil
}

func (s *paymentService) ApplyPayment(ctx context.Context, orderID int64, req ApplyPaymentRequest) (*PaymentResult, error) {
	if req.Status == "" {
		req.Status = models.PaymentStatusPending
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	}
	if !fitsScale(req.Amount, moneyScale) {
		return nil, fmt.Errorf("%w: payment amount %s has more than %d decimal places", ErrValidation, req.Amount.String(), moneyScale)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method '%s'", ErrValidation, req.Method)
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment status '%s'", ErrValidation, req.Status)
	}

	var created *models.Payment
	order, err := s.aggregator.mutate(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %s is already '%s'", ErrInvalidStateTransition, order.Number, order.Status)
		}

		existing, err := s.payments.ListByOrder(ctx, executor, order.ID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("payments of order %d", order.ID))
		}
		covered := approvedSum(existing, 0).Add(req.Amount)
		if req.Status.IsApprovalEligible() && covered.GreaterThan(order.Total) {
			return fmt.Errorf("%w: payment of %s would exceed order total %s (already approved %s)",
				ErrValidation, req.Amount.StringFixed(2), order.Total.StringFixed(2), approvedSum(existing, 0).StringFixed(2))
		}

		now := s.now()
		payment := &models.Payment{
			OrderID:           order.ID,
			Amount:            req.Amount,
			Method:            req.Method,
			Status:            req.Status,
			ExternalReference: req.ExternalReference,
		}
		if payment.Status == models.PaymentStatusApproved {
			payment.ProcessedAt = &now
		}
		if err := s.payments.Create(ctx, executor, payment); err != nil {
			return mapRepoError(err, "creating payment")
		}
		created = payment

		if payment.Status == models.PaymentStatusApproved && covered.GreaterThanOrEqual(order.Total) {
			return finalizeOrder(order, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusPaid {
		utils.LogInfo("Order paid", map[string]interface{}{"order_id": order.ID, "number": order.Number, "total": order.Total.String()})
	}
	return &PaymentResult{Payment: created, Order: order}, nil
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, paymentID int64, req UpdatePaymentStatusRequest) (*PaymentResult, error) {
	next := req.Status
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment status '%s'", ErrValidation, next)
	}
	current, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
	}

	var updated *models.Payment
	order, err := s.aggregator.mutate(ctx, current.OrderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		payment, err := s.payments.GetByID(ctx, executor, paymentID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
		}
		updated = payment
		if payment.Status == next {
			return nil
		}
		if !payment.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: payment %d cannot move from '%s' to '%s'", ErrInvalidStateTransition, payment.ID, payment.Status, next)
		}

		now := s.now()
		wasApproved := payment.Status == models.PaymentStatusApproved

		if next == models.PaymentStatusApproved {
			if order.Status.IsTerminal() {
				return fmt.Errorf("%w: order %s is already '%s'", ErrInvalidStateTransition, order.Number, order.Status)
			}
			existing, err := s.payments.ListByOrder(ctx, executor, order.ID)
			if err != nil {
				return mapRepoError(err, fmt.Sprintf("payments of order %d", order.ID))
			}
			covered := approvedSum(existing, payment.ID).Add(payment.Amount)
			if covered.GreaterThan(order.Total) {
				return fmt.Errorf("%w: approving %s would exceed order total %s", ErrValidation, payment.Amount.StringFixed(2), order.Total.StringFixed(2))
			}
			payment.Status = next
			payment.ProcessedAt = &now
			if err := s.payments.UpdateStatus(ctx, executor, payment); err != nil {
				return mapRepoError(err, fmt.Sprintf("payment %d", payment.ID))
			}
			if covered.GreaterThanOrEqual(order.Total) {
				return finalizeOrder(order, now)
			}
			return nil
		}

		payment.Status = next
		if wasApproved {
			payment.ProcessedAt = nil
		}
		if err := s.payments.UpdateStatus(ctx, executor, payment); err != nil {
			return mapRepoError(err, fmt.Sprintf("payment %d", payment.ID))
		}
		if wasApproved && order.Status == models.OrderStatusPaid {
			// Re-derived from the items by the aggregator; open stands when there are none.
			order.Status = models.OrderStatusOpen
			order.FinalizedAt = nil
			utils.LogWarn("Paid order reopened by payment reversal", map[string]interface{}{"order_id": order.ID, "payment_id": payment.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: updated, Order: order}, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, paymentID int64) (*models.Order, error) {
	current, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
	}

	return s.aggregator.mutate(ctx, current.OrderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		payment, err := s.payments.GetByID(ctx, executor, paymentID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
		}
		if payment.Status == models.PaymentStatusApproved {
			return fmt.Errorf("%w: approved payment %d must be reversed, not deleted", ErrInvalidStateTransition, payment.ID)
		}
		if err := s.payments.Delete(ctx, executor, paymentID); err != nil {
			return mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
		}
		return nil
	})
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("payment %d", paymentID))
	}
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	if _, err := s.orders.GetByID(ctx, nil, orderID); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("order %d", orderID))
	}
	payments, err := s.payments.ListByOrder(ctx, nil, orderID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("payments of order %d", orderID))
	}
	return payments, nil
}
