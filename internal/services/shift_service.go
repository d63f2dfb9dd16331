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

// OpenShiftRequest is used for opening a cashier shift.
type OpenShiftRequest struct {
	StaffID      int64           `json:"staff_id" binding:"required"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	Notes        *string         `json:"notes"`
}

// CloseShiftRequest carries the counted cash in the drawer.
type CloseShiftRequest struct {
	ClosingAmount decimal.NullDecimal `json:"closing_amount"`
}

// ShiftService opens, reconciles and closes cashier shifts.
type ShiftService interface {
	OpenShift(ctx context.Context, req OpenShiftRequest) (*models.Shift, error)
	CloseShift(ctx context.Context, shiftID int64, req CloseShiftRequest) (*models.Shift, error)
	PreviewShift(ctx context.Context, shiftID int64) (*models.ShiftReconciliation, error)
	GetShift(ctx context.Context, shiftID int64) (*models.Shift, error)
	ListShifts(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, error)
	DeleteShift(ctx context.Context, shiftID int64) error
}

type shiftService struct {
	tx       repositories.TxManager
	staff    repositories.StaffRepository
	orders   repositories.OrderRepository
	payments repositories.PaymentRepository
	now      func() time.Time
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(
	tx repositories.TxManager,
	staff repositories.StaffRepository,
	orders repositories.OrderRepository,
	payments repositories.PaymentRepository,
) ShiftService {
	return &shiftService{
		tx:       tx,
		staff:    staff,
		orders:   orders,
		payments: payments,
		now:      time.Now,
	}
}

func (s *shiftService) OpenShift(ctx context.Context, req OpenShiftRequest) (*models.Shift, error) {
	if req.OpeningFloat.IsNegative() {
		return nil, fmt.Errorf("%w: opening float must not be negative", ErrValidation)
	}
	if !fitsScale(req.OpeningFloat, moneyScale) {
		return nil, fmt.Errorf("%w: opening float has more than %d decimal places", ErrValidation, moneyScale)
	}

	shift := &models.Shift{
		StaffID:      req.StaffID,
		OpeningFloat: req.OpeningFloat,
		CashTotal:    decimal.Zero,
		CardTotal:    decimal.Zero,
		OtherTotal:   decimal.Zero,
		Status:       models.ShiftStatusOpen,
		Notes:        req.Notes,
		OpenedAt:     s.now(),
	}

	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		staff, err := s.staff.GetStaffMemberByID(ctx, executor, req.StaffID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("staff member %d", req.StaffID))
		}
		if !staff.Active {
			return fmt.Errorf("%w: staff member %d is not active", ErrValidation, staff.ID)
		}

		open, err := s.staff.FindOpenShiftByStaff(ctx, executor, req.StaffID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return mapRepoError(err, "checking open shifts")
		}
		if open != nil {
			return fmt.Errorf("%w: staff member %d already has open shift %d", ErrConflict, req.StaffID, open.ID)
		}

		if err := s.staff.CreateShift(ctx, executor, shift); err != nil {
			return mapRepoError(err, "opening shift")
		}
		shift.StaffMember = staff
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Shift opened", map[string]interface{}{"shift_id": shift.ID, "staff_id": shift.StaffID})
	return shift, nil
}

// reconcile sums the approved payments of paid orders finalized inside [shift.OpenedAt, until].
func (s *shiftService) reconcile(ctx context.Context, executor repositories.SQLExecutor, shift *models.Shift, until time.Time) (*models.ShiftReconciliation, error) {
	orders, err := s.orders.ListPaidFinalizedBetween(ctx, executor, shift.OpenedAt, until)
	if err != nil {
		return nil, mapRepoError(err, "loading finalized orders")
	}
	orderIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}
	payments, err := s.payments.ListByOrders(ctx, executor, orderIDs)
	if err != nil {
		return nil, mapRepoError(err, "loading shift payments")
	}

	rec := &models.ShiftReconciliation{
		ShiftID:      shift.ID,
		WindowStart:  shift.OpenedAt,
		WindowEnd:    until,
		OrderCount:   len(orders),
		OpeningFloat: shift.OpeningFloat,
		CashTotal:    decimal.Zero,
		CardTotal:    decimal.Zero,
		OtherTotal:   decimal.Zero,
	}
	for _, p := range payments {
		if p.Status != models.PaymentStatusApproved {
			continue
		}
		switch p.Method.Bucket() {
		case models.TenderCash:
			rec.CashTotal = rec.CashTotal.Add(p.Amount)
		case models.TenderCard:
			rec.CardTotal = rec.CardTotal.Add(p.Amount)
		default:
			rec.OtherTotal = rec.OtherTotal.Add(p.Amount)
		}
	}
	rec.ExpectedCash = rec.OpeningFloat.Add(rec.CashTotal)
	return rec, nil
}

func (s *shiftService) CloseShift(ctx context.Context, shiftID int64, req CloseShiftRequest) (*models.Shift, error) {
	if !req.ClosingAmount.Valid {
		return nil, fmt.Errorf("%w: closing_amount is required", ErrValidation)
	}
	if req.ClosingAmount.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: closing amount must not be negative", ErrValidation)
	}
	if !fitsScale(req.ClosingAmount.Decimal, moneyScale) {
		return nil, fmt.Errorf("%w: closing amount has more than %d decimal places", ErrValidation, moneyScale)
	}

	var closed *models.Shift
	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		shift, err := s.staff.GetShiftByID(ctx, executor, shiftID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
		}
		if shift.Status == models.ShiftStatusClosed {
			return fmt.Errorf("%w: shift %d is already closed", ErrInvalidStateTransition, shiftID)
		}

		now := s.now()
		rec, err := s.reconcile(ctx, executor, shift, now)
		if err != nil {
			return err
		}

		shift.CashTotal = rec.CashTotal
		shift.CardTotal = rec.CardTotal
		shift.OtherTotal = rec.OtherTotal
		shift.ExpectedCash = decimal.NewNullDecimal(rec.ExpectedCash)
		shift.ClosingAmount = req.ClosingAmount
		shift.Variance = decimal.NewNullDecimal(req.ClosingAmount.Decimal.Sub(rec.ExpectedCash))
		shift.ClosedAt = &now

		if err := s.staff.CloseShift(ctx, executor, shift); err != nil {
			if errors.Is(err, repositories.ErrVersionConflict) {
				return fmt.Errorf("%w: shift %d was closed concurrently", ErrInvalidStateTransition, shiftID)
			}
			return mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
		}
		closed = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Shift closed", map[string]interface{}{
		"shift_id": closed.ID, "expected_cash": closed.ExpectedCash.Decimal.String(), "variance": closed.Variance.Decimal.String(),
	})
	return closed, nil
}

// PreviewShift computes the reconciliation of an open shift up to now without closing it.
// For a closed shift it reports the stored figures.
func (s *shiftService) PreviewShift(ctx context.Context, shiftID int64) (*models.ShiftReconciliation, error) {
	shift, err := s.staff.GetShiftByID(ctx, nil, shiftID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
	}
	if shift.Status == models.ShiftStatusClosed && shift.ClosedAt != nil {
		rec, err := s.reconcile(ctx, nil, shift, *shift.ClosedAt)
		if err != nil {
			return nil, err
		}
		rec.CashTotal, rec.CardTotal, rec.OtherTotal = shift.CashTotal, shift.CardTotal, shift.OtherTotal
		rec.ExpectedCash = shift.ExpectedCash.Decimal
		rec.ClosingAmount = shift.ClosingAmount
		rec.Variance = shift.Variance
		return rec, nil
	}
	return s.reconcile(ctx, nil, shift, s.now())
}

func (s *shiftService) GetShift(ctx context.Context, shiftID int64) (*models.Shift, error) {
	shift, err := s.staff.GetShiftByID(ctx, nil, shiftID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
	}
	return shift, nil
}

func (s *shiftService) ListShifts(ctx context.Context, filters models.ShiftFilters) ([]models.Shift, error) {
	if filters.Status != nil && *filters.Status != "" {
		st := models.ShiftStatus(*filters.Status)
		if st != models.ShiftStatusOpen && st != models.ShiftStatusClosed {
			return nil, fmt.Errorf("%w: unknown shift status '%s'", ErrValidation, *filters.Status)
		}
	}
	shifts, err := s.staff.GetShifts(ctx, nil, filters)
	if err != nil {
		return nil, mapRepoError(err, "listing shifts")
	}
	return shifts, nil
}

func (s *shiftService) DeleteShift(ctx context.Context, shiftID int64) error {
	return s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		shift, err := s.staff.GetShiftByID(ctx, executor, shiftID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
		}
		if shift.Status != models.ShiftStatusOpen {
			return fmt.Errorf("%w: shift %d is closed and cannot be deleted", ErrInvalidStateTransition, shiftID)
		}
		finalized, err := s.orders.ListPaidFinalizedBetween(ctx, executor, shift.OpenedAt, s.now())
		if err != nil {
			return mapRepoError(err, "loading finalized orders")
		}
		if len(finalized) > 0 {
			return fmt.Errorf("%w: %d orders were finalized during shift %d", ErrInvalidStateTransition, len(finalized), shiftID)
		}
		if err := s.staff.DeleteShift(ctx, executor, shiftID); err != nil {
			return mapRepoError(err, fmt.Sprintf("shift %d", shiftID))
		}
		return nil
	})
}
