package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest is the payload for a manual stock movement.
type RecordMovementRequest struct {
	ProductID  int64                     `json:"product_id" binding:"required"`
	Type       models.MovementType       `json:"type" binding:"required"`
	Direction  *models.MovementDirection `json:"direction"`
	Quantity   decimal.Decimal           `json:"quantity"`
	UnitID     int64                     `json:"unit_id" binding:"required"`
	UnitValue  decimal.NullDecimal       `json:"unit_value"`
	TotalValue decimal.NullDecimal       `json:"total_value"`
	Reason     *string                   `json:"reason"`
	RecordedAt *time.Time                `json:"recorded_at"`
}

// EditMovementRequest carries the only fields of a movement that may change.
// Absent fields are left untouched.
type EditMovementRequest struct {
	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitValue decimal.NullDecimal `json:"unit_value"`
	Reason    *string             `json:"reason"`
}

// StockLedgerService replays stock movements into balances and keeps the
// product's cached balance in step with its ledger.
type StockLedgerService interface {
	ComputeBalance(ctx context.Context, productID int64) (*models.StockBalance, error)
	ComputePeriod(ctx context.Context, productID int64, from, to time.Time) (*models.StockBalance, error)
	ListMovements(ctx context.Context, productID int64, filters models.MovementFilters) ([]models.StockMovement, error)
	RecordMovement(ctx context.Context, req RecordMovementRequest) (*models.StockMovement, error)
	EditMovement(ctx context.Context, movementID int64, req EditMovementRequest) (*models.StockMovement, error)
	DeleteMovement(ctx context.Context, movementID int64) error
}

// StockLedger is the StockLedgerService implementation. The item lifecycle
// also uses it to write sales movements inside the order's transaction.
// Writers of the same product serialise on the product row lock, so the cached
// balance is always a replay of every committed movement.
type StockLedger struct {
	tx        repositories.TxManager
	movements repositories.StockMovementRepository
	products  repositories.ProductRepository
	units     repositories.UnitRepository
}

// NewStockLedger creates a new StockLedger.
func NewStockLedger(
	tx repositories.TxManager,
	movements repositories.StockMovementRepository,
	products repositories.ProductRepository,
	units repositories.UnitRepository,
) *StockLedger {
	return &StockLedger{
		tx:        tx,
		movements: movements,
		products:  products,
		units:     units,
	}
}

// ReplayMovements folds movements into a balance in recorded order (ties by ID).
// Quantities are converted to the base unit with the movement's unit factor.
func ReplayMovements(productID int64, movements []models.StockMovement) models.StockBalance {
	ordered := make([]models.StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	balance := models.StockBalance{
		ProductID:      productID,
		CurrentBalance: decimal.Zero,
		InventoryValue: decimal.Zero,
	}
	for _, m := range ordered {
		factor := decimal.NewFromInt(1)
		if m.Unit != nil {
			factor = m.Unit.ConversionFactor
		}
		qty := m.Quantity.Mul(factor)

		switch m.Type {
		case models.MovementTypeIn:
			balance.CurrentBalance = balance.CurrentBalance.Add(qty)
		case models.MovementTypeOut, models.MovementTypeLoss:
			balance.CurrentBalance = balance.CurrentBalance.Sub(qty)
		case models.MovementTypeAdjustment:
			balance.CurrentBalance = qty
		case models.MovementTypeTransfer:
			if m.Direction != nil && *m.Direction == models.DirectionOut {
				balance.CurrentBalance = balance.CurrentBalance.Sub(qty)
			} else {
				balance.CurrentBalance = balance.CurrentBalance.Add(qty)
			}
		}

		if m.TotalValue.Valid {
			balance.InventoryValue = balance.InventoryValue.Add(m.TotalValue.Decimal)
		}
		if balance.LastMovementAt == nil || m.RecordedAt.After(*balance.LastMovementAt) {
			at := m.RecordedAt
			balance.LastMovementAt = &at
		}
		balance.MovementCount++
	}
	return balance
}

func (s *StockLedger) ComputeBalance(ctx context.Context, productID int64) (*models.StockBalance, error) {
	if _, err := s.products.GetByID(ctx, nil, productID); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("product %d", productID))
	}
	movements, err := s.movements.ListByProduct(ctx, nil, productID, models.MovementFilters{})
	if err != nil {
		return nil, mapRepoError(err, "loading stock movements")
	}
	balance := ReplayMovements(productID, movements)
	return &balance, nil
}

// ComputePeriod replays only the movements recorded inside [from, to].
func (s *StockLedger) ComputePeriod(ctx context.Context, productID int64, from, to time.Time) (*models.StockBalance, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period end %s is before its start %s", ErrValidation, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if _, err := s.products.GetByID(ctx, nil, productID); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("product %d", productID))
	}
	movements, err := s.movements.ListByProduct(ctx, nil, productID, models.MovementFilters{From: &from, To: &to})
	if err != nil {
		return nil, mapRepoError(err, "loading stock movements")
	}
	balance := ReplayMovements(productID, movements)
	balance.From, balance.To = &from, &to
	return &balance, nil
}

func (s *StockLedger) ListMovements(ctx context.Context, productID int64, filters models.MovementFilters) ([]models.StockMovement, error) {
	if _, err := s.products.GetByID(ctx, nil, productID); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("product %d", productID))
	}
	movements, err := s.movements.ListByProduct(ctx, nil, productID, filters)
	if err != nil {
		return nil, mapRepoError(err, "loading stock movements")
	}
	return movements, nil
}

func validateMovement(req RecordMovementRequest) error {
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown movement type '%s'", ErrValidation, req.Type)
	}
	if req.Type == models.MovementTypeTransfer {
		if req.Direction == nil || !req.Direction.IsValid() {
			return fmt.Errorf("%w: transfer movements require direction 'in' or 'out'", ErrValidation)
		}
	} else if req.Direction != nil {
		return fmt.Errorf("%w: direction is only accepted for transfer movements", ErrValidation)
	}
	if req.Type == models.MovementTypeAdjustment {
		if req.Quantity.IsNegative() {
			return fmt.Errorf("%w: adjustment quantity must not be negative", ErrValidation)
		}
	} else if !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if req.UnitValue.Valid && req.UnitValue.Decimal.IsNegative() {
		return fmt.Errorf("%w: unit value must not be negative", ErrValidation)
	}
	if req.TotalValue.Valid && req.TotalValue.Decimal.IsNegative() {
		return fmt.Errorf("%w: total value must not be negative", ErrValidation)
	}
	return nil
}

func (s *StockLedger) RecordMovement(ctx context.Context, req RecordMovementRequest) (*models.StockMovement, error) {
	if err := validateMovement(req); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID:  req.ProductID,
		Type:       req.Type,
		Direction:  req.Direction,
		Quantity:   req.Quantity,
		UnitID:     req.UnitID,
		UnitValue:  req.UnitValue,
		TotalValue: req.TotalValue,
		Reason:     req.Reason,
	}
	if req.RecordedAt != nil {
		movement.RecordedAt = *req.RecordedAt
	}
	if !movement.TotalValue.Valid && movement.UnitValue.Valid {
		movement.TotalValue = decimal.NewNullDecimal(movement.UnitValue.Decimal.Mul(movement.Quantity))
	}

	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		if _, err := s.products.GetByIDForUpdate(ctx, executor, req.ProductID); err != nil {
			return mapRepoError(err, fmt.Sprintf("product %d", req.ProductID))
		}
		unit, err := s.units.GetByID(ctx, executor, req.UnitID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("unit %d", req.UnitID))
		}
		movement.Unit = unit
		if err := s.movements.Create(ctx, executor, movement); err != nil {
			return mapRepoError(err, "recording stock movement")
		}
		return s.refreshSnapshot(ctx, executor, req.ProductID)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Stock movement recorded", map[string]interface{}{
		"movement_id": movement.ID, "product_id": movement.ProductID, "type": movement.Type, "quantity": movement.Quantity.String(),
	})
	return movement, nil
}

func (s *StockLedger) EditMovement(ctx context.Context, movementID int64, req EditMovementRequest) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		m, err := s.movements.GetByID(ctx, executor, movementID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("stock movement %d", movementID))
		}
		if _, err := s.products.GetByIDForUpdate(ctx, executor, m.ProductID); err != nil {
			return mapRepoError(err, fmt.Sprintf("product %d", m.ProductID))
		}
		if req.Quantity.Valid {
			m.Quantity = req.Quantity.Decimal
		}
		if req.UnitValue.Valid {
			m.UnitValue = req.UnitValue
		}
		if req.Reason != nil {
			m.Reason = req.Reason
		}

		check := RecordMovementRequest{Type: m.Type, Direction: m.Direction, Quantity: m.Quantity, UnitValue: m.UnitValue}
		if err := validateMovement(check); err != nil {
			return err
		}
		if m.UnitValue.Valid {
			m.TotalValue = decimal.NewNullDecimal(m.UnitValue.Decimal.Mul(m.Quantity))
		}

		if err := s.movements.Update(ctx, executor, m); err != nil {
			return mapRepoError(err, fmt.Sprintf("stock movement %d", movementID))
		}
		movement = m
		return s.refreshSnapshot(ctx, executor, m.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *StockLedger) DeleteMovement(ctx context.Context, movementID int64) error {
	return s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		m, err := s.movements.GetByID(ctx, executor, movementID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("stock movement %d", movementID))
		}
		if _, err := s.products.GetByIDForUpdate(ctx, executor, m.ProductID); err != nil {
			return mapRepoError(err, fmt.Sprintf("product %d", m.ProductID))
		}
		if err := s.movements.Delete(ctx, executor, movementID); err != nil {
			return mapRepoError(err, fmt.Sprintf("stock movement %d", movementID))
		}
		return s.refreshSnapshot(ctx, executor, m.ProductID)
	})
}

// recordSale writes a movement generated by an order item and refreshes the
// product's cached balance. It runs inside the caller's transaction.
func (s *StockLedger) recordSale(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, itemID int64, movementType models.MovementType, qty decimal.Decimal, reason string) error {
	if !product.ControlsStock || qty.IsZero() {
		return nil
	}
	if _, err := s.products.GetByIDForUpdate(ctx, executor, product.ID); err != nil {
		return mapRepoError(err, fmt.Sprintf("product %d", product.ID))
	}

	movement := &models.StockMovement{
		ProductID:   product.ID,
		Type:        movementType,
		Quantity:    qty,
		UnitID:      product.BaseUnitID,
		Reason:      &reason,
		OrderItemID: &itemID,
	}
	if err := s.movements.Create(ctx, executor, movement); err != nil {
		return mapRepoError(err, fmt.Sprintf("recording sale movement for product %d", product.ID))
	}
	return s.refreshSnapshot(ctx, executor, product.ID)
}

func (s *StockLedger) refreshSnapshot(ctx context.Context, executor repositories.SQLExecutor, productID int64) error {
	movements, err := s.movements.ListByProduct(ctx, executor, productID, models.MovementFilters{})
	if err != nil {
		return mapRepoError(err, "loading stock movements")
	}
	balance := ReplayMovements(productID, movements)
	if err := s.products.UpdateStockSnapshot(ctx, executor, balance); err != nil {
		return mapRepoError(err, fmt.Sprintf("product %d", productID))
	}
	return nil
}
