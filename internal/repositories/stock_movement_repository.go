package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// StockMovementRepository defines the interface for stock ledger database operations.
type StockMovementRepository interface {
	Create(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error
	GetByID(ctx context.Context, executor SQLExecutor, movementID int64) (*models.StockMovement, error)
	// ListByProduct returns movements in replay order (recorded_at, then id) joined with their unit.
	ListByProduct(ctx context.Context, executor SQLExecutor, productID int64, filters models.MovementFilters) ([]models.StockMovement, error)
	Update(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error
	Delete(ctx context.Context, executor SQLExecutor, movementID int64) error
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

const stockMovementColumns = `sm.id, sm.product_id, sm.type, sm.direction, sm.quantity, sm.unit_id,
	sm.unit_value, sm.total_value, sm.reason, sm.order_item_id, sm.recorded_at, sm.created_at,
	u.id, u.name, u.symbol, u.conversion_factor, u.created_at`

func scanStockMovement(s scanner, m *models.StockMovement) error {
	unit := &models.UnitOfMeasure{}
	err := s.Scan(
		&m.ID, &m.ProductID, &m.Type, &m.Direction, &m.Quantity, &m.UnitID,
		&m.UnitValue, &m.TotalValue, &m.Reason, &m.OrderItemID, &m.RecordedAt, &m.CreatedAt,
		&unit.ID, &unit.Name, &unit.Symbol, &unit.ConversionFactor, &unit.CreatedAt,
	)
	if err != nil {
		return err
	}
	m.Unit = unit
	return nil
}

func (r *stockMovementRepository) Create(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error {
	query := `INSERT INTO stock_movements
	          (product_id, type, direction, quantity, unit_id, unit_value, total_value, reason, order_item_id, recorded_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	if movement.RecordedAt.IsZero() {
		movement.RecordedAt = currentTime
	}
	movement.CreatedAt = currentTime

	err := pick(executor, r.db).QueryRowContext(ctx, query,
		movement.ProductID, movement.Type, movement.Direction, movement.Quantity, movement.UnitID,
		movement.UnitValue, movement.TotalValue, movement.Reason, movement.OrderItemID,
		movement.RecordedAt, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: creating stock movement (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *stockMovementRepository) GetByID(ctx context.Context, executor SQLExecutor, movementID int64) (*models.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + `
	          FROM stock_movements sm
	          JOIN units_of_measure u ON sm.unit_id = u.id
	          WHERE sm.id = $1`
	m := &models.StockMovement{}
	if err := scanStockMovement(pick(executor, r.db).QueryRowContext(ctx, query, movementID), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting stock movement by ID %d: %v", ErrDatabaseError, movementID, err)
	}
	return m, nil
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, executor SQLExecutor, productID int64, filters models.MovementFilters) ([]models.StockMovement, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + stockMovementColumns + `
	  FROM stock_movements sm
	  JOIN units_of_measure u ON sm.unit_id = u.id
	  WHERE sm.product_id = $1`)

	args := []interface{}{productID}
	argCount := 2
	if filters.From != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND sm.recorded_at >= $%d", argCount))
		args = append(args, *filters.From)
		argCount++
	}
	if filters.To != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND sm.recorded_at <= $%d", argCount))
		args = append(args, *filters.To)
	}
	queryBuilder.WriteString(" ORDER BY sm.recorded_at, sm.id")

	rows, err := pick(executor, r.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock movements for product %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		if err := scanStockMovement(rows, &m); err != nil {
			return nil, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, nil
}

// Update writes the editable fields of a movement: quantity, unit value, total value and reason.
func (r *stockMovementRepository) Update(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error {
	result, err := pick(executor, r.db).ExecContext(ctx,
		`UPDATE stock_movements SET quantity = $1, unit_value = $2, total_value = $3, reason = $4 WHERE id = $5`,
		movement.Quantity, movement.UnitValue, movement.TotalValue, movement.Reason, movement.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating stock movement ID %d: %v", ErrDatabaseError, movement.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockMovementRepository) Delete(ctx context.Context, executor SQLExecutor, movementID int64) error {
	result, err := pick(executor, r.db).ExecContext(ctx, `DELETE FROM stock_movements WHERE id = $1`, movementID)
	if err != nil {
		return fmt.Errorf("%w: deleting stock movement ID %d: %v", ErrDatabaseError, movementID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
