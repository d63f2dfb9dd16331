package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderItemRepository handles order lines and their variations.
type OrderItemRepository interface {
	Create(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error
	GetByID(ctx context.Context, executor SQLExecutor, itemID int64) (*models.OrderItem, error)
	ListByOrder(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderItem, error)
	Update(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error
	Delete(ctx context.Context, executor SQLExecutor, itemID int64) error
}

type orderItemRepository struct {
	db *sql.DB
}

// NewOrderItemRepository creates a new instance of OrderItemRepository.
func NewOrderItemRepository(db *sql.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

const orderItemColumns = `id, order_id, product_id, product_name, unit_price, quantity, line_total,
	note, status, prep_started_at, prep_ready_at, created_at, updated_at`

func scanOrderItem(s scanner, item *models.OrderItem) error {
	return s.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.LineTotal,
		&item.Note, &item.Status, &item.PrepStartedAt, &item.PrepReadyAt, &item.CreatedAt, &item.UpdatedAt,
	)
}

// Create inserts the item and its variations.
func (r *orderItemRepository) Create(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error {
	ex := pick(executor, r.db)
	query := `INSERT INTO order_items
	            (order_id, product_id, product_name, unit_price, quantity, line_total, note, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = item.CreatedAt

	err := ex.QueryRowContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal,
		item.Note, item.Status, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: creating order item (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}

	for i := range item.Variations {
		v := &item.Variations[i]
		v.OrderItemID = item.ID
		err := ex.QueryRowContext(ctx,
			`INSERT INTO order_item_variations (order_item_id, name, additional_price) VALUES ($1, $2, $3) RETURNING id`,
			v.OrderItemID, v.Name, v.AdditionalPrice,
		).Scan(&v.ID)
		if err != nil {
			return fmt.Errorf("%w: creating variation %q for order item %d: %v", ErrDatabaseError, v.Name, item.ID, err)
		}
	}
	return nil
}

func (r *orderItemRepository) GetByID(ctx context.Context, executor SQLExecutor, itemID int64) (*models.OrderItem, error) {
	ex := pick(executor, r.db)
	item := &models.OrderItem{}
	err := scanOrderItem(ex.QueryRowContext(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, itemID), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order item by ID %d: %v", ErrDatabaseError, itemID, err)
	}

	variations, err := r.variationsFor(ctx, ex, []int64{itemID})
	if err != nil {
		return nil, err
	}
	item.Variations = variations[itemID]
	return item, nil
}

func (r *orderItemRepository) ListByOrder(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	ex := pick(executor, r.db)
	rows, err := ex.QueryContext(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}

	items := []models.OrderItem{}
	ids := []int64{}
	for rows.Next() {
		var item models.OrderItem
		if err := scanOrderItem(rows, &item); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: iterating order items: %v", ErrDatabaseError, err)
	}
	rows.Close()

	if len(ids) == 0 {
		return items, nil
	}
	variations, err := r.variationsFor(ctx, ex, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Variations = variations[items[i].ID]
	}
	return items, nil
}

// variationsFor loads the variations of several items in one round trip.
func (r *orderItemRepository) variationsFor(ctx context.Context, ex SQLExecutor, itemIDs []int64) (map[int64][]models.Variation, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT id, order_item_id, name, additional_price FROM order_item_variations
		 WHERE order_item_id = ANY($1) ORDER BY id`, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying variations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := make(map[int64][]models.Variation, len(itemIDs))
	for rows.Next() {
		var v models.Variation
		if err := rows.Scan(&v.ID, &v.OrderItemID, &v.Name, &v.AdditionalPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning variation: %v", ErrDatabaseError, err)
		}
		result[v.OrderItemID] = append(result[v.OrderItemID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating variations: %v", ErrDatabaseError, err)
	}
	return result, nil
}

// Update writes the mutable fields of an item. Variations are immutable.
func (r *orderItemRepository) Update(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error {
	query := `UPDATE order_items SET
	            quantity = $1, line_total = $2, note = $3, status = $4,
	            prep_started_at = $5, prep_ready_at = $6, updated_at = $7
	          WHERE id = $8`
	item.UpdatedAt = time.Now()
	result, err := pick(executor, r.db).ExecContext(ctx, query,
		item.Quantity, item.LineTotal, item.Note, item.Status,
		item.PrepStartedAt, item.PrepReadyAt, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating order item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderItemRepository) Delete(ctx context.Context, executor SQLExecutor, itemID int64) error {
	result, err := pick(executor, r.db).ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting order item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
