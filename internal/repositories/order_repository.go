package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	NextOrderNumber(ctx context.Context, executor SQLExecutor, at time.Time) (string, error)
	Create(ctx context.Context, executor SQLExecutor, order *models.Order) error
	GetByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	List(ctx context.Context, executor SQLExecutor, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	ListPaidFinalizedBetween(ctx context.Context, executor SQLExecutor, from, to time.Time) ([]models.Order, error)
	// Update is a compare-and-swap on orders.version. On success order.Version is advanced.
	Update(ctx context.Context, executor SQLExecutor, order *models.Order, expectedVersion int64) error
	Delete(ctx context.Context, executor SQLExecutor, orderID int64) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, number, restaurant_id, channel, table_id, staff_id,
	subtotal, service_charge, taxes, discount, total, status, notes,
	created_at, updated_at, finalized_at, version`

func scanOrder(s scanner, o *models.Order) error {
	return s.Scan(
		&o.ID, &o.Number, &o.RestaurantID, &o.Channel, &o.TableID, &o.StaffID,
		&o.Subtotal, &o.ServiceCharge, &o.Taxes, &o.Discount, &o.Total, &o.Status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.FinalizedAt, &o.Version,
	)
}

// NextOrderNumber draws the next value of order_number_seq and formats it as ORD-YYYYMMDD-NNNNNN.
func (r *orderRepository) NextOrderNumber(ctx context.Context, executor SQLExecutor, at time.Time) (string, error) {
	var seq int64
	err := pick(executor, r.db).QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("%w: drawing order number: %v", ErrDatabaseError, err)
	}
	return fmt.Sprintf("ORD-%s-%06d", at.Format("20060102"), seq), nil
}

func (r *orderRepository) Create(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	query := `INSERT INTO orders
	            (number, restaurant_id, channel, table_id, staff_id,
	             subtotal, service_charge, taxes, discount, total, status, notes,
	             created_at, updated_at, version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
	          RETURNING id, version`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	err := pick(executor, r.db).QueryRowContext(ctx, query,
		order.Number, order.RestaurantID, order.Channel, order.TableID, order.StaffID,
		order.Subtotal, order.ServiceCharge, order.Taxes, order.Discount, order.Total, order.Status, order.Notes,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID, &order.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return fmt.Errorf("%w: order number %s already exists", ErrDuplicateKey, order.Number)
			case "foreign_key_violation":
				return fmt.Errorf("%w: creating order (constraint: %s)", ErrNotFound, pqErr.Constraint)
			}
		}
		return fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	err := scanOrder(pick(executor, r.db).QueryRowContext(ctx, query, orderID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, executor SQLExecutor, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.RestaurantID != nil {
		conditions = append(conditions, fmt.Sprintf("restaurant_id = $%d", argCounter))
		args = append(args, *filters.RestaurantID)
		argCounter++
	}
	if filters.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("staff_id = $%d", argCounter))
		args = append(args, *filters.StaffID)
		argCounter++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Channel != nil && *filters.Channel != "" {
		conditions = append(conditions, fmt.Sprintf("channel = $%d", argCounter))
		args = append(args, *filters.Channel)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d AND created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := pick(executor, r.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.Number, &o.RestaurantID, &o.Channel, &o.TableID, &o.StaffID,
			&o.Subtotal, &o.ServiceCharge, &o.Taxes, &o.Discount, &o.Total, &o.Status, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt, &o.FinalizedAt, &o.Version,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// ListPaidFinalizedBetween returns paid orders whose finalized_at falls inside [from, to].
func (r *orderRepository) ListPaidFinalizedBetween(ctx context.Context, executor SQLExecutor, from, to time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = $1 AND finalized_at BETWEEN $2 AND $3
	          ORDER BY finalized_at, id`
	rows, err := pick(executor, r.db).QueryContext(ctx, query, models.OrderStatusPaid, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying finalized orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("%w: scanning finalized order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating finalized orders: %v", ErrDatabaseError, err)
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, executor SQLExecutor, order *models.Order, expectedVersion int64) error {
	query := `UPDATE orders SET
	            channel = $1, table_id = $2, staff_id = $3,
	            subtotal = $4, service_charge = $5, taxes = $6, discount = $7, total = $8,
	            status = $9, notes = $10, finalized_at = $11, updated_at = $12,
	            version = version + 1
	          WHERE id = $13 AND version = $14`

	updatedAt := time.Now()
	result, err := pick(executor, r.db).ExecContext(ctx, query,
		order.Channel, order.TableID, order.StaffID,
		order.Subtotal, order.ServiceCharge, order.Taxes, order.Discount, order.Total,
		order.Status, order.Notes, order.FinalizedAt, updatedAt,
		order.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("%w: updating order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order ID %d at version %d", ErrVersionConflict, order.ID, expectedVersion)
	}
	order.Version = expectedVersion + 1
	order.UpdatedAt = updatedAt
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, executor SQLExecutor, orderID int64) error {
	result, err := pick(executor, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("%w: deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
