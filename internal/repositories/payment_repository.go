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

// PaymentRepository defines the database operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, executor SQLExecutor, payment *models.Payment) error
	GetByID(ctx context.Context, executor SQLExecutor, paymentID int64) (*models.Payment, error)
	ListByOrder(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.Payment, error)
	ListByOrders(ctx context.Context, executor SQLExecutor, orderIDs []int64) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, executor SQLExecutor, payment *models.Payment) error
	Delete(ctx context.Context, executor SQLExecutor, paymentID int64) error
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, order_id, amount, method, status, external_reference, processed_at, created_at, updated_at`

func scanPayment(s scanner, p *models.Payment) error {
	return s.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.ExternalReference, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt)
}

func (r *paymentRepository) Create(ctx context.Context, executor SQLExecutor, payment *models.Payment) error {
	query := `INSERT INTO payments
	            (order_id, amount, method, status, external_reference, processed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	payment.UpdatedAt = payment.CreatedAt

	err := pick(executor, r.db).QueryRowContext(ctx, query,
		payment.OrderID, payment.Amount, payment.Method, payment.Status, payment.ExternalReference,
		payment.ProcessedAt, payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: creating payment (order_id %d likely not found)", ErrNotFound, payment.OrderID)
		}
		return fmt.Errorf("%w: creating payment: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, executor SQLExecutor, paymentID int64) (*models.Payment, error) {
	p := &models.Payment{}
	err := scanPayment(pick(executor, r.db).QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payment by ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	return p, nil
}

func (r *paymentRepository) ListByOrder(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.Payment, error) {
	return r.list(ctx, pick(executor, r.db),
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
}

// ListByOrders fetches the payments of several orders at once.
func (r *paymentRepository) ListByOrders(ctx context.Context, executor SQLExecutor, orderIDs []int64) ([]models.Payment, error) {
	if len(orderIDs) == 0 {
		return []models.Payment{}, nil
	}
	return r.list(ctx, pick(executor, r.db),
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ANY($1) ORDER BY order_id, id`, pq.Array(orderIDs))
}

func (r *paymentRepository) list(ctx context.Context, ex SQLExecutor, query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, executor SQLExecutor, payment *models.Payment) error {
	payment.UpdatedAt = time.Now()
	result, err := pick(executor, r.db).ExecContext(ctx,
		`UPDATE payments SET status = $1, processed_at = $2, updated_at = $3 WHERE id = $4`,
		payment.Status, payment.ProcessedAt, payment.UpdatedAt, payment.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating payment ID %d: %v", ErrDatabaseError, payment.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, executor SQLExecutor, paymentID int64) error {
	result, err := pick(executor, r.db).ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return fmt.Errorf("%w: deleting payment ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
