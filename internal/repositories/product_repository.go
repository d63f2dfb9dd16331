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

// ProductRepository defines the database operations for catalog products.
type ProductRepository interface {
	Create(ctx context.Context, executor SQLExecutor, product *models.Product) error
	GetByID(ctx context.Context, executor SQLExecutor, productID int64) (*models.Product, error)
	// GetByIDForUpdate reads the product and row-locks it until the transaction ends.
	GetByIDForUpdate(ctx context.Context, executor SQLExecutor, productID int64) (*models.Product, error)
	List(ctx context.Context, executor SQLExecutor, availableOnly bool) ([]models.Product, error)
	// UpdateStockSnapshot stores the cached result of a ledger replay on the product row.
	UpdateStockSnapshot(ctx context.Context, executor SQLExecutor, balance models.StockBalance) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, price, available, controls_stock, base_unit_id,
	current_stock, inventory_value, last_movement_at, created_at, updated_at`

func scanProduct(s scanner, p *models.Product) error {
	return s.Scan(
		&p.ID, &p.Name, &p.Price, &p.Available, &p.ControlsStock, &p.BaseUnitID,
		&p.CurrentStock, &p.InventoryValue, &p.LastMovementAt, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *productRepository) Create(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `INSERT INTO products (name, price, available, controls_stock, base_unit_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, current_stock, inventory_value`
	currentTime := time.Now()
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime

	err := pick(executor, r.db).QueryRowContext(ctx, query,
		strings.TrimSpace(product.Name), product.Price, product.Available, product.ControlsStock, product.BaseUnitID,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID, &product.CurrentStock, &product.InventoryValue)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return fmt.Errorf("%w: product name '%s' already exists", ErrDuplicateKey, product.Name)
			case "foreign_key_violation":
				return fmt.Errorf("%w: creating product (base_unit_id %d likely not found)", ErrNotFound, product.BaseUnitID)
			}
		}
		return fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, executor SQLExecutor, productID int64) (*models.Product, error) {
	p := &models.Product{}
	err := scanProduct(pick(executor, r.db).QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	return p, nil
}

func (r *productRepository) GetByIDForUpdate(ctx context.Context, executor SQLExecutor, productID int64) (*models.Product, error) {
	p := &models.Product{}
	err := scanProduct(pick(executor, r.db).QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, productID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context, executor SQLExecutor, availableOnly bool) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if availableOnly {
		query += ` WHERE available = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := pick(executor, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) UpdateStockSnapshot(ctx context.Context, executor SQLExecutor, balance models.StockBalance) error {
	result, err := pick(executor, r.db).ExecContext(ctx,
		`UPDATE products SET current_stock = $1, inventory_value = $2, last_movement_at = $3, updated_at = $4 WHERE id = $5`,
		balance.CurrentBalance, balance.InventoryValue, balance.LastMovementAt, time.Now(), balance.ProductID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating stock snapshot for product ID %d: %v", ErrDatabaseError, balance.ProductID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
