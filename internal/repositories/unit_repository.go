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

// UnitRepository reads and creates units of measure.
type UnitRepository interface {
	Create(ctx context.Context, executor SQLExecutor, unit *models.UnitOfMeasure) error
	GetByID(ctx context.Context, executor SQLExecutor, unitID int64) (*models.UnitOfMeasure, error)
	List(ctx context.Context, executor SQLExecutor) ([]models.UnitOfMeasure, error)
}

type unitRepository struct {
	db *sql.DB
}

func NewUnitRepository(db *sql.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, executor SQLExecutor, unit *models.UnitOfMeasure) error {
	unit.CreatedAt = time.Now()
	err := pick(executor, r.db).QueryRowContext(ctx,
		`INSERT INTO units_of_measure (name, symbol, conversion_factor, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		unit.Name, unit.Symbol, unit.ConversionFactor, unit.CreatedAt,
	).Scan(&unit.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: unit symbol '%s' already exists", ErrDuplicateKey, unit.Symbol)
		}
		return fmt.Errorf("%w: creating unit: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *unitRepository) GetByID(ctx context.Context, executor SQLExecutor, unitID int64) (*models.UnitOfMeasure, error) {
	u := &models.UnitOfMeasure{}
	err := pick(executor, r.db).QueryRowContext(ctx,
		`SELECT id, name, symbol, conversion_factor, created_at FROM units_of_measure WHERE id = $1`, unitID,
	).Scan(&u.ID, &u.Name, &u.Symbol, &u.ConversionFactor, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting unit by ID %d: %v", ErrDatabaseError, unitID, err)
	}
	return u, nil
}

func (r *unitRepository) List(ctx context.Context, executor SQLExecutor) ([]models.UnitOfMeasure, error) {
	rows, err := pick(executor, r.db).QueryContext(ctx,
		`SELECT id, name, symbol, conversion_factor, created_at FROM units_of_measure ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying units: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	units := []models.UnitOfMeasure{}
	for rows.Next() {
		var u models.UnitOfMeasure
		if err := rows.Scan(&u.ID, &u.Name, &u.Symbol, &u.ConversionFactor, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning unit: %v", ErrDatabaseError, err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating units: %v", ErrDatabaseError, err)
	}
	return units, nil
}
