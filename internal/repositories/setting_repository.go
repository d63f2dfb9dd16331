package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SettingRepository reads and updates per-restaurant configuration.
type SettingRepository interface {
	GetRestaurant(ctx context.Context, executor SQLExecutor, restaurantID int64) (*models.Restaurant, error)
	UpdateServiceChargeRate(ctx context.Context, executor SQLExecutor, restaurantID int64, rate decimal.Decimal) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetRestaurant(ctx context.Context, executor SQLExecutor, restaurantID int64) (*models.Restaurant, error) {
	rest := &models.Restaurant{}
	err := pick(executor, r.db).QueryRowContext(ctx,
		`SELECT id, name, service_charge_rate, created_at, updated_at FROM restaurants WHERE id = $1`, restaurantID,
	).Scan(&rest.ID, &rest.Name, &rest.ServiceChargeRate, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by ID %d: %v", ErrDatabaseError, restaurantID, err)
	}
	return rest, nil
}

func (r *settingRepository) UpdateServiceChargeRate(ctx context.Context, executor SQLExecutor, restaurantID int64, rate decimal.Decimal) error {
	result, err := pick(executor, r.db).ExecContext(ctx,
		`UPDATE restaurants SET service_charge_rate = $1, updated_at = $2 WHERE id = $3`,
		rate, time.Now(), restaurantID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating service charge rate for restaurant ID %d: %v", ErrDatabaseError, restaurantID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
