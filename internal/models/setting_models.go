package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant holds per-restaurant configuration consumed by the order aggregator.
type Restaurant struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	ServiceChargeRate decimal.Decimal `json:"service_charge_rate" db:"service_charge_rate"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}
