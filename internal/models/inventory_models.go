package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitOfMeasure converts movement quantities into a product's base unit.
type UnitOfMeasure struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"name" db:"name" binding:"required"`
	Symbol           string          `json:"symbol" db:"symbol" binding:"required"`
	ConversionFactor decimal.Decimal `json:"conversion_factor" db:"conversion_factor"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// Product is a sellable catalog entry. CurrentStock, InventoryValue and
// LastMovementAt are a cached copy of the stock ledger replay.
type Product struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name" binding:"required"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Available      bool            `json:"available" db:"available"`
	ControlsStock  bool            `json:"controls_stock" db:"controls_stock"`
	BaseUnitID     int64           `json:"base_unit_id" db:"base_unit_id" binding:"required"`
	CurrentStock   decimal.Decimal `json:"current_stock" db:"current_stock"`
	InventoryValue decimal.Decimal `json:"inventory_value" db:"inventory_value"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty" db:"last_movement_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// StockMovement is a signed ledger entry against a product.
// Direction is set only for transfers.
type StockMovement struct {
	ID          int64               `json:"id" db:"id"`
	ProductID   int64               `json:"product_id" db:"product_id"`
	Type        MovementType        `json:"type" db:"type"`
	Direction   *MovementDirection  `json:"direction,omitempty" db:"direction"`
	Quantity    decimal.Decimal     `json:"quantity" db:"quantity"`
	UnitID      int64               `json:"unit_id" db:"unit_id"`
	UnitValue   decimal.NullDecimal `json:"unit_value" db:"unit_value"`
	TotalValue  decimal.NullDecimal `json:"total_value" db:"total_value"`
	Reason      *string             `json:"reason,omitempty" db:"reason"`
	OrderItemID *int64              `json:"order_item_id,omitempty" db:"order_item_id"`
	RecordedAt  time.Time           `json:"recorded_at" db:"recorded_at"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	Unit        *UnitOfMeasure      `json:"unit,omitempty"`
}

// StockBalance is the result of replaying a product's movements.
type StockBalance struct {
	ProductID      int64           `json:"product_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty"`
	MovementCount  int             `json:"movement_count"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
}

// MovementFilters narrows a product's movement listing.
type MovementFilters struct {
	From *time.Time
	To   *time.Time
}
