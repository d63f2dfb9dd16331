package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderTotals is the monetary aggregate of an order.
// Subtotal and ServiceCharge are derived from the items; Taxes and Discount are
// administrative inputs and are never derived.
type OrderTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Taxes         decimal.Decimal `json:"taxes"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

// Equal reports whether two totals carry the same amounts.
func (t OrderTotals) Equal(o OrderTotals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.ServiceCharge.Equal(o.ServiceCharge) &&
		t.Taxes.Equal(o.Taxes) &&
		t.Discount.Equal(o.Discount) &&
		t.Total.Equal(o.Total)
}

// Order is a customer order (comanda). Totals and Status are derived from the
// child items and payments; Version guards the aggregate write.
type Order struct {
	ID           int64        `json:"id" db:"id"`
	Number       string       `json:"number" db:"number"`
	RestaurantID int64        `json:"restaurant_id" db:"restaurant_id"`
	Channel      OrderChannel `json:"channel" db:"channel"`
	TableID      *int64       `json:"table_id,omitempty" db:"table_id"`
	StaffID      *int64       `json:"staff_id,omitempty" db:"staff_id"`
	OrderTotals
	Status      OrderStatus `json:"status" db:"status"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty" db:"finalized_at"`
	Version     int64       `json:"version" db:"version"`
	Items       []OrderItem `json:"items,omitempty"`
	Payments    []Payment   `json:"payments,omitempty"`
}

// OrderItem is one line of an order. ProductName and UnitPrice are snapshots
// taken when the item is added.
type OrderItem struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	ProductID     int64           `json:"product_id" db:"product_id"`
	ProductName   string          `json:"product_name" db:"product_name"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity" db:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total" db:"line_total"`
	Note          *string         `json:"note,omitempty" db:"note"`
	Status        ItemStatus      `json:"status" db:"status"`
	PrepStartedAt *time.Time      `json:"prep_started_at,omitempty" db:"prep_started_at"`
	PrepReadyAt   *time.Time      `json:"prep_ready_at,omitempty" db:"prep_ready_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Variations    []Variation     `json:"variations,omitempty"`
}

// VariationsTotal sums the additional prices of the item's variations.
func (i OrderItem) VariationsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range i.Variations {
		sum = sum.Add(v.AdditionalPrice)
	}
	return sum
}

// Variation is an immutable modifier attached to an order item.
type Variation struct {
	ID              int64           `json:"id" db:"id"`
	OrderItemID     int64           `json:"order_item_id" db:"order_item_id"`
	Name            string          `json:"name" db:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price" db:"additional_price"`
}

// Payment is a tender applied against an order.
type Payment struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           int64           `json:"order_id" db:"order_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Method            PaymentMethod   `json:"method" db:"method"`
	Status            PaymentStatus   `json:"status" db:"status"`
	ExternalReference *string         `json:"external_reference,omitempty" db:"external_reference"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	RestaurantID *int64  `form:"restaurant_id"`
	StaffID      *int64  `form:"staff_id"`
	TableID      *int64  `form:"table_id"`
	Status       *string `form:"status"`
	Channel      *string `form:"channel"`
	Date         *string `form:"date"` // YYYY-MM-DD
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
