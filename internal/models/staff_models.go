package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffMember represents an employee
type StaffMember struct {
	ID        int64     `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      string    `json:"role" db:"role"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Shift is a cashier shift. The reconciliation fields are filled in on close.
type Shift struct {
	ID            int64               `json:"id" db:"id"`
	StaffID       int64               `json:"staff_id" db:"staff_id"`
	OpeningFloat  decimal.Decimal     `json:"opening_float" db:"opening_float"`
	ClosingAmount decimal.NullDecimal `json:"closing_amount" db:"closing_amount"`
	CashTotal     decimal.Decimal     `json:"cash_total" db:"cash_total"`
	CardTotal     decimal.Decimal     `json:"card_total" db:"card_total"`
	OtherTotal    decimal.Decimal     `json:"other_total" db:"other_total"`
	ExpectedCash  decimal.NullDecimal `json:"expected_cash" db:"expected_cash"`
	Variance      decimal.NullDecimal `json:"variance" db:"variance"`
	Status        ShiftStatus         `json:"status" db:"status"`
	Notes         *string             `json:"notes,omitempty" db:"notes"`
	OpenedAt      time.Time           `json:"opened_at" db:"opened_at"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty" db:"closed_at"`
	StaffMember   *StaffMember        `json:"staff_member,omitempty"`
}

// ShiftReconciliation is the cash-drawer summary over a shift's window.
// It backs both the close operation and the read-only preview.
type ShiftReconciliation struct {
	ShiftID       int64               `json:"shift_id"`
	WindowStart   time.Time           `json:"window_start"`
	WindowEnd     time.Time           `json:"window_end"`
	OrderCount    int                 `json:"order_count"`
	OpeningFloat  decimal.Decimal     `json:"opening_float"`
	CashTotal     decimal.Decimal     `json:"cash_total"`
	CardTotal     decimal.Decimal     `json:"card_total"`
	OtherTotal    decimal.Decimal     `json:"other_total"`
	ExpectedCash  decimal.Decimal     `json:"expected_cash"`
	ClosingAmount decimal.NullDecimal `json:"closing_amount"`
	Variance      decimal.NullDecimal `json:"variance"`
}

// ShiftFilters narrows shift listings.
type ShiftFilters struct {
	StaffID *int64  `form:"staff_id"`
	Status  *string `form:"status"`
}
