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

// StaffRepository defines the interface for staff and shift related database operations.
type StaffRepository interface {
	// StaffMember methods
	GetStaffMemberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error)
	GetStaffMembers(ctx context.Context, executor SQLExecutor, activeOnly bool) ([]models.StaffMember, error)

	// Shift methods
	CreateShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) error
	GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error)
	FindOpenShiftByStaff(ctx context.Context, executor SQLExecutor, staffID int64) (*models.Shift, error)
	GetShifts(ctx context.Context, executor SQLExecutor, filters models.ShiftFilters) ([]models.Shift, error)
	// CloseShift persists the reconciliation only if the shift is still open.
	CloseShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) error
	DeleteShift(ctx context.Context, executor SQLExecutor, id int64) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

// --- StaffMember Methods ---

func (r *staffRepository) GetStaffMemberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error) {
	staff := &models.StaffMember{}
	err := pick(executor, r.db).QueryRowContext(ctx,
		`SELECT id, full_name, role, active, created_at, updated_at FROM staff_members WHERE id = $1`, id,
	).Scan(&staff.ID, &staff.FullName, &staff.Role, &staff.Active, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff member by ID %d: %v", ErrDatabaseError, id, err)
	}
	return staff, nil
}

func (r *staffRepository) GetStaffMembers(ctx context.Context, executor SQLExecutor, activeOnly bool) ([]models.StaffMember, error) {
	query := `SELECT id, full_name, role, active, created_at, updated_at FROM staff_members`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY full_name`

	rows, err := pick(executor, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying staff members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	staff := []models.StaffMember{}
	for rows.Next() {
		var s models.StaffMember
		if err := rows.Scan(&s.ID, &s.FullName, &s.Role, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning staff member: %v", ErrDatabaseError, err)
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff members: %v", ErrDatabaseError, err)
	}
	return staff, nil
}

// --- Shift Methods ---

const shiftColumns = `s.id, s.staff_id, s.opening_float, s.closing_amount, s.cash_total, s.card_total, s.other_total,
	s.expected_cash, s.variance, s.status, s.notes, s.opened_at, s.closed_at,
	sm.full_name, sm.role, sm.active`

func scanShift(sc scanner, shift *models.Shift) error {
	staff := &models.StaffMember{}
	err := sc.Scan(
		&shift.ID, &shift.StaffID, &shift.OpeningFloat, &shift.ClosingAmount, &shift.CashTotal, &shift.CardTotal, &shift.OtherTotal,
		&shift.ExpectedCash, &shift.Variance, &shift.Status, &shift.Notes, &shift.OpenedAt, &shift.ClosedAt,
		&staff.FullName, &staff.Role, &staff.Active,
	)
	if err != nil {
		return err
	}
	staff.ID = shift.StaffID
	shift.StaffMember = staff
	return nil
}

func (r *staffRepository) CreateShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) error {
	query := `INSERT INTO shifts (staff_id, opening_float, status, notes, opened_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now()
	}

	err := pick(executor, r.db).QueryRowContext(ctx, query,
		shift.StaffID, shift.OpeningFloat, shift.Status, shift.Notes, shift.OpenedAt,
	).Scan(&shift.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return fmt.Errorf("%w: staff member %d already has an open shift (constraint: %s)", ErrDuplicateKey, shift.StaffID, pqErr.Constraint)
			case "foreign_key_violation":
				return fmt.Errorf("%w: creating shift (staff_id %d likely not found, constraint: %s): %v", ErrNotFound, shift.StaffID, pqErr.Constraint, err)
			}
		}
		return fmt.Errorf("%w: creating shift: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *staffRepository) GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + `
	          FROM shifts s
	          JOIN staff_members sm ON s.staff_id = sm.id
	          WHERE s.id = $1`
	shift := &models.Shift{}
	if err := scanShift(pick(executor, r.db).QueryRowContext(ctx, query, id), shift); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shift by ID %d: %v", ErrDatabaseError, id, err)
	}
	return shift, nil
}

// FindOpenShiftByStaff returns ErrNotFound when the staff member has no open shift.
func (r *staffRepository) FindOpenShiftByStaff(ctx context.Context, executor SQLExecutor, staffID int64) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + `
	          FROM shifts s
	          JOIN staff_members sm ON s.staff_id = sm.id
	          WHERE s.staff_id = $1 AND s.status = $2`
	shift := &models.Shift{}
	if err := scanShift(pick(executor, r.db).QueryRowContext(ctx, query, staffID, models.ShiftStatusOpen), shift); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding open shift for staff %d: %v", ErrDatabaseError, staffID, err)
	}
	return shift, nil
}

func (r *staffRepository) GetShifts(ctx context.Context, executor SQLExecutor, filters models.ShiftFilters) ([]models.Shift, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + shiftColumns + `
	  FROM shifts s
	  JOIN staff_members sm ON s.staff_id = sm.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("s.staff_id = $%d", argCount))
		args = append(args, *filters.StaffID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argCount))
		args = append(args, *filters.Status)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY s.opened_at DESC, s.id DESC")

	rows, err := pick(executor, r.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying shifts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	shifts := []models.Shift{}
	for rows.Next() {
		var shift models.Shift
		if err := scanShift(rows, &shift); err != nil {
			return nil, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shifts: %v", ErrDatabaseError, err)
	}
	return shifts, nil
}

func (r *staffRepository) CloseShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) error {
	query := `UPDATE shifts SET
	            closing_amount = $1, cash_total = $2, card_total = $3, other_total = $4,
	            expected_cash = $5, variance = $6, status = $7, closed_at = $8
	          WHERE id = $9 AND status = $10`
	result, err := pick(executor, r.db).ExecContext(ctx, query,
		shift.ClosingAmount, shift.CashTotal, shift.CardTotal, shift.OtherTotal,
		shift.ExpectedCash, shift.Variance, models.ShiftStatusClosed, shift.ClosedAt,
		shift.ID, models.ShiftStatusOpen,
	)
	if err != nil {
		return fmt.Errorf("%w: closing shift ID %d: %v", ErrDatabaseError, shift.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: shift ID %d is no longer open", ErrVersionConflict, shift.ID)
	}
	shift.Status = models.ShiftStatusClosed
	return nil
}

// DeleteShift removes a shift only while it is still open.
func (r *staffRepository) DeleteShift(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := pick(executor, r.db).ExecContext(ctx,
		`DELETE FROM shifts WHERE id = $1 AND status = $2`, id, models.ShiftStatusOpen)
	if err != nil {
		return fmt.Errorf("%w: deleting shift ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
