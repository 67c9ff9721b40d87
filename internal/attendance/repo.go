package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/apperr"
	"timeclock/internal/store"
)

const recordColumns = `id, employee_id, day, check_in_at, check_out_at, status, location, created_at`

// Repository persists attendance records in Postgres. The per-day
// uniqueness invariant lives in the UNIQUE (employee_id, day)
// constraint, never in application-level read-then-write.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var rec Record
	err := scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.CheckInAt, &rec.CheckOutAt, &rec.Status, &rec.Location, &rec.CreatedAt)
	return rec, err
}

// FindDay returns the record for (employee, day) or nil.
func (r *Repository) FindDay(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE employee_id = $1 AND day = $2
	`, employeeID, day)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return &rec, nil
}

// CreateCheckIn inserts the day's record with the check-in timestamp
// set. Two concurrent calls for the same (employee, day) race on the
// unique constraint; the loser gets a Conflict.
func (r *Repository) CreateCheckIn(ctx context.Context, employeeID string, day, ts time.Time, location string) (Record, error) {
	rec := Record{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Day:        day,
		CheckInAt:  &ts,
		Status:     StatusPresent,
		Location:   location,
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, day, check_in_at, status, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, rec.ID, rec.EmployeeID, rec.Day, ts, rec.Status, rec.Location)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Record{}, ErrAlreadyCheckedIn
		}
		return Record{}, storeErr(err)
	}
	return rec, nil
}

// RecordCheckOut sets the check-out timestamp on the day's record. The
// UPDATE is conditional on check_out_at being unset, so the record is
// mutated exactly once; a follow-up read distinguishes "no check-in
// today" from "already checked out".
func (r *Repository) RecordCheckOut(ctx context.Context, employeeID string, day, ts time.Time) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET check_out_at = $3
		WHERE employee_id = $1 AND day = $2 AND check_out_at IS NULL AND check_in_at IS NOT NULL
		RETURNING `+recordColumns+`
	`, employeeID, day, ts)
	rec, err := scanRecord(row.Scan)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, storeErr(err)
	}

	existing, ferr := r.FindDay(ctx, employeeID, day)
	if ferr != nil {
		return Record{}, ferr
	}
	if existing == nil || existing.CheckInAt == nil {
		return Record{}, ErrNoCheckInToday
	}
	return Record{}, ErrAlreadyCheckedOut
}

// QueryRange returns the employee's records with day in [start, end].
func (r *Repository) QueryRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE employee_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day ASC
	`, employeeID, start, end)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkAbsentees inserts status=absent records for every active
// employee with no record for day. Riding the same unique constraint
// as check-in means this can never clobber a real record.
func (r *Repository) MarkAbsentees(ctx context.Context, day time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, day, status)
		SELECT gen_random_uuid(), e.id, $1, 'absent'
		FROM employees e
		WHERE e.active
		ON CONFLICT (employee_id, day) DO NOTHING
	`, day)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.RowsAffected()
}

// storeErr maps driver failures to the Transient kind so callers can
// tell "the store said no" from "the store is down". Constraint
// violations are the store saying no: the only CHECK on
// attendance_records is check_out_at > check_in_at.
func storeErr(err error) error {
	if store.IsCheckViolation(err) {
		return apperr.Wrap(apperr.Conflict, "out_not_after_in", err, "check-out must be after check-in")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.Transient, "store_timeout", err, "attendance store timed out")
	}
	return apperr.Wrap(apperr.Transient, "store_unavailable", err, "attendance store query failed")
}
