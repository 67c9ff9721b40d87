package editreq

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/apperr"
	"timeclock/internal/dayclock"
)

const requestColumns = `id, employee_id, record_id, target_day, original_in, original_out,
	requested_in, requested_out, reason, status, requested_at, reviewed_at, reviewer_id, reject_reason`

// Repository persists edit requests and applies approved corrections.
// The day clock pins "HH:MM on the target day" to the reference
// timezone when requested times are applied.
type Repository struct {
	db    *sql.DB
	clock *dayclock.Clock
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB, clock *dayclock.Clock) *Repository {
	return &Repository{db: db, clock: clock}
}

func scanRequest(scan func(dest ...any) error) (Request, error) {
	var r Request
	err := scan(&r.ID, &r.EmployeeID, &r.RecordID, &r.TargetDay, &r.OriginalIn, &r.OriginalOut,
		&r.RequestedIn, &r.RequestedOut, &r.Reason, &r.Status, &r.RequestedAt,
		&r.ReviewedAt, &r.ReviewerID, &r.RejectReason)
	return r, err
}

// Submit files a correction against an existing attendance record of
// the submitting employee. The original times are snapshotted from the
// record at submission time.
func (r *Repository) Submit(ctx context.Context, employeeID, recordID, requestedIn, requestedOut, reason string) (Request, error) {
	if reason == "" {
		return Request{}, apperr.New(apperr.InvalidInput, "missing_reason", "reason required")
	}

	var (
		day     time.Time
		inAt    sql.NullTime
		outAt   sql.NullTime
		ownerID string
	)
	row := r.db.QueryRowContext(ctx, `
		SELECT employee_id, day, check_in_at, check_out_at
		FROM attendance_records WHERE id = $1
	`, recordID)
	if err := row.Scan(&ownerID, &day, &inAt, &outAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, apperr.New(apperr.NotFound, "record_not_found", "attendance record not found")
		}
		return Request{}, err
	}
	if ownerID != employeeID {
		return Request{}, apperr.New(apperr.InvalidInput, "not_record_owner", "record belongs to another employee")
	}

	// Validate the requested pair before writing anything.
	if _, _, err := requestedTimes(requestedIn, requestedOut, r.clock.Rebase(day)); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		RecordID:     recordID,
		TargetDay:    day,
		OriginalIn:   r.clockString(inAt),
		OriginalOut:  r.clockString(outAt),
		RequestedIn:  requestedIn,
		RequestedOut: requestedOut,
		Reason:       reason,
		Status:       StatusPending,
	}
	row = r.db.QueryRowContext(ctx, `
		INSERT INTO edit_requests
			(id, employee_id, record_id, target_day, original_in, original_out,
			 requested_in, requested_out, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING requested_at
	`, req.ID, req.EmployeeID, req.RecordID, req.TargetDay, req.OriginalIn, req.OriginalOut,
		req.RequestedIn, req.RequestedOut, req.Reason)
	if err := row.Scan(&req.RequestedAt); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Approve flips the request to approved and applies the requested
// times to the attendance record, atomically. The conditional UPDATE
// on status guarantees the pending→approved transition happens at most
// once even under concurrent reviewers.
func (r *Repository) Approve(ctx context.Context, id, reviewerID string) (Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE edit_requests
		SET status = 'approved', reviewed_at = NOW(), reviewer_id = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns+`
	`, id, reviewerID)
	req, err := scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, r.reviewMiss(ctx, id)
		}
		return Request{}, err
	}

	inAt, outAt, err := requestedTimes(req.RequestedIn, req.RequestedOut, r.clock.Rebase(req.TargetDay))
	if err != nil {
		return Request{}, err
	}

	var curIn, curOut sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT check_in_at, check_out_at FROM attendance_records
		WHERE id = $1 FOR UPDATE
	`, req.RecordID).Scan(&curIn, &curOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, apperr.New(apperr.NotFound, "record_not_found", "attendance record not found")
		}
		return Request{}, err
	}
	if err := checkMerged(inAt, outAt, timePtr(curIn), timePtr(curOut)); err != nil {
		return Request{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE attendance_records
		SET check_in_at  = COALESCE($2, check_in_at),
		    check_out_at = COALESCE($3, check_out_at),
		    status = 'present'
		WHERE id = $1
	`, req.RecordID, timeOrNil(inAt), timeOrNil(outAt)); err != nil {
		return Request{}, err
	}

	if err := tx.Commit(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Reject flips the request to rejected with a reason, at most once.
func (r *Repository) Reject(ctx context.Context, id, reviewerID, reason string) (Request, error) {
	if reason == "" {
		return Request{}, apperr.New(apperr.InvalidInput, "missing_reason", "rejection reason required")
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE edit_requests
		SET status = 'rejected', reviewed_at = NOW(), reviewer_id = $2, reject_reason = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns+`
	`, id, reviewerID, reason)
	req, err := scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, r.reviewMiss(ctx, id)
		}
		return Request{}, err
	}
	return req, nil
}

// List returns requests, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM edit_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// reviewMiss explains why a review UPDATE matched nothing.
func (r *Repository) reviewMiss(ctx context.Context, id string) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM edit_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyReviewed
}

// clockString renders a scanned timestamp as wall-clock "HH:MM" in the
// reference timezone, the same frame requested times are resolved in.
// The driver hands timestamptz values back in its own location.
func (r *Repository) clockString(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.In(r.clock.Location()).Format("15:04")
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
