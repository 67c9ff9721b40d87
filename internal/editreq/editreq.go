package editreq

import (
	"fmt"
	"time"

	"timeclock/internal/apperr"
)

// Review statuses. A request leaves pending exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is an employee-submitted correction to a past attendance
// record. Times travel as "HH:MM" strings; they are resolved against
// the target day in the reference timezone only when applied.
type Request struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	RecordID     string     `json:"record_id"`
	TargetDay    time.Time  `json:"target_date"`
	OriginalIn   string     `json:"original_in"`
	OriginalOut  string     `json:"original_out"`
	RequestedIn  string     `json:"requested_in"`
	RequestedOut string     `json:"requested_out"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID   *string    `json:"reviewer_id,omitempty"`
	RejectReason *string    `json:"reject_reason,omitempty"`
}

// Sentinel review errors.
var (
	ErrNotFound        = apperr.New(apperr.NotFound, "edit_request_not_found", "edit request not found")
	ErrAlreadyReviewed = apperr.New(apperr.Conflict, "edit_request_reviewed", "edit request already reviewed")
)

// parseClock resolves an "HH:MM" wall-clock string against day in
// day's location. Empty strings mean "leave unset".
func parseClock(value string, day time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "bad_time", err, "time %q must be HH:MM", value)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
	return &t, nil
}

// requestedTimes validates and resolves both requested times; the pair
// must keep check-out after check-in.
func requestedTimes(in, out string, day time.Time) (*time.Time, *time.Time, error) {
	inAt, err := parseClock(in, day)
	if err != nil {
		return nil, nil, err
	}
	outAt, err := parseClock(out, day)
	if err != nil {
		return nil, nil, err
	}
	if inAt != nil && outAt != nil && !outAt.After(*inAt) {
		return nil, nil, apperr.New(apperr.InvalidInput, "out_before_in",
			fmt.Sprintf("requested check-out %s is not after check-in %s", out, in))
	}
	return inAt, outAt, nil
}

// checkMerged overlays the requested times on the record's current
// ones and re-checks ordering. A one-sided correction that is coherent
// on its own can still put check-out at or before the untouched
// check-in; that surfaces here instead of as a raw constraint error.
func checkMerged(reqIn, reqOut, curIn, curOut *time.Time) error {
	in, out := curIn, curOut
	if reqIn != nil {
		in = reqIn
	}
	if reqOut != nil {
		out = reqOut
	}
	if in != nil && out != nil && !out.After(*in) {
		return apperr.New(apperr.Conflict, "correction_out_of_order",
			fmt.Sprintf("correction would put check-out %s at or before check-in %s",
				out.Format("15:04"), in.Format("15:04")))
	}
	return nil
}
