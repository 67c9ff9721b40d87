package attendance

import "timeclock/internal/apperr"

// Terminal outcomes of the per-day state machine. All are permanent
// for the current request; none is retried automatically.
var (
	ErrAlreadyCheckedIn  = apperr.New(apperr.Conflict, "already_checked_in", "already checked in today")
	ErrAlreadyCheckedOut = apperr.New(apperr.Conflict, "already_checked_out", "already checked out today")
	ErrNoCheckInToday    = apperr.New(apperr.NotFound, "no_check_in_today", "no check-in recorded today")
)
