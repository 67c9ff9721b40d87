package dayclock

import (
	"fmt"
	"time"
)

// Clock pins every "what day is it" question to a single reference
// timezone. One instance is built at startup and injected everywhere a
// calendar day is computed, so the store, the handlers and the worker
// can never disagree on where midnight falls.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the IANA timezone and returns a clock over it.
func New(tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("dayclock: load timezone %q: %w", tz, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewAt returns a clock with a fixed now, for tests.
func NewAt(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

// Now returns the current instant in the reference timezone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// DayOf truncates t to midnight in the reference timezone.
func (c *Clock) DayOf(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Today returns midnight of the current day.
func (c *Clock) Today() time.Time { return c.DayOf(c.now()) }

// Rebase reinterprets the calendar date of d, as rendered in d's own
// location, as midnight in the reference timezone. DATE columns come
// back from the driver in UTC; this pins them to the zone the rest of
// the system reasons in without shifting the date.
func (c *Clock) Rebase(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

// NextBoundary returns the upcoming midnight, used by the worker to
// schedule day-close work.
func (c *Clock) NextBoundary() time.Time {
	return c.Today().AddDate(0, 0, 1)
}

// MonthRange returns the first day of (month, year) and the first day
// of the following month. month is 1-based.
func (c *Clock) MonthRange(month time.Month, year int) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 1, 0)
}

// Location exposes the reference timezone.
func (c *Clock) Location() *time.Location { return c.loc }
