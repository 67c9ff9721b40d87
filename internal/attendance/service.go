package attendance

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"timeclock/internal/apperr"
	"timeclock/internal/dayclock"
	"timeclock/internal/employee"
	"timeclock/internal/metrics"
	"timeclock/internal/notify"
	"timeclock/internal/queue"
)

// RecordStore is the persistence surface the service drives. The
// Postgres Repository implements it; tests use an in-memory fake.
type RecordStore interface {
	FindDay(ctx context.Context, employeeID string, day time.Time) (*Record, error)
	CreateCheckIn(ctx context.Context, employeeID string, day, ts time.Time, location string) (Record, error)
	RecordCheckOut(ctx context.Context, employeeID string, day, ts time.Time) (Record, error)
	QueryRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error)
}

// IdentityResolver maps a caller-supplied identifier to one employee.
type IdentityResolver interface {
	Resolve(ctx context.Context, identifier string) (*employee.Employee, error)
}

// Broadcaster delivers realtime events; it must never block or fail
// the mutation that triggered it.
type Broadcaster interface {
	Broadcast(env notify.Envelope)
}

// Service runs the per-(employee, day) state machine:
// NoRecord → CheckedIn → CheckedOut, CheckedOut terminal.
type Service struct {
	store    RecordStore
	resolver IdentityResolver
	clock    *dayclock.Clock
	notifier Broadcaster
	work     queue.Queue
}

// NewService wires the service. notifier and work may be nil.
func NewService(store RecordStore, resolver IdentityResolver, clock *dayclock.Clock, notifier Broadcaster, work queue.Queue) *Service {
	return &Service{store: store, resolver: resolver, clock: clock, notifier: notifier, work: work}
}

// CheckInResult is the caller-visible outcome of a check-in.
type CheckInResult struct {
	Record   Record
	Employee employee.Employee
}

// CheckOutResult adds the rendered elapsed duration.
type CheckOutResult struct {
	Record      Record
	Employee    employee.Employee
	HoursWorked string
}

// CheckIn records the first presence of the day for the identified
// employee. Exactly one concurrent attempt for the same day can
// succeed; the rest surface ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, identifier, location string) (CheckInResult, error) {
	emp, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		countRejection(err)
		return CheckInResult{}, err
	}

	now := s.clock.Now()
	rec, err := s.store.CreateCheckIn(ctx, emp.ID, s.clock.DayOf(now), now, location)
	if err != nil {
		countRejection(err)
		return CheckInResult{}, err
	}
	metrics.CheckIns.Inc()

	s.emit(notify.EventCheckIn, notify.CheckInPayload{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Department:   emp.Department,
		CheckInTime:  now.Format(time.RFC3339),
		Location:     location,
	})
	s.enqueue(ctx, queue.KindCheckIn, rec)

	return CheckInResult{Record: rec, Employee: *emp}, nil
}

// CheckOut closes the day's record. Requires a prior check-in
// (ErrNoCheckInToday otherwise) and happens at most once per day
// (ErrAlreadyCheckedOut on repeats).
func (s *Service) CheckOut(ctx context.Context, identifier string) (CheckOutResult, error) {
	emp, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		countRejection(err)
		return CheckOutResult{}, err
	}

	now := s.clock.Now()
	rec, err := s.store.RecordCheckOut(ctx, emp.ID, s.clock.DayOf(now), now)
	if err != nil {
		countRejection(err)
		return CheckOutResult{}, err
	}
	metrics.CheckOuts.Inc()

	hours := HoursWorked(*rec.CheckInAt, *rec.CheckOutAt)
	s.emit(notify.EventCheckOut, notify.CheckOutPayload{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Department:   emp.Department,
		CheckOutTime: now.Format(time.RFC3339),
		HoursWorked:  hours,
	})
	s.enqueue(ctx, queue.KindCheckOut, rec)

	return CheckOutResult{Record: rec, Employee: *emp, HoursWorked: hours}, nil
}

// TodayStatus reports where the identified employee sits in today's
// state machine.
type TodayStatus struct {
	IsCheckedIn  bool    `json:"isCheckedIn"`
	IsCheckedOut bool    `json:"isCheckedOut"`
	Record       *Record `json:"record,omitempty"`
}

// Today returns the current day's status for the identified employee.
func (s *Service) Today(ctx context.Context, identifier string) (TodayStatus, error) {
	emp, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return TodayStatus{}, err
	}
	rec, err := s.store.FindDay(ctx, emp.ID, s.clock.Today())
	if err != nil {
		return TodayStatus{}, err
	}
	st := TodayStatus{Record: rec}
	if rec != nil {
		st.IsCheckedIn = rec.CheckInAt != nil
		st.IsCheckedOut = rec.CheckOutAt != nil
	}
	return st, nil
}

// Month returns the identified employee's records for a calendar
// month. month is 1-based.
func (s *Service) Month(ctx context.Context, identifier string, month, year int) ([]Record, error) {
	if month < 1 || month > 12 {
		return nil, apperr.New(apperr.InvalidInput, "bad_month", "month must be 1-12")
	}
	emp, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	start, next := s.clock.MonthRange(time.Month(month), year)
	return s.store.QueryRange(ctx, emp.ID, start, next.AddDate(0, 0, -1))
}

// emit hands a realtime event to the notifier. Called only after the
// store commit; never blocks, never fails the request.
func (s *Service) emit(event string, payload any) {
	if s.notifier == nil {
		return
	}
	env, err := notify.NewEnvelope(event, payload)
	if err != nil {
		log.Printf("attendance: drop %s event: %v", event, err)
		return
	}
	metrics.EventsBroadcast.WithLabelValues(event).Inc()
	s.notifier.Broadcast(env)
}

// enqueue publishes a work message for the worker, best-effort.
func (s *Service) enqueue(ctx context.Context, kind string, rec Record) {
	if s.work == nil {
		return
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.work.Publish(ctx, queue.Message{Kind: kind, Body: body}); err != nil {
		log.Printf("attendance: queue publish failed: %v", err)
	}
}

func countRejection(err error) {
	if code := apperr.CodeOf(err); code != "" {
		metrics.RejectedTransitions.WithLabelValues(code).Inc()
	}
}
