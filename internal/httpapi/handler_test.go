package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/apperr"
	"timeclock/internal/attendance"
	"timeclock/internal/config"
	"timeclock/internal/editreq"
	"timeclock/internal/employee"
	"timeclock/internal/notify"
)

// stubAttendance scripts the service layer per test.
type stubAttendance struct {
	checkIn  func(identifier, location string) (attendance.CheckInResult, error)
	checkOut func(identifier string) (attendance.CheckOutResult, error)
	today    func(identifier string) (attendance.TodayStatus, error)
	month    func(identifier string, month, year int) ([]attendance.Record, error)
}

func (s *stubAttendance) CheckIn(_ context.Context, identifier, location string) (attendance.CheckInResult, error) {
	return s.checkIn(identifier, location)
}
func (s *stubAttendance) CheckOut(_ context.Context, identifier string) (attendance.CheckOutResult, error) {
	return s.checkOut(identifier)
}
func (s *stubAttendance) Today(_ context.Context, identifier string) (attendance.TodayStatus, error) {
	return s.today(identifier)
}
func (s *stubAttendance) Month(_ context.Context, identifier string, month, year int) ([]attendance.Record, error) {
	return s.month(identifier, month, year)
}

type stubEdits struct{}

func (stubEdits) Submit(context.Context, string, string, string, string, string) (editreq.Request, error) {
	return editreq.Request{}, nil
}
func (stubEdits) Approve(context.Context, string, string) (editreq.Request, error) {
	return editreq.Request{}, nil
}
func (stubEdits) Reject(context.Context, string, string, string) (editreq.Request, error) {
	return editreq.Request{}, nil
}
func (stubEdits) List(context.Context, string) ([]editreq.Request, error) { return nil, nil }

type stubDirectory struct{}

func (stubDirectory) ListActive(context.Context) ([]employee.Employee, error) {
	return []employee.Employee{{ID: "e1", Name: "Vijay Solanki", Active: true}}, nil
}
func (stubDirectory) GetByEmail(context.Context, string) (*employee.Employee, error) {
	return nil, nil
}

func newTestRouter(att AttendanceService, hub *notify.Hub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if hub == nil {
		hub = notify.NewHub()
	}
	h := New(att, stubEdits{}, stubDirectory{}, hub, nil, config.App{JWTIssuer: "test", JWTSigningKey: "test-key"})
	r := gin.New()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckIn_Created(t *testing.T) {
	now := time.Now()
	att := &stubAttendance{
		checkIn: func(identifier, location string) (attendance.CheckInResult, error) {
			assert.Equal(t, "emp-1", identifier)
			assert.Equal(t, "HQ", location)
			return attendance.CheckInResult{
				Record:   attendance.Record{ID: "rec-1", EmployeeID: "emp-1", CheckInAt: &now, Status: attendance.StatusPresent},
				Employee: employee.Employee{ID: "emp-1", Name: "Vijay Solanki", Department: "Engineering"},
			}, nil
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkin", `{"employeeId":"emp-1","location":"HQ"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Vijay Solanki", body["employeeName"])
}

func TestCheckIn_ConflictIs400WithCode(t *testing.T) {
	att := &stubAttendance{
		checkIn: func(string, string) (attendance.CheckInResult, error) {
			return attendance.CheckInResult{}, attendance.ErrAlreadyCheckedIn
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkin", `{"employeeId":"emp-1"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(apperr.Conflict), body["kind"])
	assert.Equal(t, "already_checked_in", body["code"])
}

func TestCheckIn_MissingBody(t *testing.T) {
	att := &stubAttendance{
		checkIn: func(string, string) (attendance.CheckInResult, error) {
			t.Fatal("service must not be reached")
			return attendance.CheckInResult{}, nil
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkin", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckIn_TransientIs503(t *testing.T) {
	att := &stubAttendance{
		checkIn: func(string, string) (attendance.CheckInResult, error) {
			return attendance.CheckInResult{}, apperr.New(apperr.Transient, "store_timeout", "attendance store timed out")
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkin", `{"employeeId":"emp-1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckOut_IncludesHoursWorked(t *testing.T) {
	in := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)
	att := &stubAttendance{
		checkOut: func(string) (attendance.CheckOutResult, error) {
			return attendance.CheckOutResult{
				Record:      attendance.Record{ID: "rec-1", CheckInAt: &in, CheckOutAt: &out},
				Employee:    employee.Employee{Name: "Vijay Solanki"},
				HoursWorked: "8h 30m",
			}, nil
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkout", `{"employeeId":"emp-1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "8h 30m", body["hoursWorked"])
}

func TestCheckOut_NoCheckInIs400(t *testing.T) {
	att := &stubAttendance{
		checkOut: func(string) (attendance.CheckOutResult, error) {
			return attendance.CheckOutResult{}, attendance.ErrNoCheckInToday
		},
	}
	w := doJSON(t, newTestRouter(att, nil), http.MethodPost, "/attendance/checkout", `{"employeeId":"emp-1"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no_check_in_today", body["code"])
}

func TestToday(t *testing.T) {
	att := &stubAttendance{
		today: func(identifier string) (attendance.TodayStatus, error) {
			assert.Equal(t, "emp-1", identifier)
			return attendance.TodayStatus{IsCheckedIn: true}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/attendance/today/emp-1", nil)
	w := httptest.NewRecorder()
	newTestRouter(att, nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var st attendance.TodayStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.IsCheckedIn)
	assert.False(t, st.IsCheckedOut)
}

func TestMonth_BadMonthParam(t *testing.T) {
	att := &stubAttendance{
		month: func(string, int, int) ([]attendance.Record, error) {
			return nil, apperr.New(apperr.InvalidInput, "bad_month", "month must be 1-12")
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/attendance/employee/emp-1/13/2025", nil)
	w := httptest.NewRecorder()
	newTestRouter(att, nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditRequests_RequireAuth(t *testing.T) {
	w := doJSON(t, newTestRouter(&stubAttendance{}, nil), http.MethodPost, "/attendance/edit-requests", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// closeNotifyRecorder adds the CloseNotifier gin's Stream expects of
// the response writer.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStream_DeliversBroadcastAsSSE(t *testing.T) {
	hub := notify.NewHub()
	r := newTestRouter(&stubAttendance{}, hub)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/attendance/stream", nil).WithContext(ctx)
	w := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	// Wait for the handler to subscribe before broadcasting.
	require.Eventually(t, func() bool { return hub.Observers() == 1 }, time.Second, time.Millisecond)

	env, err := notify.NewEnvelope(notify.EventCheckIn, notify.CheckInPayload{EmployeeID: "emp-1"})
	require.NoError(t, err)
	hub.Broadcast(env)

	// The stream drains delivered events before honoring cancellation.
	cancel()
	<-done

	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "employeeCheckIn")
	assert.Contains(t, w.Body.String(), "emp-1")
}
