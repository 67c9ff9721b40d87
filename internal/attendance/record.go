package attendance

import (
	"fmt"
	"time"
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
	StatusHoliday = "holiday"
)

// Record is the presence state of one employee for one calendar day.
// At most one exists per (employee, day); the database enforces it.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Day        time.Time  `json:"date"`
	CheckInAt  *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt *time.Time `json:"check_out_at,omitempty"`
	Status     string     `json:"status"`
	Location   string     `json:"location,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// HoursWorked renders the elapsed time between check-in and check-out
// as whole hours and remainder minutes, e.g. "8h 30m". Floor division:
// 8h 59m 59s is still "8h 59m".
func HoursWorked(in, out time.Time) string {
	d := out.Sub(in)
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}
