package notify

import "encoding/json"

// Event names observers subscribe to.
const (
	EventCheckIn  = "employeeCheckIn"
	EventCheckOut = "employeeCheckOut"
)

// CheckInPayload announces a completed check-in.
type CheckInPayload struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Department   string `json:"department"`
	CheckInTime  string `json:"checkInTime"`
	Location     string `json:"location,omitempty"`
}

// CheckOutPayload announces a completed check-out with the elapsed
// duration already rendered ("8h 30m").
type CheckOutPayload struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Department   string `json:"department"`
	CheckOutTime string `json:"checkOutTime"`
	HoursWorked  string `json:"hoursWorked"`
}

// Envelope is the wire form of one realtime event. Origin identifies
// the publishing process so the Redis bridge can drop its own echoes.
type Envelope struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Origin string          `json:"origin,omitempty"`
}

// NewEnvelope marshals payload into an envelope. Marshal failures are
// impossible for the payload types above, so they surface as an error
// only to keep the caller honest.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}
