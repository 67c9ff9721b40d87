package employee

import "time"

// Roles an employee can hold.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Employee is a person eligible to check in. ID is system-assigned and
// immutable; email is unique among active employees. Employees are
// soft-deleted (Active cleared) so historical attendance stays
// attributable.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
