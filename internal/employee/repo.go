package employee

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"timeclock/internal/apperr"
	"timeclock/internal/store"
)

const employeeColumns = `id, name, email, department, role, active, created_at`

// Repository persists the employee directory in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanEmployee(row *sql.Row) (*Employee, error) {
	var e Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Role, &e.Active, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// GetByID looks an employee up by canonical identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a canonical identifier; let the next resolver try.
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+` FROM employees WHERE id = $1
	`, id)
	return scanEmployee(row)
}

// GetByEmail looks an employee up by exact email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+` FROM employees WHERE email = $1
	`, email)
	return scanEmployee(row)
}

// NthActive returns the n-th (1-based) active employee ordered by
// creation time, or nil when fewer than n exist.
func (r *Repository) NthActive(ctx context.Context, n int) (*Employee, error) {
	if n < 1 {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE active
		ORDER BY created_at ASC, id ASC
		OFFSET $1 LIMIT 1
	`, n-1)
	return scanEmployee(row)
}

// ListActive returns all active employees ordered by creation time.
func (r *Repository) ListActive(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE active
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Role, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new employee. Fails with Conflict when the email is
// already taken.
func (r *Repository) Create(ctx context.Context, e Employee) (Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Role == "" {
		e.Role = RoleEmployee
	}
	e.Active = true
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO employees (id, name, email, department, role, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING created_at
	`, e.ID, e.Name, e.Email, e.Department, e.Role)
	if err := row.Scan(&e.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Employee{}, apperr.New(apperr.Conflict, "email_taken", "email already registered")
		}
		return Employee{}, err
	}
	return e, nil
}

// Deactivate soft-deletes an employee.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "employee_not_found", "employee not found")
	}
	return nil
}

// seedEmployee is one fixed demo directory entry.
type seedEmployee struct {
	name       string
	email      string
	department string
	role       string
}

var demoSeed = []seedEmployee{
	{"Vijay Solanki", "vijay.solanki@company.com", "Engineering", RoleEmployee},
	{"Priya Nair", "priya.nair@company.com", "Engineering", RoleEmployee},
	{"Arjun Mehta", "arjun.mehta@company.com", "Design", RoleEmployee},
	{"Kavita Rao", "kavita.rao@company.com", "Operations", RoleEmployee},
	{"Suresh Iyer", "suresh.iyer@company.com", "HR", RoleAdmin},
}

// SeedDemo provisions the fixed demo employee set, idempotently. Rows
// are keyed on email, so concurrent callers and repeated startups are
// harmless.
func (r *Repository) SeedDemo(ctx context.Context) error {
	for _, s := range demoSeed {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO employees (id, name, email, department, role, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (email) DO NOTHING
		`, uuid.NewString(), s.name, s.email, s.department, s.role)
		if err != nil {
			return err
		}
	}
	return nil
}
