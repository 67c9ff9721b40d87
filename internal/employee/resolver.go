package employee

import (
	"context"
	"strconv"
	"strings"

	"timeclock/internal/apperr"
)

// Directory is the read surface the resolver needs from the employee
// store.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	NthActive(ctx context.Context, n int) (*Employee, error)
}

// Sentinel errors surfaced by Resolve.
var (
	ErrMissingIdentifier = apperr.New(apperr.InvalidInput, "missing_identifier", "employee identifier required")
	ErrNotFound          = apperr.New(apperr.NotFound, "employee_not_found", "employee not found")
)

// Positional fallback only applies to bare integers this small. It is
// a compatibility shim for demo clients that address employees as
// "employee #3"; remove once those callers pass canonical identifiers.
const maxPositionalIndex = 1000

// Resolver maps a caller-supplied identifier of unspecified shape to
// exactly one employee. It tries canonical id, then exact email, then
// the positional shim, short-circuiting on the first match. It never
// guesses among multiple candidates.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver over the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the one employee the identifier denotes, or an error
// of kind InvalidInput (empty identifier) or NotFound.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Employee, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}

	emp, err := r.dir.GetByID(ctx, identifier)
	if err != nil {
		return nil, apperr.Wrap(apperr.Transient, "directory_unavailable", err, "employee lookup failed")
	}
	if emp != nil {
		return emp, nil
	}

	if strings.Contains(identifier, "@") {
		emp, err = r.dir.GetByEmail(ctx, identifier)
		if err != nil {
			return nil, apperr.Wrap(apperr.Transient, "directory_unavailable", err, "employee lookup failed")
		}
		if emp != nil {
			return emp, nil
		}
	}

	if n, ok := positionalIndex(identifier); ok {
		emp, err = r.dir.NthActive(ctx, n)
		if err != nil {
			return nil, apperr.Wrap(apperr.Transient, "directory_unavailable", err, "employee lookup failed")
		}
		if emp != nil {
			return emp, nil
		}
	}

	return nil, ErrNotFound
}

// positionalIndex parses identifier as a 1-based position into the
// active employee set. Only bare small positive integers qualify.
func positionalIndex(identifier string) (int, bool) {
	n, err := strconv.Atoi(identifier)
	if err != nil || n < 1 || n > maxPositionalIndex {
		return 0, false
	}
	return n, true
}
