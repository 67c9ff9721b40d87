package employee

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/apperr"
)

// fakeDirectory is an in-memory Directory ordered by creation time.
type fakeDirectory struct {
	employees []Employee
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (*Employee, error) {
	for i := range f.employees {
		if f.employees[i].ID == id {
			return &f.employees[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) GetByEmail(_ context.Context, email string) (*Employee, error) {
	for i := range f.employees {
		if f.employees[i].Email == email {
			return &f.employees[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) NthActive(_ context.Context, n int) (*Employee, error) {
	active := make([]Employee, 0, len(f.employees))
	for _, e := range f.employees {
		if e.Active {
			active = append(active, e)
		}
	}
	if n < 1 || n > len(active) {
		return nil, nil
	}
	return &active[n-1], nil
}

func testDirectory(n int) *fakeDirectory {
	dir := &fakeDirectory{}
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		dir.employees = append(dir.employees, Employee{
			ID:        uuid.NewString(),
			Name:      "Employee " + strconv.Itoa(i+1),
			Email:     "employee" + strconv.Itoa(i+1) + "@company.com",
			Role:      RoleEmployee,
			Active:    true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return dir
}

func TestResolve_ByCanonicalID(t *testing.T) {
	dir := testDirectory(3)
	r := NewResolver(dir)

	emp, err := r.Resolve(context.Background(), dir.employees[1].ID)
	require.NoError(t, err)
	assert.Equal(t, dir.employees[1].Email, emp.Email)
}

func TestResolve_ByEmail(t *testing.T) {
	dir := testDirectory(3)
	r := NewResolver(dir)

	emp, err := r.Resolve(context.Background(), "employee2@company.com")
	require.NoError(t, err)
	assert.Equal(t, dir.employees[1].ID, emp.ID)
}

func TestResolve_Positional(t *testing.T) {
	dir := testDirectory(3)
	r := NewResolver(dir)

	emp, err := r.Resolve(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Employee 3", emp.Name, "3 should resolve to the 3rd-created active employee")
}

func TestResolve_PositionalBeyondCount(t *testing.T) {
	r := NewResolver(testDirectory(2))

	_, err := r.Resolve(context.Background(), "3")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestResolve_PositionalSkipsInactive(t *testing.T) {
	dir := testDirectory(3)
	dir.employees[0].Active = false
	r := NewResolver(dir)

	emp, err := r.Resolve(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Employee 2", emp.Name, "positional index counts active employees only")
}

func TestResolve_EmptyIdentifier(t *testing.T) {
	r := NewResolver(testDirectory(1))

	for _, id := range []string{"", "   "} {
		_, err := r.Resolve(context.Background(), id)
		assert.True(t, apperr.IsKind(err, apperr.InvalidInput), "identifier %q", id)
	}
}

func TestResolve_UnknownEmail(t *testing.T) {
	r := NewResolver(testDirectory(2))

	_, err := r.Resolve(context.Background(), "nobody@company.com")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestResolve_NegativeAndHugeNumbersNotPositional(t *testing.T) {
	r := NewResolver(testDirectory(2))

	for _, id := range []string{"-1", "0", "99999"} {
		_, err := r.Resolve(context.Background(), id)
		assert.True(t, apperr.IsKind(err, apperr.NotFound), "identifier %q", id)
	}
}
