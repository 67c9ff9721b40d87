package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(Conflict, "already_checked_in", "already checked in today")
	assert.Equal(t, Conflict, KindOf(err))
	assert.Equal(t, "already_checked_in", CodeOf(err))
	assert.True(t, IsKind(err, Conflict))
	assert.False(t, IsKind(err, NotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(NotFound, "employee_not_found", "no such employee")
	wrapped := fmt.Errorf("resolve: %w", inner)
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, "employee_not_found", CodeOf(wrapped))
}

func TestErrorsIs_MatchesByKindAndCode(t *testing.T) {
	sentinel := New(Conflict, "already_checked_out", "already checked out")
	err := fmt.Errorf("checkout: %w", New(Conflict, "already_checked_out", "already checked out"))
	assert.True(t, errors.Is(err, sentinel))

	other := New(Conflict, "already_checked_in", "already checked in")
	assert.False(t, errors.Is(err, other))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Transient, "store_unavailable", cause, "attendance store query failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
