package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"timeclock/internal/apperr"
)

func TestStoreErr_CheckViolationIsConflict(t *testing.T) {
	driverErr := fmt.Errorf("exec: %w", &pgconn.PgError{
		Code:           "23514",
		ConstraintName: "attendance_records_check_out_at_check",
	})

	err := storeErr(driverErr)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "out_not_after_in", apperr.CodeOf(err))
}

func TestStoreErr_TimeoutIsTransient(t *testing.T) {
	err := storeErr(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, apperr.Transient, apperr.KindOf(err))
	assert.Equal(t, "store_timeout", apperr.CodeOf(err))
}

func TestStoreErr_UnknownFailureIsTransient(t *testing.T) {
	err := storeErr(errors.New("connection refused"))
	assert.Equal(t, apperr.Transient, apperr.KindOf(err))
	assert.Equal(t, "store_unavailable", apperr.CodeOf(err))
}
