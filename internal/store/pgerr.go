package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes for unique_violation and check_violation.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The check-in path leans on this: the database constraint
// is what arbitrates concurrent check-ins, and this is how the loser
// finds out.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsCheckViolation reports whether err is a Postgres CHECK-constraint
// violation, such as a check-out at or before its check-in. Callers
// map it to a conflict rather than a store outage.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == checkViolation
}
