package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Migrate bootstraps the schema. The UNIQUE (employee_id, day)
// constraint on attendance_records is load-bearing: two concurrent
// check-ins for the same employee and day race on it, and exactly one
// wins.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		department  TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT 'employee',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id            UUID PRIMARY KEY,
		employee_id   UUID NOT NULL REFERENCES employees(id),
		day           DATE NOT NULL,
		check_in_at   TIMESTAMPTZ,
		check_out_at  TIMESTAMPTZ,
		status        TEXT NOT NULL DEFAULT 'present',
		location      TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (employee_id, day),
		CHECK (check_out_at IS NULL OR check_in_at IS NULL OR check_out_at > check_in_at)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance_records(day);

	CREATE TABLE IF NOT EXISTS edit_requests (
		id             UUID PRIMARY KEY,
		employee_id    UUID NOT NULL REFERENCES employees(id),
		record_id      UUID NOT NULL REFERENCES attendance_records(id),
		target_day     DATE NOT NULL,
		original_in    TEXT NOT NULL DEFAULT '',
		original_out   TEXT NOT NULL DEFAULT '',
		requested_in   TEXT NOT NULL DEFAULT '',
		requested_out  TEXT NOT NULL DEFAULT '',
		reason         TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		requested_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_at    TIMESTAMPTZ,
		reviewer_id    UUID REFERENCES employees(id),
		reject_reason  TEXT
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token       TEXT PRIMARY KEY,
		subject     TEXT NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		revoked     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
