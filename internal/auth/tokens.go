package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenStore persists refresh tokens for rotation checks.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates the store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Save stores a refresh token.
func (s *TokenStore) Save(ctx context.Context, subject, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, subject, expires_at)
		VALUES ($1, $2, $3)
	`, token, subject, expiresAt)
	return err
}

// Redeem marks a refresh token revoked and returns its subject. A
// token that is unknown, expired or already revoked redeems nothing,
// so a stolen-then-rotated token cannot be replayed.
func (s *TokenStore) Redeem(ctx context.Context, token string) (string, error) {
	var subject string
	err := s.db.QueryRowContext(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token = $1 AND NOT revoked AND expires_at > NOW()
		RETURNING subject
	`, token).Scan(&subject)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("refresh token invalid or expired")
	}
	return subject, err
}
