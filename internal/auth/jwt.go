package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types. Access tokens authenticate requests; refresh tokens are
// only good for rotation at /auth/refresh. Parse enforces the split so
// a long-lived refresh token can never ride the Authorization header.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenPair holds the session tokens issued at login and rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims is the employee session payload. Subject is the canonical
// employee id; Role gates the admin review endpoints.
type Claims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Issue signs an access/refresh pair for the employee. The refresh
// token carries a unique jti so every rotation stores a distinct row.
func Issue(subject, role, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	pair := TokenPair{
		AccessExp:  now.Add(accessTTL),
		RefreshExp: now.Add(refreshTTL),
	}

	var err error
	pair.AccessToken, err = sign(subject, role, TokenAccess, issuer, key, now, pair.AccessExp)
	if err != nil {
		return TokenPair{}, err
	}
	pair.RefreshToken, err = sign(subject, role, TokenRefresh, issuer, key, now, pair.RefreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func sign(subject, role, tokenType, issuer, key string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Subject:   subject,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	if tokenType == TokenRefresh {
		claims.ID = uuid.NewString()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates a token of the wanted type and returns its claims.
func Parse(tokenStr, key, issuer, wantType string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.TokenType != wantType {
		return Claims{}, errors.New("wrong token type")
	}
	return *claims, nil
}
