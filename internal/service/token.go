package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/sordb/internal/domain"
)

// Tokens mints and validates short-lived HS256 bearer tokens. A caller that
// holds the API key can exchange it for a token, so browser tooling and
// short-lived automation never have to carry the long-lived key itself.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token service signing with secret. Tokens expire after
// ttl.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token and its expiry time.
func (t *Tokens) Issue() (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(t.ttl)

	claims := jwt.MapClaims{
		"sub": "api",
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Validate parses and verifies a token string.
func (t *Tokens) Validate(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.ErrUnauthorized
	}
	return nil
}
