// Package session turns the auth cookie's bearer token into an explicit
// session object, built once at the HTTP boundary and threaded to every
// service call. Nothing below the boundary reads cookies.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

// ErrInvalidToken is returned when the bearer token is missing, expired,
// malformed, or carries an unknown role
var ErrInvalidToken = errors.New("invalid session token")

// Session identifies the acting user for the duration of one request
type Session struct {
	UserID string
	Name   string
	Role   workflow.Role
	Token  string
}

// Claims are the JWT claims the login service issues. Role travels in the
// token so the workflow engine can gate transitions without a user lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Parse validates the token and builds the session. The raw token is kept
// on the session because every upstream call forwards it as the bearer
// credential.
func Parse(secret, token string) (Session, error) {
	if secret == "" || token == "" {
		return Session{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	role := workflow.Role(claims.Role)
	if !role.IsValid() {
		return Session{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return Session{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   role,
		Token:  token,
	}, nil
}

// Generate issues a signed token for the given user. The login flow lives
// in the upstream API; this is kept for local tooling and tests.
func Generate(secret, userID, name string, role workflow.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session: empty secret")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Name:   name,
		Role:   role.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
