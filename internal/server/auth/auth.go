// Package auth implements the admin credential check: password verification
// against a configured bcrypt hash and stateless signed bearer tokens.
//
// Tokens carry a fixed expiry and are never tracked server-side; a leaked
// token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload embedded in admin tokens.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Authenticator verifies the admin password and issues/validates tokens.
type Authenticator struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
}

// New creates an Authenticator from a bcrypt password hash, a token signing
// secret, and a token lifetime.
func New(passwordHash, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
	}
}

// VerifyPassword reports whether candidate matches the configured admin
// password. bcrypt comparison is constant-time.
func (a *Authenticator) VerifyPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(candidate)) == nil
}

// IssueToken returns a signed admin token valid for the configured lifetime.
func (a *Authenticator) IssueToken() (string, error) {
	now := time.Now()
	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate validates a presented bearer token. It returns ErrNoToken for
// an empty token and ErrInvalidToken for anything malformed, expired, or
// signed with the wrong secret.
func (a *Authenticator) Authenticate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || !claims.Admin {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the configured token lifetime.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}
