package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestVerifyPassword(t *testing.T) {
	a := New(testHash(t, "hunter2"), "signing-secret", 24*time.Hour)

	t.Run("accepts correct password", func(t *testing.T) {
		if !a.VerifyPassword("hunter2") {
			t.Error("expected correct password to verify")
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		if a.VerifyPassword("hunter3") {
			t.Error("expected wrong password to fail")
		}
	})

	t.Run("rejects empty password", func(t *testing.T) {
		if a.VerifyPassword("") {
			t.Error("expected empty password to fail")
		}
	})
}

func TestIssueAndAuthenticate(t *testing.T) {
	hash := testHash(t, "hunter2")

	t.Run("issued token authenticates immediately", func(t *testing.T) {
		a := New(hash, "signing-secret", 24*time.Hour)

		token, err := a.IssueToken()
		if err != nil {
			t.Fatalf("unexpected error issuing token: %v", err)
		}

		claims, err := a.Authenticate(token)
		if err != nil {
			t.Fatalf("unexpected error authenticating: %v", err)
		}
		if !claims.Admin {
			t.Error("expected admin claim to be set")
		}
		if claims.IssuedAt == nil || claims.ExpiresAt == nil {
			t.Fatal("expected issued-at and expiry claims")
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
			t.Errorf("expected 24h validity window, got %v", got)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		a := New(hash, "signing-secret", -time.Hour)

		token, err := a.IssueToken()
		if err != nil {
			t.Fatalf("unexpected error issuing token: %v", err)
		}

		if _, err := a.Authenticate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		issuer := New(hash, "secret-one", 24*time.Hour)
		verifier := New(hash, "secret-two", 24*time.Hour)

		token, err := issuer.IssueToken()
		if err != nil {
			t.Fatalf("unexpected error issuing token: %v", err)
		}

		if _, err := verifier.Authenticate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
		}
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		a := New(hash, "signing-secret", 24*time.Hour)

		if _, err := a.Authenticate("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("distinguishes missing token", func(t *testing.T) {
		a := New(hash, "signing-secret", 24*time.Hour)

		if _, err := a.Authenticate(""); !errors.Is(err, ErrNoToken) {
			t.Errorf("expected ErrNoToken, got %v", err)
		}
	})
}
