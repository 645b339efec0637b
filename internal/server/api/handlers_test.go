package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shelf/internal/server/auth"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func testAuthenticator(t *testing.T, password string, ttl time.Duration) *auth.Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return auth.New(string(hash), "test-signing-secret", ttl)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestRequireAdmin(t *testing.T) {
	authn := testAuthenticator(t, "hunter2", 24*time.Hour)

	e := echo.New()
	next := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}
	gated := RequireAdmin(authn)(next)

	t.Run("missing token yields 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/pdfs/1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := gated(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Access denied. No token provided." {
			t.Errorf("unexpected error message: %v", got)
		}
	})

	t.Run("invalid token yields 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/pdfs/1", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := gated(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Invalid token." {
			t.Errorf("unexpected error message: %v", got)
		}
	})

	t.Run("expired token yields 400", func(t *testing.T) {
		expired := testAuthenticator(t, "hunter2", -time.Hour)
		token, err := expired.IssueToken()
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		req := httptest.NewRequest(http.MethodDelete, "/api/pdfs/1", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		gatedExpired := RequireAdmin(expired)(next)
		if err := gatedExpired(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("valid token passes through", func(t *testing.T) {
		token, err := authn.IssueToken()
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		req := httptest.NewRequest(http.MethodDelete, "/api/pdfs/1", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := gated(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestHandleLogin(t *testing.T) {
	authn := testAuthenticator(t, "hunter2", 24*time.Hour)
	h := NewHandler(nil, authn, nil)
	e := echo.New()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := h.HandleLogin(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec
	}

	t.Run("missing password yields 400", func(t *testing.T) {
		rec := post(`{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Password is required" {
			t.Errorf("unexpected error message: %v", got)
		}
	})

	t.Run("wrong password yields 401", func(t *testing.T) {
		rec := post(`{"password":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Invalid password" {
			t.Errorf("unexpected error message: %v", got)
		}
	})

	t.Run("correct password yields usable token", func(t *testing.T) {
		rec := post(`{"password":"hunter2"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		if body["message"] != "Login successful" {
			t.Errorf("unexpected message: %v", body["message"])
		}
		if body["expiresIn"] != "24h" {
			t.Errorf("unexpected expiry label: %v", body["expiresIn"])
		}

		token, _ := body["token"].(string)
		if token == "" {
			t.Fatal("expected a token in the response")
		}
		if _, err := authn.Authenticate(token); err != nil {
			t.Errorf("issued token failed verification: %v", err)
		}
	})
}

func TestHandleVerify(t *testing.T) {
	authn := testAuthenticator(t, "hunter2", 24*time.Hour)
	h := NewHandler(nil, authn, nil)
	e := echo.New()

	get := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		if authHeader != "" {
			req.Header.Set(echo.HeaderAuthorization, authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := h.HandleVerify(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec
	}

	t.Run("missing token is 401 and invalid", func(t *testing.T) {
		rec := get("")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["valid"]; got != false {
			t.Errorf("expected valid=false, got %v", got)
		}
	})

	t.Run("bad token is 200 and invalid, never an error", func(t *testing.T) {
		rec := get("Bearer garbage")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["valid"]; got != false {
			t.Errorf("expected valid=false, got %v", got)
		}
	})

	t.Run("good token is valid", func(t *testing.T) {
		token, err := authn.IssueToken()
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		rec := get("Bearer " + token)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["valid"]; got != true {
			t.Errorf("expected valid=true, got %v", got)
		}
	})
}
