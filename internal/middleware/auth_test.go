package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fee-backend/internal/auth"
	"fee-backend/internal/config"
	"fee-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func testAuthMiddleware() *AuthMiddleware {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "fee-backend-test"
	return NewAuthMiddleware(auth.NewJWTManager(cfg), repositories.NewUserRepository(nil))
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	m := testAuthMiddleware()
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/members", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	m := testAuthMiddleware()
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	for _, header := range []string{"token-without-scheme", "Basic abc123"} {
		req := httptest.NewRequest("GET", "/api/members", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	m := testAuthMiddleware()
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest("POST", "/api/fee-records/1/payments", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, 1)
	ctx = context.WithValue(ctx, RoleKey, role)
	return req.WithContext(ctx)
}

func TestRequireRoleGatesByRole(t *testing.T) {
	m := testAuthMiddleware()
	var called bool
	gate := m.RequireRole("accountant")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, requestWithRole("staff"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, requestWithRole("accountant"))
	assert.True(t, called)

	// Admins pass every gate
	called = false
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, requestWithRole("admin"))
	assert.True(t, called)
}
