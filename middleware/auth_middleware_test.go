package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s *stubValidator) ValidateToken(_ context.Context, token string) (*Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func okHandler(captured **Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = GetClaimsFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token passes with claims in context", func(t *testing.T) {
		var seen *Claims
		m := NewAuthMiddleware(&stubValidator{claims: &Claims{Subject: "u1", Roles: []string{"admin"}}}, zap.NewNop(), false)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(&seen)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, seen)
		assert.Equal(t, "u1", seen.Subject)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{}, zap.NewNop(), false)

		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{}, zap.NewNop(), false)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected token is unauthorized", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{err: errors.New("expired")}, zap.NewNop(), false)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled mode passes anonymously", func(t *testing.T) {
		var seen *Claims
		m := NewAuthMiddleware(nil, zap.NewNop(), true)

		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(&seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", seen.Subject)
	})

	t.Run("bearer prefix is case-insensitive", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{claims: &Claims{Subject: "u1"}}, zap.NewNop(), false)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer some-token")
		rec := httptest.NewRecorder()
		m.RequireAuth(okHandler(nil)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop(), false)

	t.Run("matching role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), &Claims{Subject: "u1", Roles: []string{"admin"}}))
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(okHandler(nil)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), &Claims{Subject: "u1"}))
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(okHandler(nil)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, GetClaimsFromContext(ctx))
	assert.Empty(t, GetSubjectFromContext(ctx))

	claims := &Claims{Subject: "u1", Roles: []string{"admin"}}
	ctx = WithClaims(ctx, claims)
	ctx = WithSubject(ctx, "u1")

	assert.Equal(t, claims, GetClaimsFromContext(ctx))
	assert.Equal(t, "u1", GetSubjectFromContext(ctx))
}
