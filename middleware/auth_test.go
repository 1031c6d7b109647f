package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopora/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() *Auth {
	return &Auth{Tokens: utils.NewTokenService("test-secret", time.Hour)}
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[tokenID], nil
}

func protectedHandler(t *testing.T, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(UserContextKey).(*utils.Claims)
		require.True(t, ok)
		assert.Equal(t, wantEmail, claims.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	auth := newTestAuth()
	token, err := auth.Tokens.Generate("64f000000000000000000001", "user@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Middleware(protectedHandler(t, "user@example.com")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	auth := newTestAuth()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()

	auth.Middleware(protectedHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	auth := newTestAuth()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	auth.Middleware(protectedHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareForgedToken(t *testing.T) {
	auth := newTestAuth()
	other := utils.NewTokenService("other-secret", time.Hour)
	token, err := other.Generate("64f000000000000000000001", "user@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Middleware(protectedHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRevokedToken(t *testing.T) {
	auth := newTestAuth()
	token, err := auth.Tokens.Generate("64f000000000000000000001", "user@example.com", "user")
	require.NoError(t, err)
	claims, err := auth.Tokens.Parse(token)
	require.NoError(t, err)

	auth.Revocations = &fakeRevocations{revoked: map[string]bool{claims.Id: true}}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	auth.Middleware(protectedHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRevocationLookupErrorRejects(t *testing.T) {
	auth := newTestAuth()
	auth.Revocations = &fakeRevocations{err: errors.New("server selection timeout")}

	token, err := auth.Tokens.Generate("64f000000000000000000001", "user@example.com", "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	// A token that can not be checked against the blacklist is refused,
	// never admitted.
	auth.Middleware(protectedHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	auth := newTestAuth()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	adminToken, err := auth.Tokens.Generate("64f000000000000000000002", "admin@example.com", "admin")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	auth.Middleware(AdminOnly(next)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	userToken, err := auth.Tokens.Generate("64f000000000000000000003", "user@example.com", "user")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = httptest.NewRecorder()
	auth.Middleware(AdminOnly(next)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(time.Minute, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/create", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	limiter.Middleware(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	limiter.Middleware(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client has its own budget.
	other := httptest.NewRequest(http.MethodPost, "/orders/create", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	limiter.Middleware(next).ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
