package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSessionFromContext(r.Context())
		require.True(t, ok, "session must be in context")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(session.UserID))
	})
}

func TestValidateToken_MissingHeader(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	h.ValidateToken(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "resource_metadata")
}

func TestValidateToken_MalformedHeader(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	h.ValidateToken(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateToken_UnknownToken(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer never-issued")
	h.ValidateToken(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "re-authenticate")
}

func TestValidateToken_ExpiredSession(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.GetStore().SaveSession(ctx, HashToken("stale-token"), testSession("u1", -time.Minute)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	h.ValidateToken(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestValidateToken_ValidSession(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.GetStore().SaveSession(ctx, HashToken("good-token"), testSession("u1", time.Hour)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	h.ValidateToken(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestOptionalToken(t *testing.T) {
	h := newTestHandler(t)

	passthrough := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetSessionFromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	h.OptionalToken(passthrough).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A present but invalid token is still rejected
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	h.OptionalToken(passthrough).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContextWithSession(t *testing.T) {
	session := testSession("u1", time.Hour)
	ctx := ContextWithSession(context.Background(), session)

	got, ok := GetSessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)

	_, ok = GetSessionFromContext(context.Background())
	assert.False(t, ok)
}
