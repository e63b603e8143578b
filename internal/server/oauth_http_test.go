package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adtoolkit/meta-ads-mcp/internal/mcp/oauth"
)

func newTestOAuthServer(t *testing.T, serverType string) *OAuthHTTPServer {
	t.Helper()

	mcpSrv := mcpserver.NewMCPServer("meta-ads-mcp-test", "0.0.0")
	s, err := NewOAuthHTTPServer(mcpSrv, serverType, &oauth.Config{
		Resource: "http://localhost:8080",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.sessions.Stop()
		_ = s.oauthHandler.Close()
	})
	return s
}

func TestNewOAuthHTTPServer_UnsupportedType(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("meta-ads-mcp-test", "0.0.0")
	_, err := NewOAuthHTTPServer(mcpSrv, "websocket", &oauth.Config{
		Resource: "http://localhost:8080",
	})
	require.Error(t, err)
}

func TestOAuthHTTPServer_Routes(t *testing.T) {
	s := newTestOAuthServer(t, "streamable-http")
	handler, err := s.Handler()
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{"protected resource metadata", http.MethodGet, "/.well-known/oauth-protected-resource", http.StatusOK},
		{"authorization server metadata", http.MethodGet, "/.well-known/oauth-authorization-server", http.StatusOK},
		{"registration requires auth", http.MethodPost, "/oauth/register", http.StatusUnauthorized},
		{"authorize rejects bad request", http.MethodGet, "/oauth/authorize", http.StatusInternalServerError},
		{"token rejects empty grant", http.MethodPost, "/oauth/token", http.StatusBadRequest},
		{"mcp requires bearer token", http.MethodPost, "/mcp", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestOAuthHTTPServer_HealthRoutes(t *testing.T) {
	s := newTestOAuthServer(t, "streamable-http")
	s.health = NewHealthChecker(nil)

	handler, err := s.Handler()
	require.NoError(t, err)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestOAuthHTTPServer_SSERoutes(t *testing.T) {
	s := newTestOAuthServer(t, "sse")
	handler, err := s.Handler()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid HTTPS URL", "https://mcp.example.com", false},
		{"valid HTTP localhost", "http://localhost:8080", false},
		{"valid HTTP 127.0.0.1", "http://127.0.0.1:8080", false},
		{"valid HTTP IPv6 loopback", "http://[::1]:8080", false},
		{"invalid HTTP non-localhost", "http://mcp.example.com", true},
		{"localhost substring does not count", "http://localhost.example.com", true},
		{"loopback substring does not count", "http://127.0.0.1.example.com", true},
		{"empty URL", "", true},
		{"invalid scheme", "ftp://example.com", true},
		{"HTTPS with path", "https://mcp.example.com/api", false},
		{"HTTPS with port", "https://mcp.example.com:8443", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.statusCode, "defaults to 200")

	rw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, rw.statusCode)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInstrumentationMiddleware_NoMetrics(t *testing.T) {
	s := &OAuthHTTPServer{}

	called := false
	handler := s.instrumentationMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.True(t, called)
}
