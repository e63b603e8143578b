package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/instrumentation"
	"github.com/adtoolkit/meta-ads-mcp/internal/mcp/oauth"
)

// OAuthHTTPServer exposes the MCP server over HTTP behind OAuth 2.1. It
// serves the authorization endpoints itself, proxying the user login to
// Meta, and validates the opaque tokens it issued on the MCP endpoints.
type OAuthHTTPServer struct {
	mcpServer    *mcpserver.MCPServer
	oauthHandler *oauth.Handler
	httpServer   *http.Server
	health       *HealthChecker
	metrics      *instrumentation.Metrics
	sessions     *SessionIDManager
	serverType   string
	logger       *slog.Logger
}

// OAuthHTTPServerOption configures an OAuthHTTPServer.
type OAuthHTTPServerOption func(*OAuthHTTPServer)

// WithHealthChecker registers Kubernetes probe endpoints on the server.
func WithHealthChecker(h *HealthChecker) OAuthHTTPServerOption {
	return func(s *OAuthHTTPServer) { s.health = h }
}

// WithHTTPMetrics records request metrics for all HTTP endpoints.
func WithHTTPMetrics(m *instrumentation.Metrics) OAuthHTTPServerOption {
	return func(s *OAuthHTTPServer) { s.metrics = m }
}

// WithServerLogger sets the structured logger.
func WithServerLogger(logger *slog.Logger) OAuthHTTPServerOption {
	return func(s *OAuthHTTPServer) { s.logger = logger }
}

// NewOAuthHTTPServer creates an OAuth-enabled HTTP server for the given MCP
// server. serverType selects the MCP transport: "sse" or "streamable-http".
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, serverType string, oauthConfig *oauth.Config, opts ...OAuthHTTPServerOption) (*OAuthHTTPServer, error) {
	if serverType != "sse" && serverType != "streamable-http" {
		return nil, fmt.Errorf("unsupported server type: %s", serverType)
	}

	oauthHandler, err := oauth.NewHandler(oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth handler: %w", err)
	}

	s := &OAuthHTTPServer{
		mcpServer:    mcpServer,
		oauthHandler: oauthHandler,
		serverType:   serverType,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = NewSessionIDManagerWithLogger(24*time.Hour, s.logger)

	return s, nil
}

// GetOAuthHandler returns the OAuth handler.
func (s *OAuthHTTPServer) GetOAuthHandler() *oauth.Handler {
	return s.oauthHandler
}

// SetHealthChecker registers Kubernetes probe endpoints after construction,
// for callers that build the server context from this server's token store.
func (s *OAuthHTTPServer) SetHealthChecker(h *HealthChecker) {
	s.health = h
}

// TokenProvider returns a token provider backed by the OAuth session store,
// for injecting into the ServerContext.
func (s *OAuthHTTPServer) TokenProvider() *oauth.TokenProvider {
	return oauth.NewTokenProvider(s.oauthHandler.GetStore())
}

// Handler builds the HTTP handler with all OAuth, MCP, and health routes.
func (s *OAuthHTTPServer) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	rl := s.oauthHandler.RateLimitMiddleware

	// Discovery metadata (RFC 9728, RFC 8414)
	mux.Handle("/.well-known/oauth-protected-resource", rl(http.HandlerFunc(s.oauthHandler.ServeProtectedResourceMetadata)))
	mux.Handle("/.well-known/oauth-authorization-server", rl(http.HandlerFunc(s.oauthHandler.ServeAuthorizationServerMetadata)))

	// Authorization server endpoints
	mux.Handle("/oauth/register", rl(http.HandlerFunc(s.oauthHandler.ServeDynamicClientRegistration)))
	mux.Handle("/oauth/authorize", rl(http.HandlerFunc(s.oauthHandler.ServeAuthorization)))
	mux.Handle("/oauth/meta/callback", rl(http.HandlerFunc(s.oauthHandler.ServeMetaCallback)))
	mux.Handle("/oauth/token", rl(http.HandlerFunc(s.oauthHandler.ServeToken)))
	mux.Handle("/oauth/revoke", rl(http.HandlerFunc(s.oauthHandler.ServeTokenRevocation)))

	// MCP endpoints, authenticated with the tokens issued above
	authed := func(next http.Handler) http.Handler {
		return rl(s.oauthHandler.ValidateToken(s.trackSessions(next)))
	}
	switch s.serverType {
	case "sse":
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", authed(sseServer))
		mux.Handle("/message", authed(sseServer))

	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", authed(httpServer))

	default:
		return nil, fmt.Errorf("unsupported server type: %s", s.serverType)
	}

	if s.health != nil {
		s.health.SetSessionCounter(func() int {
			return len(s.sessions.ListSessions())
		})
		s.health.RegisterHealthEndpoints(mux)
	}

	return s.instrumentationMiddleware(mux), nil
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *OAuthHTTPServer) Start(addr string) error {
	baseURL := s.oauthHandler.GetConfig().Resource
	if err := validateHTTPSRequirement(baseURL); err != nil {
		return err
	}

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting OAuth HTTP server",
		"addr", addr,
		"transport", s.serverType,
		"resource", baseURL)

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and the OAuth handler.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	s.sessions.Stop()
	if err := s.oauthHandler.Close(); err != nil {
		s.logger.Warn("Failed to close OAuth handler", "error", err)
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// trackSessions binds each authenticated request's session to the Meta user
// it belongs to, so active sessions can be counted and expire when idle.
func (s *OAuthHTTPServer) trackSessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionID, err := s.sessions.ResolveSessionID(r); err == nil {
			account := "default"
			if session, ok := oauth.GetSessionFromContext(r.Context()); ok && session.UserID != "" {
				account = session.UserID
			}
			s.sessions.SetAccountForSession(sessionID, account)
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for request metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// instrumentationMiddleware records duration and status per request.
func (s *OAuthHTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// validateHTTPSRequirement enforces the OAuth 2.1 HTTPS rule. Plain HTTP is
// only accepted on loopback addresses.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s), use HTTPS or localhost for development", baseURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid URL scheme: %s, must be http (localhost only) or https", u.Scheme)
	}
}
