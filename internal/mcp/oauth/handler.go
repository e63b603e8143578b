package oauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// Handler implements the OAuth 2.1 endpoints of the MCP server. It acts
// as an authorization server toward MCP clients, proxying the user login
// to Meta, and as a resource server validating the tokens it issued.
type Handler struct {
	config      *Config
	store       TokenStore
	clientStore *ClientStore
	flowStore   *FlowStore
	rateLimiter *RateLimiter
	metaConfig  *oauth2.Config
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewHandler creates an OAuth handler from the given configuration.
func NewHandler(config *Config) (*Handler, error) {
	if config.Resource == "" {
		return nil, fmt.Errorf("resource is required")
	}

	parsedURL, err := url.Parse(config.Resource)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URL: %w", err)
	}

	// HTTP is only acceptable on loopback, everything else must be HTTPS.
	if parsedURL.Scheme != "https" && !isLoopback(parsedURL.Hostname()) {
		return nil, fmt.Errorf("resource must use HTTPS outside loopback (got %s://)", parsedURL.Scheme)
	}

	if len(config.SupportedScopes) == 0 {
		config.SupportedScopes = meta.DefaultOAuthScopes
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.Security.RefreshTokenTTL == 0 {
		config.Security.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if config.Security.MaxClientsPerIP == 0 {
		config.Security.MaxClientsPerIP = DefaultMaxClientsPerIP
	}
	if config.Security.AllowedCustomSchemes == nil {
		config.Security.AllowCustomRedirectSchemes = true
		config.Security.AllowedCustomSchemes = DefaultRFC3986SchemePattern
	}

	if config.Security.AllowInsecureAuthWithoutState {
		logger.Warn("State parameter is optional, CSRF protection weakened",
			"recommendation", "unset Security.AllowInsecureAuthWithoutState for production")
	}
	if config.Security.DisableRefreshTokenRotation {
		logger.Warn("Refresh token rotation is disabled",
			"recommendation", "unset Security.DisableRefreshTokenRotation for production")
	}
	if config.Security.AllowPublicClientRegistration {
		logger.Warn("Unauthenticated client registration is enabled",
			"recommendation", "require a RegistrationAccessToken instead")
	}

	var rateLimiter *RateLimiter
	if config.RateLimit.Rate > 0 {
		burst := config.RateLimit.Burst
		if burst == 0 {
			burst = config.RateLimit.Rate * 2
		}
		rateLimiter = NewRateLimiter(config.RateLimit.Rate, burst, config.RateLimit.TrustProxy)
		logger.Info("OAuth endpoint rate limiting enabled",
			"rate", config.RateLimit.Rate,
			"burst", burst)
	}

	var metaConfig *oauth2.Config
	if config.MetaAuth.AppID != "" && config.MetaAuth.AppSecret != "" {
		redirectURL := config.MetaAuth.RedirectURL
		if redirectURL == "" {
			redirectURL = config.Resource + "/oauth/meta/callback"
		}

		metaConfig = &oauth2.Config{
			ClientID:     config.MetaAuth.AppID,
			ClientSecret: config.MetaAuth.AppSecret,
			Endpoint:     facebook.Endpoint,
			Scopes:       config.SupportedScopes,
			RedirectURL:  redirectURL,
		}
		logger.Info("OAuth proxy mode enabled with Meta credentials",
			"redirect_url", redirectURL)
	} else {
		logger.Warn("OAuth proxy disabled: Meta app credentials not provided")
	}

	store, err := newTokenStore(config, logger)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Handler{
		config:      config,
		store:       store,
		clientStore: NewClientStore(logger),
		flowStore:   NewFlowStore(logger),
		rateLimiter: rateLimiter,
		metaConfig:  metaConfig,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// newTokenStore builds the configured token store backend.
func newTokenStore(config *Config, logger *slog.Logger) (TokenStore, error) {
	switch config.Storage.Type {
	case "", StorageTypeMemory:
		return NewMemoryStoreWithInterval(config.CleanupInterval, logger), nil
	case StorageTypeValkey:
		return NewValkeyStore(config.Storage.Valkey, config.Security.EncryptionKey, logger)
	default:
		return nil, fmt.Errorf("unknown OAuth storage type %q", config.Storage.Type)
	}
}

// GetStore returns the underlying token store.
func (h *Handler) GetStore() TokenStore {
	return h.store
}

// GetConfig returns the OAuth configuration.
func (h *Handler) GetConfig() *Config {
	return h.config
}

// Close releases store resources.
func (h *Handler) Close() error {
	return h.store.Close()
}

// CanRefreshTokens reports whether the handler can re-exchange Meta tokens.
func (h *Handler) CanRefreshTokens() bool {
	return h.metaConfig != nil && h.metaConfig.ClientID != ""
}

// ServeProtectedResourceMetadata serves RFC 9728 metadata. MCP clients
// fetch this after a 401 to discover the authorization server.
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metadata := ProtectedResourceMetadata{
		Resource:               h.config.Resource,
		AuthorizationServers:   []string{h.config.Resource},
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        h.config.SupportedScopes,
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		h.logger.Error("Failed to encode metadata", "error", err)
	}
}

// setSecurityHeaders sets defensive headers on OAuth responses.
func (h *Handler) setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")

	if parsedURL, err := url.Parse(h.config.Resource); err == nil && parsedURL.Scheme == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

// writeError writes an OAuth error response.
func (h *Handler) writeError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	h.logger.Debug("OAuth error", "code", errorCode, "description", description, "status", statusCode)
	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) writeOAuthError(w http.ResponseWriter, oauthErr *OAuthError) {
	h.writeError(w, oauthErr.Code, oauthErr.Description, oauthErr.Status)
}
