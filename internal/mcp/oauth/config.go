package oauth

import (
	"log/slog"
	"net/http"
	"time"
)

// StorageType selects the token store backend.
type StorageType string

const (
	// StorageTypeMemory keeps sessions in process memory (default)
	StorageTypeMemory StorageType = "memory"

	// StorageTypeValkey keeps sessions in a Valkey server
	StorageTypeValkey StorageType = "valkey"
)

// Config holds the OAuth handler configuration.
type Config struct {
	// Resource is the MCP server base URL, used as the resource identifier
	// for RFC 8707 and as the issuer for RFC 8414 metadata.
	Resource string

	// SupportedScopes are the Meta permission scopes this server requests.
	SupportedScopes []string

	// MetaAuth holds the Meta app credentials for the OAuth proxy.
	MetaAuth MetaAuthConfig

	// RateLimit configures per-IP rate limiting on the OAuth endpoints.
	RateLimit RateLimitConfig

	// Security holds OAuth security settings (secure by default).
	Security SecurityConfig

	// Storage selects and configures the token store backend.
	Storage StorageConfig

	// CleanupInterval is how often expired sessions are removed.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// Logger for structured logging. Uses slog.Default if nil.
	Logger *slog.Logger

	// HTTPClient is used for requests to Meta. Uses a 30s-timeout
	// client if nil.
	HTTPClient *http.Client
}

// MetaAuthConfig holds the Meta OAuth proxy credentials.
type MetaAuthConfig struct {
	// AppID is the Meta app ID. Required for OAuth proxy mode.
	AppID string

	// AppSecret is the Meta app secret. Required for OAuth proxy mode.
	AppSecret string

	// RedirectURL is where Meta redirects after user login.
	// Default: {Resource}/oauth/meta/callback.
	RedirectURL string
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP (0 = no limit)
	Rate int

	// Burst is the maximum burst size per IP
	Burst int

	// CleanupInterval is how often inactive limiters are removed.
	// Default: 5 minutes.
	CleanupInterval time.Duration

	// TrustProxy enables X-Forwarded-For and X-Real-IP handling.
	// Only set behind a trusted proxy.
	TrustProxy bool
}

// SecurityConfig holds OAuth security settings.
type SecurityConfig struct {
	// AllowInsecureAuthWithoutState permits authorization requests
	// without a state parameter. Weakens CSRF protection.
	AllowInsecureAuthWithoutState bool

	// DisableRefreshTokenRotation keeps refresh tokens stable across
	// refresh grants. Violates OAuth 2.1 recommendations.
	DisableRefreshTokenRotation bool

	// AllowPublicClientRegistration permits unauthenticated dynamic
	// client registration.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken is required for client registration when
	// AllowPublicClientRegistration is false.
	RegistrationAccessToken string

	// RefreshTokenTTL is the refresh token lifetime. Default: 90 days.
	RefreshTokenTTL time.Duration

	// MaxClientsPerIP limits client registrations per IP. Default: 10.
	MaxClientsPerIP int

	// AllowCustomRedirectSchemes permits non-http(s) redirect URIs
	// for native apps.
	AllowCustomRedirectSchemes bool

	// AllowedCustomSchemes are regex patterns custom schemes must match.
	AllowedCustomSchemes []string

	// EncryptionKey is an optional AES-256 key (32 bytes) for encrypting
	// sessions at rest in external storage backends.
	EncryptionKey []byte
}

// StorageConfig holds token store backend configuration.
type StorageConfig struct {
	// Type is the backend type: memory or valkey. Default: memory.
	Type StorageType

	// Valkey configures the Valkey backend when Type is valkey.
	Valkey ValkeyConfig
}

// ValkeyConfig holds the Valkey connection settings.
type ValkeyConfig struct {
	// Address is the Valkey server address, e.g. "valkey.ads.svc:6379".
	Address string

	// Password is the optional authentication password.
	Password string

	// TLSEnabled enables TLS for the connection.
	TLSEnabled bool

	// KeyPrefix is prepended to all keys. Default: "mam:".
	KeyPrefix string

	// DB is the database number.
	DB int
}
