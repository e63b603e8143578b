package oauth

import "time"

// Token and code lifetimes
const (
	// DefaultRefreshTokenTTL is the default time-to-live for refresh tokens (90 days)
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultAuthorizationCodeTTL is how long authorization codes are valid (10 minutes)
	DefaultAuthorizationCodeTTL = 10 * time.Minute

	// DefaultAccessTokenTTL is the default access token expiry (1 hour)
	DefaultAccessTokenTTL = 1 * time.Hour

	// DefaultCleanupInterval is how often expired sessions are removed (1 minute)
	DefaultCleanupInterval = 1 * time.Minute

	// DefaultRateLimitCleanupInterval is how often inactive rate limiters are removed
	DefaultRateLimitCleanupInterval = 5 * time.Minute

	// TokenRefreshThreshold is how soon before expiry the Meta token is re-exchanged
	TokenRefreshThreshold = 24 * time.Hour
)

// Client and security defaults
const (
	// DefaultMaxClientsPerIP limits client registrations per IP
	DefaultMaxClientsPerIP = 10

	// DefaultRateLimitRate is the default requests per second per IP
	DefaultRateLimitRate = 10

	// DefaultRateLimitBurst is the default burst size for rate limiting
	DefaultRateLimitBurst = 20
)

// PKCE and token generation constants
const (
	// MinCodeVerifierLength is the minimum PKCE code_verifier length (RFC 7636)
	MinCodeVerifierLength = 43

	// MaxCodeVerifierLength is the maximum PKCE code_verifier length (RFC 7636)
	MaxCodeVerifierLength = 128

	// ClientIDTokenLength is the byte length of generated client IDs
	ClientIDTokenLength = 32

	// ClientSecretTokenLength is the byte length of generated client secrets
	ClientSecretTokenLength = 48

	// AccessTokenLength is the byte length of generated access tokens
	AccessTokenLength = 48

	// RefreshTokenLength is the byte length of generated refresh tokens
	RefreshTokenLength = 48

	// StateTokenLength is the byte length of generated state parameters
	StateTokenLength = 32
)

// Redirect URI validation constants
var (
	// DangerousSchemes lists URI schemes that are never allowed in redirect URIs
	DangerousSchemes = []string{"javascript", "data", "file", "vbscript", "about"}

	// DefaultRFC3986SchemePattern is the default pattern for custom URI schemes
	DefaultRFC3986SchemePattern = []string{"^[a-z][a-z0-9+.-]*$"}

	// LoopbackAddresses lists recognized loopback addresses for development
	LoopbackAddresses = []string{"localhost", "127.0.0.1", "::1", "[::1]"}
)

// Grant types and response types
var (
	// DefaultGrantTypes are the grant types supported by default
	DefaultGrantTypes = []string{"authorization_code", "refresh_token"}

	// DefaultResponseTypes are the response types supported by default
	DefaultResponseTypes = []string{"code"}

	// SupportedCodeChallengeMethods are the PKCE methods we accept.
	// Only S256 is allowed, the plain method violates OAuth 2.1.
	SupportedCodeChallengeMethods = []string{"S256"}

	// SupportedTokenAuthMethods are the supported token endpoint auth methods
	SupportedTokenAuthMethods = []string{"client_secret_basic", "client_secret_post", "none"}
)
