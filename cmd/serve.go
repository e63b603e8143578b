package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/instrumentation"
	"github.com/adtoolkit/meta-ads-mcp/internal/mcp/oauth"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
	"github.com/adtoolkit/meta-ads-mcp/internal/resources"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/account_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/ad_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/adset_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/audience_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/auth_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/campaign_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/creative_tools"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/insights_tools"
)

// OAuthSecurityConfig holds OAuth security settings collected from flags
type OAuthSecurityConfig struct {
	AllowPublicClientRegistration bool
	RegistrationAccessToken       string
	AllowInsecureAuthWithoutState bool
	MaxClientsPerIP               int
	EncryptionKey                 []byte

	// Per-IP rate limiting on the OAuth endpoints
	RateLimit      int
	RateLimitBurst int
	TrustProxy     bool

	// Storage configuration
	Storage OAuthStorageConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// OAuthStorageConfig holds OAuth token storage backend configuration
type OAuthStorageConfig struct {
	// Type is the storage backend type: "memory" or "valkey" (default: "memory")
	Type string

	// Valkey configuration (used when Type is "valkey")
	Valkey ValkeyStorageConfig
}

// ValkeyStorageConfig holds configuration for the Valkey storage backend
type ValkeyStorageConfig struct {
	// URL is the Valkey server address (e.g., "valkey.namespace.svc:6379")
	URL string

	// Password is the optional password for Valkey authentication
	Password string

	// TLSEnabled enables TLS for Valkey connections
	TLSEnabled bool

	// KeyPrefix is the prefix for all Valkey keys (default: "mam:")
	KeyPrefix string

	// DB is the Valkey database number (default: 0)
	DB int
}

func newServeCmd() *cobra.Command {
	var (
		debugMode     bool
		transport     string
		httpAddr      string
		yolo          bool
		metaAppID     string
		metaAppSecret string
		baseURL       string
		metaScopes    string
		// Graph API client throttling
		apiRateLimit float64
		apiBurst     int
		// OAuth Security Settings
		allowPublicClientRegistration bool
		registrationAccessToken       string
		allowInsecureAuthWithoutState bool
		maxClientsPerIP               int
		encryptionKey                 string
		oauthRateLimit                int
		oauthRateBurst                int
		oauthTrustProxy               bool
		// OAuth storage options
		oauthStorageType string
		valkeyURL        string
		valkeyPassword   string
		valkeyTLS        bool
		valkeyKeyPrefix  string
		valkeyDB         int
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Meta Marketing API
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (campaign creation,
  audience uploads, deletion, etc.)

OAuth Configuration:
  HTTP Transports:
    Base URL (required for deployed instances):
      --base-url https://your-domain.com OR MCP_BASE_URL env var
      Auto-detected for localhost (development only)

    Meta App Credentials (required):
      --meta-app-id and --meta-app-secret flags
      OR META_APP_ID and META_APP_SECRET env vars
      Required for the Facebook Login proxy and token exchange

  STDIO Transport:
    Uses tokens saved by 'meta-ads-mcp login'. META_APP_ID and
    META_APP_SECRET are needed for the meta_get_auth_url and
    meta_save_auth_code tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse encryption key from base64 if provided
			encKeyBytes, err := oauth.EncryptionKeyFromBase64(encryptionKey)
			if err != nil {
				return err
			}

			// Build storage config from flags/env
			storageConfig := OAuthStorageConfig{
				Type: oauthStorageType,
				Valkey: ValkeyStorageConfig{
					URL:        valkeyURL,
					Password:   valkeyPassword,
					TLSEnabled: valkeyTLS,
					KeyPrefix:  valkeyKeyPrefix,
					DB:         valkeyDB,
				},
			}

			// Load storage config from environment variables if not set via flags
			loadOAuthStorageEnvVars(cmd, &storageConfig)

			securityConfig := OAuthSecurityConfig{
				AllowPublicClientRegistration: allowPublicClientRegistration,
				RegistrationAccessToken:       registrationAccessToken,
				AllowInsecureAuthWithoutState: allowInsecureAuthWithoutState,
				MaxClientsPerIP:               maxClientsPerIP,
				EncryptionKey:                 encKeyBytes,
				RateLimit:                     oauthRateLimit,
				RateLimitBurst:                oauthRateBurst,
				TrustProxy:                    oauthTrustProxy,
				Storage:                       storageConfig,
			}

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(serveOptions{
				transport:      transport,
				debugMode:      debugMode,
				httpAddr:       httpAddr,
				yolo:           yolo,
				metaAppID:      metaAppID,
				metaAppSecret:  metaAppSecret,
				baseURL:        baseURL,
				scopes:         parseCommaSeparatedList(metaScopes),
				apiRateLimit:   apiRateLimit,
				apiBurst:       apiBurst,
				securityConfig: securityConfig,
				metricsConfig:  metricsConfig,
			})
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio, sse or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (campaign creation, audience uploads, deletion, etc.). Default is read-only mode.")
	cmd.Flags().StringVar(&metaAppID, "meta-app-id", "", "Meta app ID for the OAuth proxy and token exchange. Can also use META_APP_ID env var.")
	cmd.Flags().StringVar(&metaAppSecret, "meta-app-secret", "", "Meta app secret for the OAuth proxy and appsecret_proof signing. Can also use META_APP_SECRET env var.")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL for OAuth (HTTP transports only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().StringVar(&metaScopes, "meta-scopes", "", "Comma-separated Meta permission scopes to request. Defaults to the ads management scope set.")
	cmd.Flags().Float64Var(&apiRateLimit, "api-rate-limit", 10, "Graph API requests per second allowed per account (0 disables client-side throttling)")
	cmd.Flags().IntVar(&apiBurst, "api-burst", 20, "Graph API request burst size per account")

	// OAuth Security Settings (HTTP transports only)
	cmd.Flags().BoolVar(&allowPublicClientRegistration, "oauth-allow-public-registration", false, "WARNING: Allow unauthenticated client registration (NOT recommended for production). Can also use MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION env var. Default: false (secure)")
	cmd.Flags().StringVar(&registrationAccessToken, "oauth-registration-token", "", "Registration access token required for client registration when public registration is disabled. Can also use MCP_OAUTH_REGISTRATION_TOKEN env var.")
	cmd.Flags().StringVar(&encryptionKey, "oauth-encryption-key", "", "AES-256 encryption key for token storage at rest (32 bytes, base64 encoded). REQUIRED for production. Can also use MCP_OAUTH_ENCRYPTION_KEY env var. Generate with: openssl rand -base64 32")
	cmd.Flags().BoolVar(&allowInsecureAuthWithoutState, "oauth-allow-no-state", false, "WARNING: Allow authorization without state parameter (weakens CSRF protection). Can also use MCP_OAUTH_ALLOW_NO_STATE env var. Default: false (secure)")
	cmd.Flags().IntVar(&maxClientsPerIP, "oauth-max-clients-per-ip", 10, "Maximum number of clients that can be registered per IP address (prevents DoS). Can also use MCP_OAUTH_MAX_CLIENTS_PER_IP env var. Default: 10")
	cmd.Flags().IntVar(&oauthRateLimit, "oauth-rate-limit", 10, "Requests per second allowed per IP on OAuth endpoints (0 disables rate limiting)")
	cmd.Flags().IntVar(&oauthRateBurst, "oauth-rate-burst", 20, "Burst size per IP on OAuth endpoints")
	cmd.Flags().BoolVar(&oauthTrustProxy, "oauth-trust-proxy", false, "Trust X-Forwarded-For and X-Real-IP headers for rate limiting. Only enable behind a trusted proxy.")

	// OAuth storage flags
	cmd.Flags().StringVar(&oauthStorageType, "oauth-storage-type", string(oauth.StorageTypeMemory), "OAuth token storage type: memory or valkey. Can also use OAUTH_STORAGE_TYPE env var.")
	cmd.Flags().StringVar(&valkeyURL, "valkey-url", "", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	cmd.Flags().StringVar(&valkeyPassword, "valkey-password", "", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	cmd.Flags().BoolVar(&valkeyTLS, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	cmd.Flags().StringVar(&valkeyKeyPrefix, "valkey-key-prefix", "mam:", "Prefix for all Valkey keys. Can also use VALKEY_KEY_PREFIX env var.")
	cmd.Flags().IntVar(&valkeyDB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// serveOptions collects the serve command inputs after flag parsing
type serveOptions struct {
	transport      string
	debugMode      bool
	httpAddr       string
	yolo           bool
	metaAppID      string
	metaAppSecret  string
	baseURL        string
	scopes         []string
	apiRateLimit   float64
	apiBurst       int
	securityConfig OAuthSecurityConfig
	metricsConfig  MetricsConfig
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// On stdio, stdout belongs to the MCP protocol. Log to stderr.
	logLevel := slog.LevelInfo
	if opts.debugMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Get Meta app credentials from environment if not provided via flags
	if opts.metaAppID == "" {
		opts.metaAppID = os.Getenv("META_APP_ID")
	}
	if opts.metaAppSecret == "" {
		opts.metaAppSecret = os.Getenv("META_APP_SECRET")
	}

	// Get OAuth security settings from environment if not provided via flags
	if !opts.securityConfig.AllowPublicClientRegistration && os.Getenv("MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION") == "true" {
		opts.securityConfig.AllowPublicClientRegistration = true
	}
	if opts.securityConfig.RegistrationAccessToken == "" {
		opts.securityConfig.RegistrationAccessToken = os.Getenv("MCP_OAUTH_REGISTRATION_TOKEN")
	}
	if len(opts.securityConfig.EncryptionKey) == 0 {
		if encKeyStr := os.Getenv("MCP_OAUTH_ENCRYPTION_KEY"); encKeyStr != "" {
			decoded, err := oauth.EncryptionKeyFromBase64(encKeyStr)
			if err != nil {
				logger.Warn("Ignoring invalid encryption key in MCP_OAUTH_ENCRYPTION_KEY", "error", err)
			} else {
				opts.securityConfig.EncryptionKey = decoded
			}
		}
	}
	if !opts.securityConfig.AllowInsecureAuthWithoutState && os.Getenv("MCP_OAUTH_ALLOW_NO_STATE") == "true" {
		opts.securityConfig.AllowInsecureAuthWithoutState = true
	}
	if opts.securityConfig.MaxClientsPerIP == 0 {
		if envMax := os.Getenv("MCP_OAUTH_MAX_CLIENTS_PER_IP"); envMax != "" {
			if maxClients, err := strconv.Atoi(envMax); err == nil && maxClients > 0 {
				opts.securityConfig.MaxClientsPerIP = maxClients
			}
		}
		if opts.securityConfig.MaxClientsPerIP == 0 {
			opts.securityConfig.MaxClientsPerIP = 10
		}
	}

	if len(opts.scopes) == 0 {
		if scopes := os.Getenv("META_OAUTH_SCOPES"); scopes != "" {
			opts.scopes = parseCommaSeparatedList(scopes)
		}
	}
	if len(opts.scopes) == 0 {
		opts.scopes = meta.DefaultOAuthScopes
	}

	// Load metrics config from environment if not set via flags
	if opts.metricsConfig.Addr == "" || opts.metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metricsConfig.Addr = addr
		}
	}
	if os.Getenv("METRICS_ENABLED") == "false" {
		opts.metricsConfig.Enabled = false
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Error during metrics server shutdown", "error", err)
			}
		}()
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("meta-ads-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	// readOnly is the inverse of yolo
	readOnly := !opts.yolo
	if readOnly {
		logger.Info("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("Starting server with WRITE operations enabled (--yolo flag is set)")
	}

	switch opts.transport {
	case "stdio":
		return runStdioServer(shutdownCtx, mcpSrv, opts, readOnly, provider, logger)
	case "sse", "streamable-http":
		return runHTTPServer(shutdownCtx, mcpSrv, opts, readOnly, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", opts.transport)
	}
}

// runStdioServer serves MCP over stdio, using tokens saved by the login
// command and the stdio auth tools.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, opts serveOptions, readOnly bool, provider *instrumentation.Provider, logger *slog.Logger) error {
	scOpts := []server.ServerContextOption{
		server.WithAppSecret(opts.metaAppSecret),
		server.WithAPIRateLimit(opts.apiRateLimit, opts.apiBurst),
		server.WithLogger(logger),
		server.WithReadOnly(readOnly),
	}
	if provider.Enabled() {
		scOpts = append(scOpts,
			server.WithMetrics(provider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.DefaultConfig().AuditLogging)),
		)
	}

	serverContext, err := server.NewServerContext(ctx, scOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", "error", err)
		}
	}()

	// The stdio transport has no OAuth flow, so the auth tools manage
	// locally saved tokens.
	if err := registerAllTools(mcpSrv, serverContext, readOnly, true); err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// detectBaseURL derives a local base URL from the HTTP listen address.
// An empty address or one without a host serves on localhost, matching
// net/http's listen defaults.
func detectBaseURL(addr string) string {
	if addr == "" || addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// runHTTPServer serves MCP over HTTP behind the OAuth 2.1 proxy.
func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, opts serveOptions, readOnly bool, provider *instrumentation.Provider, logger *slog.Logger) error {
	// Determine base URL from flag, environment variable, or auto-detection
	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("MCP_BASE_URL")
	}
	if baseURL == "" {
		// Fall back to auto-detection for local development
		baseURL = detectBaseURL(opts.httpAddr)
		logger.Info("No base URL configured, using auto-detected", "base_url", baseURL)
		logger.Info("For deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		logger.Info("Using configured base URL", "base_url", baseURL)
	}

	if opts.metaAppID == "" || opts.metaAppSecret == "" {
		return fmt.Errorf("Meta app credentials are required for HTTP transports: set --meta-app-id and --meta-app-secret or META_APP_ID and META_APP_SECRET")
	}

	oauthConfig := &oauth.Config{
		Resource:        baseURL,
		SupportedScopes: opts.scopes,
		MetaAuth: oauth.MetaAuthConfig{
			AppID:     opts.metaAppID,
			AppSecret: opts.metaAppSecret,
		},
		RateLimit: oauth.RateLimitConfig{
			Rate:       opts.securityConfig.RateLimit,
			Burst:      opts.securityConfig.RateLimitBurst,
			TrustProxy: opts.securityConfig.TrustProxy,
		},
		Security: oauth.SecurityConfig{
			AllowInsecureAuthWithoutState: opts.securityConfig.AllowInsecureAuthWithoutState,
			AllowPublicClientRegistration: opts.securityConfig.AllowPublicClientRegistration,
			RegistrationAccessToken:       opts.securityConfig.RegistrationAccessToken,
			MaxClientsPerIP:               opts.securityConfig.MaxClientsPerIP,
			EncryptionKey:                 opts.securityConfig.EncryptionKey,
		},
		Storage: oauth.StorageConfig{
			Type: oauth.StorageType(opts.securityConfig.Storage.Type),
			Valkey: oauth.ValkeyConfig{
				Address:    opts.securityConfig.Storage.Valkey.URL,
				Password:   opts.securityConfig.Storage.Valkey.Password,
				TLSEnabled: opts.securityConfig.Storage.Valkey.TLSEnabled,
				KeyPrefix:  opts.securityConfig.Storage.Valkey.KeyPrefix,
				DB:         opts.securityConfig.Storage.Valkey.DB,
			},
		},
		Logger: logger,
	}

	serverOpts := []server.OAuthHTTPServerOption{
		server.WithServerLogger(logger),
	}
	if provider.Enabled() {
		serverOpts = append(serverOpts, server.WithHTTPMetrics(provider.Metrics()))
	}

	oauthServer, err := server.NewOAuthHTTPServer(mcpSrv, opts.transport, oauthConfig, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	// Graph API clients resolve tokens from the OAuth session store, so
	// every MCP session uses the identity it authenticated with.
	scOpts := []server.ServerContextOption{
		server.WithTokenProvider(oauthServer.TokenProvider()),
		server.WithAppSecret(opts.metaAppSecret),
		server.WithAPIRateLimit(opts.apiRateLimit, opts.apiBurst),
		server.WithLogger(logger),
		server.WithReadOnly(readOnly),
	}
	if provider.Enabled() {
		scOpts = append(scOpts,
			server.WithMetrics(provider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.DefaultConfig().AuditLogging)),
		)
	}

	serverContext, err := server.NewServerContext(ctx, scOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", "error", err)
		}
	}()

	oauthServer.SetHealthChecker(server.NewHealthChecker(serverContext))

	if err := registerAllTools(mcpSrv, serverContext, readOnly, false); err != nil {
		return err
	}

	logger.Info("Starting MCP server with OAuth authentication",
		"transport", opts.transport,
		"addr", opts.httpAddr,
		"authorization_server", baseURL)
	fmt.Printf("MCP server with Meta OAuth authentication starting on %s\n", opts.httpAddr)
	if opts.transport == "sse" {
		fmt.Printf("  SSE endpoint: /sse\n")
	} else {
		fmt.Printf("  HTTP endpoint: /mcp\n")
	}
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	fmt.Printf("  OAuth metadata: /.well-known/oauth-protected-resource\n")
	if opts.metricsConfig.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", opts.metricsConfig.Addr)
	}
	fmt.Println("\nClients must authenticate with Facebook Login to access this server.")
	fmt.Println("The MCP client (e.g., Cursor, Claude Desktop) will handle the OAuth flow automatically.")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(opts.httpAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// registerAllTools registers all MCP tools and resources.
// stdioAuth controls the token management tools that only make sense on the
// stdio transport, where there is no OAuth flow.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool, stdioAuth bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Ad Accounts",
			register: func() error {
				return account_tools.RegisterAccountTools(mcpSrv, ctx)
			},
		},
		{
			name: "Campaigns",
			register: func() error {
				return campaign_tools.RegisterCampaignTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Ad Sets",
			register: func() error {
				return adset_tools.RegisterAdSetTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Ads",
			register: func() error {
				return ad_tools.RegisterAdTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Creatives",
			register: func() error {
				return creative_tools.RegisterCreativeTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Insights",
			register: func() error {
				return insights_tools.RegisterInsightsTools(mcpSrv, ctx)
			},
		},
		{
			name: "Audiences",
			register: func() error {
				return audience_tools.RegisterAudienceTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Account Resources",
			register: func() error {
				return resources.RegisterAccountResources(mcpSrv, ctx)
			},
		},
	}

	if stdioAuth {
		registrations = append([]toolRegistration{{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, ctx, readOnly)
			},
		}}, registrations...)
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// loadOAuthStorageEnvVars loads OAuth storage configuration from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func loadOAuthStorageEnvVars(cmd *cobra.Command, config *OAuthStorageConfig) {
	if !cmd.Flags().Changed("oauth-storage-type") {
		if storageType := os.Getenv("OAUTH_STORAGE_TYPE"); storageType != "" {
			config.Type = storageType
		}
	}

	if !cmd.Flags().Changed("valkey-url") {
		if url := os.Getenv("VALKEY_URL"); url != "" && config.Valkey.URL == "" {
			config.Valkey.URL = url
		}
	}

	if !cmd.Flags().Changed("valkey-password") {
		if password := os.Getenv("VALKEY_PASSWORD"); password != "" && config.Valkey.Password == "" {
			config.Valkey.Password = password
		}
	}

	if !cmd.Flags().Changed("valkey-key-prefix") {
		if keyPrefix := os.Getenv("VALKEY_KEY_PREFIX"); keyPrefix != "" {
			config.Valkey.KeyPrefix = keyPrefix
		}
	}

	if !cmd.Flags().Changed("valkey-tls") {
		if os.Getenv("VALKEY_TLS_ENABLED") == "true" {
			config.Valkey.TLSEnabled = true
		}
	}

	if !cmd.Flags().Changed("valkey-db") {
		if dbStr := os.Getenv("VALKEY_DB"); dbStr != "" {
			if db, err := strconv.Atoi(dbStr); err == nil {
				config.Valkey.DB = db
			}
		}
	}
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
