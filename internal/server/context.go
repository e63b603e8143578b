package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/ads"
	"github.com/adtoolkit/meta-ads-mcp/internal/adsets"
	"github.com/adtoolkit/meta-ads-mcp/internal/audiences"
	"github.com/adtoolkit/meta-ads-mcp/internal/campaigns"
	"github.com/adtoolkit/meta-ads-mcp/internal/creatives"
	"github.com/adtoolkit/meta-ads-mcp/internal/insights"
	"github.com/adtoolkit/meta-ads-mcp/internal/instrumentation"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// clientSet holds the Graph client and the domain clients built on top of it
// for one account. The set is rebuilt when the account's access token changes,
// e.g. after a long-lived token re-exchange.
type clientSet struct {
	token     string
	graph     *meta.Client
	accounts  *accounts.Client
	campaigns *campaigns.Client
	adsets    *adsets.Client
	ads       *ads.Client
	creatives *creatives.Client
	audiences *audiences.Client
	insights  *insights.Client
}

// ServerContext holds the shared state of the MCP server: the token provider,
// lazily created per-account API clients, and instrumentation.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	tokenProvider meta.TokenProvider
	appSecret     string
	rateLimiter   *meta.RateLimiter

	clients map[string]*clientSet

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	readOnly    bool

	mu       sync.RWMutex
	shutdown bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*ServerContext)

// WithTokenProvider sets the token source for account lookups. Defaults to
// the file-based provider used by the stdio transport.
func WithTokenProvider(p meta.TokenProvider) ServerContextOption {
	return func(sc *ServerContext) { sc.tokenProvider = p }
}

// WithAppSecret sets the Meta app secret used for appsecret_proof.
func WithAppSecret(secret string) ServerContextOption {
	return func(sc *ServerContext) { sc.appSecret = secret }
}

// WithAPIRateLimit sets the per-account rate limit for outbound Graph calls.
// A non-positive rate leaves throttling disabled.
func WithAPIRateLimit(rate float64, burst int) ServerContextOption {
	return func(sc *ServerContext) {
		if rate <= 0 {
			return
		}
		sc.rateLimiter = meta.NewRateLimiter(rate, burst)
	}
}

// WithMetrics sets the metrics recorder for tool and API instrumentation.
func WithMetrics(m *instrumentation.Metrics) ServerContextOption {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations.
func WithAuditLogger(al *instrumentation.AuditLogger) ServerContextOption {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerContextOption {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithReadOnly restricts the server to read operations. Mutating tools are
// not registered when set.
func WithReadOnly(readOnly bool) ServerContextOption {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts ...ServerContextOption) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		tokenProvider: meta.NewFileTokenProvider(),
		appSecret:     meta.AppSecret(),
		clients:       make(map[string]*clientSet),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	return sc, nil
}

// Context returns the server's shutdown context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// ReadOnly reports whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when audit logging is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// TokenProvider returns the configured token provider.
func (sc *ServerContext) TokenProvider() meta.TokenProvider {
	return sc.tokenProvider
}

// HasAccount reports whether a token is available for the account.
func (sc *ServerContext) HasAccount(account string) bool {
	return sc.tokenProvider.HasTokenForAccount(account)
}

// clientSetFor returns the client set for an account, creating or rebuilding
// it as needed. The request context is consulted for OAuth sessions, so a
// refreshed Meta token replaces the cached set on the next call.
func (sc *ServerContext) clientSetFor(ctx context.Context, account string) (*clientSet, error) {
	token, err := sc.tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no credentials for account %q: %w", account, err)
	}

	sc.mu.RLock()
	set, ok := sc.clients[account]
	sc.mu.RUnlock()
	if ok && set.token == token.AccessToken {
		return set, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if set, ok := sc.clients[account]; ok && set.token == token.AccessToken {
		return set, nil
	}

	graphOpts := []meta.ClientOption{meta.WithLogger(sc.logger)}
	if sc.appSecret != "" {
		graphOpts = append(graphOpts, meta.WithAppSecret(sc.appSecret))
	}
	if sc.rateLimiter != nil {
		graphOpts = append(graphOpts, meta.WithRateLimiter(sc.rateLimiter))
	}
	if sc.metrics != nil {
		graphOpts = append(graphOpts, meta.WithMetrics(sc.metrics))
	}

	graph := meta.NewClient(token.AccessToken, account, graphOpts...)
	set = &clientSet{
		token:     token.AccessToken,
		graph:     graph,
		accounts:  accounts.NewClient(graph, account),
		campaigns: campaigns.NewClient(graph, account),
		adsets:    adsets.NewClient(graph, account),
		ads:       ads.NewClient(graph, account),
		creatives: creatives.NewClient(graph, account),
		audiences: audiences.NewClient(graph, account),
		insights:  insights.NewClient(graph, account),
	}
	sc.clients[account] = set

	return set, nil
}

// AccountsClientForAccount returns the ad account client for an account.
func (sc *ServerContext) AccountsClientForAccount(ctx context.Context, account string) (*accounts.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.accounts, nil
}

// CampaignsClientForAccount returns the campaign client for an account.
func (sc *ServerContext) CampaignsClientForAccount(ctx context.Context, account string) (*campaigns.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.campaigns, nil
}

// AdSetsClientForAccount returns the ad set client for an account.
func (sc *ServerContext) AdSetsClientForAccount(ctx context.Context, account string) (*adsets.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.adsets, nil
}

// AdsClientForAccount returns the ad client for an account.
func (sc *ServerContext) AdsClientForAccount(ctx context.Context, account string) (*ads.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.ads, nil
}

// CreativesClientForAccount returns the creative client for an account.
func (sc *ServerContext) CreativesClientForAccount(ctx context.Context, account string) (*creatives.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.creatives, nil
}

// AudiencesClientForAccount returns the custom audience client for an account.
func (sc *ServerContext) AudiencesClientForAccount(ctx context.Context, account string) (*audiences.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.audiences, nil
}

// InsightsClientForAccount returns the insights client for an account.
func (sc *ServerContext) InsightsClientForAccount(ctx context.Context, account string) (*insights.Client, error) {
	set, err := sc.clientSetFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return set.insights, nil
}

// DropAccount removes the cached clients for an account, e.g. after its
// token is deleted.
func (sc *ServerContext) DropAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.clients, account)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and stops background work.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	if sc.rateLimiter != nil {
		sc.rateLimiter.Stop()
	}
	sc.cancel()
	return nil
}
