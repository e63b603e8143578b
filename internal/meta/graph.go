package meta

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adtoolkit/meta-ads-mcp/internal/instrumentation"
	"github.com/adtoolkit/meta-ads-mcp/internal/logging"
)

// Graph API defaults.
const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v23.0"
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the per-account request rate applied to outbound
	// calls. Meta enforces its own sliding-window limits; staying below a
	// few requests per second keeps bursts from tripping error code 17.
	DefaultRateLimit = 5.0
	DefaultRateBurst = 10
)

// Client is a Meta Graph API client bound to one access token.
//
// It wraps plain HTTP calls with per-account rate limiting, retry with
// exponential backoff and typed error decoding. Domain packages build
// their operations on top of Get, PostForm and Delete.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	version     string
	accessToken string
	appSecret   string
	account     string
	limiter     *RateLimiter
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
	maxTries    uint
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the Graph API base URL. Used in tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithVersion sets the Graph API version, e.g. "v23.0".
func WithVersion(version string) ClientOption {
	return func(c *Client) { c.version = version }
}

// WithAppSecret enables appsecret_proof generation for all requests.
func WithAppSecret(secret string) ClientOption {
	return func(c *Client) { c.appSecret = secret }
}

// WithRateLimiter sets a shared rate limiter. Clients for the same account
// should share one limiter so the per-account budget is enforced globally.
func WithRateLimiter(rl *RateLimiter) ClientOption {
	return func(c *Client) { c.limiter = rl }
}

// WithMetrics enables retry and throttling metrics.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request-level debug logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMaxTries sets the maximum number of attempts per request.
func WithMaxTries(n uint) ClientOption {
	return func(c *Client) { c.maxTries = n }
}

// NewClient creates a Graph API client for the given access token.
// account is used as the rate limiting key and for logging.
func NewClient(accessToken, account string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     DefaultBaseURL,
		version:     DefaultVersion,
		accessToken: accessToken,
		account:     account,
		logger:      slog.Default(),
		maxTries:    DefaultMaxTries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Account returns the account this client is bound to.
func (c *Client) Account() string {
	return c.account
}

// Get performs a GET request against the given Graph API path and decodes
// the JSON response into out. Path is relative to the versioned base,
// e.g. "act_123/campaigns" or "me/adaccounts".
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.withRetry(ctx, true, func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, params, nil)
	})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PostForm performs a POST request with form-encoded parameters and decodes
// the JSON response into out. Transport-level failures are not retried
// because the mutation may have been applied.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	body, err := c.withRetry(ctx, false, func() ([]byte, error) {
		return c.do(ctx, http.MethodPost, path, nil, form)
	})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// Delete performs a DELETE request and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.withRetry(ctx, false, func() ([]byte, error) {
		return c.do(ctx, http.MethodDelete, path, params, nil)
	})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// GetList performs a GET request expecting the standard list envelope.
func (c *Client) GetList(ctx context.Context, path string, params url.Values) (*ListEnvelope, error) {
	var envelope ListEnvelope
	if err := c.Get(ctx, path, params, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// do executes a single HTTP round trip. It attaches the access token and
// appsecret_proof, applies the rate limiter and decodes Graph API error
// envelopes into *GraphError.
func (c *Client) do(ctx context.Context, method, path string, params, form url.Values) ([]byte, error) {
	if c.limiter != nil {
		if !c.limiter.Allow(c.account) {
			c.recordThrottled(ctx, "local")
			if err := c.limiter.Wait(ctx, c.account); err != nil {
				return nil, fmt.Errorf("rate limit wait aborted: %w", err)
			}
		}
	}

	endpoint := c.baseURL + "/" + c.version + "/" + strings.TrimLeft(path, "/")

	var reqBody io.Reader
	switch method {
	case http.MethodPost:
		if form == nil {
			form = url.Values{}
		}
		c.authorize(form)
		reqBody = strings.NewReader(form.Encode())
	default:
		if params == nil {
			params = url.Values{}
		}
		c.authorize(params)
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("graph API request",
		logging.Operation(method+" "+path),
		logging.Account(c.account),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return nil, parseGraphError(body, resp.StatusCode)
	}

	return body, nil
}

// authorize attaches the access token and, when the app secret is
// configured, the appsecret_proof parameter required by server-to-server
// Graph API calls.
func (c *Client) authorize(values url.Values) {
	values.Set("access_token", c.accessToken)
	if c.appSecret != "" {
		values.Set("appsecret_proof", AppSecretProof(c.accessToken, c.appSecret))
	}
}

// AppSecretProof computes the appsecret_proof for a token: the hex encoded
// HMAC-SHA256 of the access token keyed with the app secret.
func AppSecretProof(accessToken, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseGraphError decodes an error response body into a *GraphError.
func parseGraphError(body []byte, httpStatus int) error {
	var envelope struct {
		Error *GraphError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &GraphError{
			Message:    strings.TrimSpace(string(body)),
			Type:       "HTTPError",
			HTTPStatus: httpStatus,
		}
	}
	envelope.Error.HTTPStatus = httpStatus
	return envelope.Error
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode graph API response: %w", err)
	}
	return nil
}
