package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// Environment variables for the Meta app credentials.
const (
	EnvAppID       = "META_APP_ID"
	EnvAppSecret   = "META_APP_SECRET"
	EnvRedirectURL = "META_REDIRECT_URL"
)

// DefaultRedirectURL is Meta's manual-flow landing page. Meta has no
// out-of-band redirect; for the stdio transport users copy the code from
// this page's URL.
const DefaultRedirectURL = "https://www.facebook.com/connect/login_success.html"

const cacheDirName = "meta-ads-mcp"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// storedToken is the on-disk token format for the stdio transport.
type storedToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
}

// OAuthConfig returns the OAuth2 configuration for Facebook Login.
// App credentials are read from the environment.
func OAuthConfig() (*oauth2.Config, error) {
	appID := os.Getenv(EnvAppID)
	appSecret := os.Getenv(EnvAppSecret)
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("missing Meta app credentials: set %s and %s", EnvAppID, EnvAppSecret)
	}

	redirectURL := os.Getenv(EnvRedirectURL)
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     appID,
		ClientSecret: appSecret,
		Endpoint:     facebook.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// AppSecret returns the configured Meta app secret, or empty when unset.
func AppSecret() string {
	return os.Getenv(EnvAppSecret)
}

// GetAuthURL returns the OAuth URL for user authorization of the default account.
func GetAuthURL() (string, error) {
	return GetAuthURLForAccount("default")
}

// GetAuthURLForAccount returns the OAuth URL for user authorization.
// The account name is carried in the state parameter so the callback can be
// matched to the account in the manual flow.
func GetAuthURLForAccount(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	conf, err := OAuthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(account), nil
}

// SaveToken exchanges an authorization code and saves the token for the
// default account.
func SaveToken(ctx context.Context, authCode string) error {
	return SaveTokenForAccount(ctx, "default", authCode)
}

// SaveTokenForAccount exchanges an authorization code for an access token,
// upgrades it to a long-lived token and saves it for the given account.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf, err := OAuthConfig()
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	// Short-lived user tokens expire within hours. Meta has no refresh
	// tokens; the fb_exchange_token grant extends validity to ~60 days.
	longLived, expiry, err := ExchangeLongLivedToken(ctx, conf.ClientID, conf.ClientSecret, t.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to exchange for long-lived token: %w", err)
	}

	stored := storedToken{
		AccessToken: longLived,
		Expiry:      expiry,
	}

	if info, err := FetchUserInfo(ctx, longLived); err == nil {
		stored.UserID = info.ID
		stored.UserName = info.Name
	}

	return writeTokenFile(account, stored)
}

// ExchangeLongLivedToken exchanges a short-lived user access token for a
// long-lived one using the fb_exchange_token grant. Returns the new token
// and its expiry time.
func ExchangeLongLivedToken(ctx context.Context, appID, appSecret, shortToken string) (string, time.Time, error) {
	client := NewClient(shortToken, "oauth")

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", appID)
	params.Set("client_secret", appSecret)
	params.Set("fb_exchange_token", shortToken)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := client.Get(ctx, "oauth/access_token", params, &resp); err != nil {
		return "", time.Time{}, err
	}
	if resp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token exchange returned empty access token")
	}

	var expiry time.Time
	if resp.ExpiresIn > 0 {
		expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return resp.AccessToken, expiry, nil
}

// FetchUserInfo retrieves the authenticated user's profile from /me.
func FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	client := NewClient(accessToken, "oauth")
	if secret := AppSecret(); secret != "" {
		client = NewClient(accessToken, "oauth", WithAppSecret(secret))
	}

	params := url.Values{}
	params.Set("fields", "id,name,email")

	var info UserInfo
	if err := client.Get(ctx, "me", params, &info); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("user info response missing id")
	}
	return &info, nil
}

// DebugToken inspects an access token via the debug_token endpoint.
// The inspecting call authenticates with the app token (app_id|app_secret).
func DebugToken(ctx context.Context, appID, appSecret, inputToken string) (*TokenDebugInfo, error) {
	appToken := appID + "|" + appSecret
	client := NewClient(appToken, "oauth")

	params := url.Values{}
	params.Set("input_token", inputToken)

	var resp struct {
		Data TokenDebugInfo `json:"data"`
	}
	if err := client.Get(ctx, "debug_token", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to debug token: %w", err)
	}
	return &resp.Data, nil
}

// HasToken checks if a valid OAuth token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// HasTokenForAccount checks if a token file exists for the specified account.
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(tokenFilePath(account))
	return err == nil
}

// GetTokenForAccount reads the stored token for the given account.
func GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	stored, err := readTokenFile(account)
	if err != nil {
		return nil, err
	}

	if !stored.Expiry.IsZero() && time.Now().After(stored.Expiry) {
		return nil, fmt.Errorf("stored token for account %q expired on %s, re-authenticate with meta_get_auth_url",
			account, stored.Expiry.Format(time.RFC3339))
	}

	return &oauth2.Token{
		AccessToken: stored.AccessToken,
		TokenType:   "Bearer",
		Expiry:      stored.Expiry,
	}, nil
}

// ListAccounts returns the names of all accounts with stored tokens.
func ListAccounts() ([]string, error) {
	dir := cacheDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token directory: %w", err)
	}

	var accounts []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".token") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(name, ".token"))
	}
	return accounts, nil
}

// DeleteTokenForAccount removes the stored token for the given account.
func DeleteTokenForAccount(account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.Remove(tokenFilePath(account)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no token stored for account %q", account)
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func validateAccountName(account string) error {
	if account == "" || !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: use letters, digits, '-' and '_'", account)
	}
	return nil
}

func cacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, cacheDirName)
}

func tokenFilePath(account string) string {
	return filepath.Join(cacheDir(), account+".token")
}

func writeTokenFile(account string, stored storedToken) error {
	dir := cacheDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(tokenFilePath(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func readTokenFile(account string) (*storedToken, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no Meta OAuth token found for account %q", account)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("invalid token file for account %q: %w", account, err)
	}
	if stored.AccessToken == "" {
		return nil, fmt.Errorf("token file for account %q missing access token", account)
	}
	return &stored, nil
}
