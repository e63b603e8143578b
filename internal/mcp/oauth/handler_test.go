package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, mutators ...func(*Config)) *Handler {
	t.Helper()

	config := &Config{
		Resource: "http://localhost:8080",
		MetaAuth: MetaAuthConfig{
			AppID:     "test-app-id",
			AppSecret: "test-app-secret",
		},
		Security: SecurityConfig{
			RegistrationAccessToken: "reg-token",
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mutators {
		m(config)
	}

	h, err := NewHandler(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// registerTestClient registers an OAuth client directly against the store.
func registerTestClient(t *testing.T, h *Handler, authMethod string, redirectURIs ...string) *ClientRegistrationResponse {
	t.Helper()

	resp, err := h.clientStore.RegisterClient(&ClientRegistrationRequest{
		RedirectURIs:            redirectURIs,
		TokenEndpointAuthMethod: authMethod,
	}, "")
	require.NoError(t, err)
	return resp
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := NewHandler(&Config{})
	require.Error(t, err, "resource is required")

	_, err = NewHandler(&Config{Resource: "http://ads.example.com"})
	require.Error(t, err, "plain HTTP outside loopback must be rejected")

	h, err := NewHandler(&Config{Resource: "http://127.0.0.1:8080"})
	require.NoError(t, err, "loopback HTTP is acceptable")
	_ = h.Close()

	h, err = NewHandler(&Config{Resource: "https://ads.example.com"})
	require.NoError(t, err)
	_ = h.Close()
}

func TestNewHandler_UnknownStorageType(t *testing.T) {
	_, err := NewHandler(&Config{
		Resource: "http://localhost:8080",
		Storage:  StorageConfig{Type: "postgres"},
	})
	require.Error(t, err)
}

func TestProtectedResourceMetadata(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeProtectedResourceMetadata(rec, httptest.NewRequest(http.MethodGet, "/.well-known/oauth-protected-resource", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var metadata ProtectedResourceMetadata
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&metadata))
	assert.Equal(t, "http://localhost:8080", metadata.Resource)
	assert.Equal(t, []string{"http://localhost:8080"}, metadata.AuthorizationServers)
	assert.Contains(t, metadata.ScopesSupported, "ads_management")
}

func TestAuthorizationServerMetadata(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeAuthorizationServerMetadata(rec, httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var metadata AuthorizationServerMetadata
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&metadata))
	assert.Equal(t, "http://localhost:8080", metadata.Issuer)
	assert.Equal(t, "http://localhost:8080/oauth/authorize", metadata.AuthorizationEndpoint)
	assert.Equal(t, "http://localhost:8080/oauth/token", metadata.TokenEndpoint)
	assert.Equal(t, "http://localhost:8080/oauth/register", metadata.RegistrationEndpoint)
	assert.Equal(t, []string{"S256"}, metadata.CodeChallengeMethodsSupported)
}

func TestClientRegistration_Auth(t *testing.T) {
	h := newTestHandler(t)

	body := `{"redirect_uris":["https://client.example.com/callback"]}`

	// No authorization
	rec := httptest.NewRecorder()
	h.ServeDynamicClientRegistration(rec, httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong-token")
	h.ServeDynamicClientRegistration(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct registration token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer reg-token")
	h.ServeDynamicClientRegistration(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ClientRegistrationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ClientID)
	assert.NotEmpty(t, resp.ClientSecret)
}

func TestClientRegistration_Public(t *testing.T) {
	h := newTestHandler(t, func(c *Config) {
		c.Security.AllowPublicClientRegistration = true
	})

	body := `{"redirect_uris":["https://client.example.com/callback"],"token_endpoint_auth_method":"none"}`
	rec := httptest.NewRecorder()
	h.ServeDynamicClientRegistration(rec, httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestClientRegistration_InvalidRedirectURI(t *testing.T) {
	h := newTestHandler(t, func(c *Config) {
		c.Security.AllowPublicClientRegistration = true
	})

	for _, body := range []string{
		`{"redirect_uris":[]}`,
		`{"redirect_uris":["https://client.example.com/callback#frag"]}`,
		`{"redirect_uris":["javascript:alert(1)"]}`,
	} {
		rec := httptest.NewRecorder()
		h.ServeDynamicClientRegistration(rec, httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func authorizeQuery(clientID, redirectURI, challenge string) url.Values {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", "client-state")
	q.Set("scope", "ads_read")
	if challenge != "" {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}
	return q
}

func TestServeAuthorization(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	challenge := GenerateCodeChallenge(verifier)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/authorize?"+authorizeQuery(client.ClientID, "https://client.example.com/callback", challenge).Encode(), nil)
	h.ServeAuthorization(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "facebook.com")
	assert.Contains(t, location, "client_id=test-app-id")

	// The provider state in the redirect must map back to the client request
	redirectURL, err := url.Parse(location)
	require.NoError(t, err)
	providerState := redirectURL.Query().Get("state")
	require.NotEmpty(t, providerState)

	saved, err := h.flowStore.GetAuthorizationState(providerState)
	require.NoError(t, err)
	assert.Equal(t, client.ClientID, saved.ClientID)
	assert.Equal(t, "client-state", saved.State)
	assert.Equal(t, challenge, saved.CodeChallenge)
}

func TestServeAuthorization_Validation(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	challenge := GenerateCodeChallenge(verifier)

	tests := []struct {
		name     string
		mutate   func(url.Values)
		wantCode int
	}{
		{"missing client_id", func(q url.Values) { q.Del("client_id") }, http.StatusBadRequest},
		{"missing redirect_uri", func(q url.Values) { q.Del("redirect_uri") }, http.StatusBadRequest},
		{"missing state", func(q url.Values) { q.Del("state") }, http.StatusBadRequest},
		{"unknown client", func(q url.Values) { q.Set("client_id", "nope") }, http.StatusUnauthorized},
		{"unregistered redirect", func(q url.Values) { q.Set("redirect_uri", "https://evil.example.com/cb") }, http.StatusBadRequest},
		{"plain challenge method", func(q url.Values) { q.Set("code_challenge_method", "plain") }, http.StatusBadRequest},
		{"public client without PKCE", func(q url.Values) {
			q.Del("code_challenge")
			q.Del("code_challenge_method")
		}, http.StatusBadRequest},
		{"unsupported scope", func(q url.Values) { q.Set("scope", "manage_pages") }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := authorizeQuery(client.ClientID, "https://client.example.com/callback", challenge)
			tt.mutate(q)

			rec := httptest.NewRecorder()
			h.ServeAuthorization(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestServeMetaCallback_Errors(t *testing.T) {
	h := newTestHandler(t)

	// Meta reported an error
	rec := httptest.NewRecorder()
	h.ServeMetaCallback(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/meta/callback?error=access_denied&error_description=user+declined", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown state
	rec = httptest.NewRecorder()
	h.ServeMetaCallback(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/meta/callback?state=unknown&code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// seedAuthCode plants an authorization code as the Meta callback would,
// so the token endpoint can be tested without reaching Meta.
func seedAuthCode(t *testing.T, h *Handler, clientID, challenge string) string {
	t.Helper()

	now := time.Now()
	code := "test-code-" + challenge[:8]
	require.NoError(t, h.flowStore.SaveAuthorizationCode(&AuthorizationCode{
		Code:                code,
		ClientID:            clientID,
		RedirectURI:         "https://client.example.com/callback",
		Scope:               "ads_read",
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
		MetaAccessToken:     "meta-long-lived-token",
		MetaTokenExpiry:     now.Add(60 * 24 * time.Hour).Unix(),
		UserID:              "1000123",
		UserName:            "Ad Manager",
		CreatedAt:           now.Unix(),
		ExpiresAt:           now.Add(DefaultAuthorizationCodeTTL).Unix(),
	}))
	return code
}

func postToken(h *Handler, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeToken(rec, req)
	return rec
}

func TestTokenEndpoint_AuthorizationCodeGrant(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	code := seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://client.example.com/callback")
	form.Set("client_id", client.ClientID)
	form.Set("code_verifier", verifier)

	rec := postToken(h, form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var tokenResp TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokenResp))
	assert.Equal(t, "Bearer", tokenResp.TokenType)
	assert.NotEmpty(t, tokenResp.AccessToken)
	assert.NotEmpty(t, tokenResp.RefreshToken)
	assert.Greater(t, tokenResp.ExpiresIn, int64(0))

	// The session is retrievable by token hash and carries the Meta token
	session, err := h.GetStore().GetSession(context.Background(), HashToken(tokenResp.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, "1000123", session.UserID)
	assert.Equal(t, "meta-long-lived-token", session.MetaAccessToken)

	// Codes are one-time use
	rec = postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpoint_PKCEFailure(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	code := seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier))

	wrongVerifier, err := GenerateCodeVerifier()
	require.NoError(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://client.example.com/callback")
	form.Set("client_id", client.ClientID)
	form.Set("code_verifier", wrongVerifier)

	rec := postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
}

func TestTokenEndpoint_RedirectURIMismatch(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	code := seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://other.example.com/callback")
	form.Set("client_id", client.ClientID)
	form.Set("code_verifier", verifier)

	rec := postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpoint_ConfidentialClientAuth(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "client_secret_basic", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", "https://client.example.com/callback")
	form.Set("client_id", client.ClientID)
	form.Set("code_verifier", verifier)

	// Without the client secret
	form.Set("code", seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier)))
	rec := postToken(h, form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// With the secret in the form body
	form.Set("code", seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier)))
	form.Set("client_secret", client.ClientSecret)
	rec = postToken(h, form)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestTokenEndpoint_ExpiredMetaToken(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	now := time.Now()
	require.NoError(t, h.flowStore.SaveAuthorizationCode(&AuthorizationCode{
		Code:            "expired-meta",
		ClientID:        client.ClientID,
		RedirectURI:     "https://client.example.com/callback",
		MetaAccessToken: "meta-token",
		MetaTokenExpiry: now.Add(-time.Hour).Unix(),
		UserID:          "1000123",
		CreatedAt:       now.Unix(),
		ExpiresAt:       now.Add(DefaultAuthorizationCodeTTL).Unix(),
	}))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", "expired-meta")
	form.Set("redirect_uri", "https://client.example.com/callback")
	form.Set("client_id", client.ClientID)

	rec := postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "re-authenticate")
}

func TestTokenEndpoint_RefreshGrant(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h, "none", "https://client.example.com/callback")

	verifier, err := GenerateCodeVerifier()
	require.NoError(t, err)
	code := seedAuthCode(t, h, client.ClientID, GenerateCodeChallenge(verifier))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://client.example.com/callback")
	form.Set("client_id", client.ClientID)
	form.Set("code_verifier", verifier)

	rec := postToken(h, form)
	require.Equal(t, http.StatusOK, rec.Code)

	var first TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	require.NotEmpty(t, first.RefreshToken)

	refreshForm := url.Values{}
	refreshForm.Set("grant_type", "refresh_token")
	refreshForm.Set("refresh_token", first.RefreshToken)
	refreshForm.Set("client_id", client.ClientID)

	rec = postToken(h, refreshForm)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var second TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken, "refresh token must rotate")

	// The rotated-out refresh token is no longer valid
	rec = postToken(h, refreshForm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpoint_RefreshGrant_ClientMismatch(t *testing.T) {
	h := newTestHandler(t)

	require.NoError(t, h.GetStore().SaveRefreshGrant(context.Background(), HashToken("refresh-1"), &RefreshGrant{
		UserID:          "u1",
		ClientID:        "client-a",
		MetaAccessToken: "meta-token",
		MetaTokenExpiry: time.Now().Add(60 * 24 * time.Hour),
		CreatedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(time.Hour),
	}))

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", "refresh-1")
	form.Set("client_id", "client-b")

	rec := postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "different client")
}

func TestTokenEndpoint_UnsupportedGrantType(t *testing.T) {
	h := newTestHandler(t)

	form := url.Values{}
	form.Set("grant_type", "password")

	rec := postToken(h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported_grant_type")
}

func TestValidateScopes(t *testing.T) {
	h := newTestHandler(t)

	assert.NoError(t, h.validateScopes("ads_read ads_management"))
	assert.NoError(t, h.validateScopes("mcp:tools openid ads_read"), "protocol scopes are ignored")
	assert.Error(t, h.validateScopes("manage_pages"))
}

func TestValidateRedirectURIRules(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		server  string
		wantErr bool
	}{
		{"https ok", "https://client.example.com/cb", "https://ads.example.com", false},
		{"loopback http ok in production", "http://127.0.0.1:8080/cb", "https://ads.example.com", false},
		{"localhost http ok in production", "http://localhost:8080/cb", "https://ads.example.com", false},
		{"plain http rejected in production", "http://client.example.com/cb", "https://ads.example.com", true},
		{"fragment rejected", "https://client.example.com/cb#frag", "https://ads.example.com", true},
		{"missing scheme", "client.example.com/cb", "https://ads.example.com", true},
		{"javascript scheme rejected", "javascript:alert(1)", "https://ads.example.com", true},
		{"custom scheme ok", "com.example.ads://callback", "https://ads.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRedirectURI(tt.uri, tt.server, true, DefaultRFC3986SchemePattern)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("localhost"))
	assert.True(t, isLoopback("127.0.0.1"))
	assert.True(t, isLoopback("127.1.2.3"))
	assert.True(t, isLoopback("::1"))
	assert.False(t, isLoopback("ads.example.com"))
	assert.False(t, isLoopback("192.168.1.1"))
}
