package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// ServeAuthorizationServerMetadata serves RFC 8414 metadata describing
// this server's OAuth endpoints.
func (h *Handler) ServeAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metadata := AuthorizationServerMetadata{
		Issuer:                            h.config.Resource,
		AuthorizationEndpoint:             h.config.Resource + "/oauth/authorize",
		TokenEndpoint:                     h.config.Resource + "/oauth/token",
		RegistrationEndpoint:              h.config.Resource + "/oauth/register",
		RevocationEndpoint:                h.config.Resource + "/oauth/revoke",
		ScopesSupported:                   h.config.SupportedScopes,
		ResponseTypesSupported:            DefaultResponseTypes,
		GrantTypesSupported:               DefaultGrantTypes,
		TokenEndpointAuthMethodsSupported: SupportedTokenAuthMethods,
		CodeChallengeMethodsSupported:     SupportedCodeChallengeMethods,
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		h.logger.Error("Failed to encode authorization server metadata", "error", err)
	}
}

// ServeDynamicClientRegistration handles RFC 7591 client registration.
func (h *Handler) ServeDynamicClientRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.config.Security.AllowPublicClientRegistration {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.logger.Warn("Client registration rejected: missing authorization",
				"client_ip", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeError(w, "invalid_token", "Registration access token required", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeError(w, "invalid_token", "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if h.config.Security.RegistrationAccessToken == "" {
			h.logger.Error("RegistrationAccessToken not configured but public registration disabled")
			h.writeError(w, "server_error", "Registration token not configured", http.StatusInternalServerError)
			return
		}
		if parts[1] != h.config.Security.RegistrationAccessToken {
			h.logger.Warn("Client registration rejected: invalid registration token",
				"client_ip", r.RemoteAddr)
			h.writeError(w, "invalid_token", "Invalid registration access token", http.StatusUnauthorized)
			return
		}
	}

	var req ClientRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid_request", "Failed to parse registration request", http.StatusBadRequest)
		return
	}

	if len(req.RedirectURIs) == 0 {
		h.writeError(w, "invalid_redirect_uri", "At least one redirect_uri is required", http.StatusBadRequest)
		return
	}
	for _, uri := range req.RedirectURIs {
		if err := validateRedirectURI(uri, h.config.Resource, h.config.Security.AllowCustomRedirectSchemes, h.config.Security.AllowedCustomSchemes); err != nil {
			h.writeError(w, "invalid_redirect_uri", err.Error(), http.StatusBadRequest)
			return
		}
	}

	clientIP := getClientIP(r, h.config.RateLimit.TrustProxy)
	if err := h.clientStore.CheckIPLimit(clientIP, h.config.Security.MaxClientsPerIP); err != nil {
		h.logger.Warn("Client registration limit exceeded",
			"client_ip", clientIP,
			"limit", h.config.Security.MaxClientsPerIP)
		h.writeError(w, "invalid_request",
			fmt.Sprintf("Client registration limit exceeded (%d max per IP)", h.config.Security.MaxClientsPerIP),
			http.StatusTooManyRequests)
		return
	}

	resp, err := h.clientStore.RegisterClient(&req, clientIP)
	if err != nil {
		h.logger.Error("Failed to register client", "error", err)
		h.writeError(w, "server_error", "Failed to register client", http.StatusInternalServerError)
		return
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode registration response", "error", err)
	}
}

// ServeAuthorization handles the authorization endpoint. The request is
// validated and the user is redirected to Meta's Facebook Login.
func (h *Handler) ServeAuthorization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.metaConfig == nil {
		h.logger.Error("Meta OAuth not configured")
		h.writeError(w, "server_error", "OAuth proxy not configured", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	clientID := query.Get("client_id")
	redirectURI := query.Get("redirect_uri")
	state := query.Get("state")
	scope := query.Get("scope")
	codeChallenge := query.Get("code_challenge")
	codeChallengeMethod := query.Get("code_challenge_method")

	if clientID == "" {
		h.writeError(w, "invalid_request", "client_id is required", http.StatusBadRequest)
		return
	}
	if redirectURI == "" {
		h.writeError(w, "invalid_request", "redirect_uri is required", http.StatusBadRequest)
		return
	}

	if state == "" {
		if !h.config.Security.AllowInsecureAuthWithoutState {
			h.logger.Warn("Authorization request rejected: missing state parameter",
				"client_id", clientID)
			h.writeError(w, "invalid_request",
				"state parameter is required for CSRF protection",
				http.StatusBadRequest)
			return
		}
		h.logger.Warn("Authorization request without state parameter",
			"client_id", clientID)
	}

	if scope != "" {
		if err := h.validateScopes(scope); err != nil {
			h.writeError(w, "invalid_scope", err.Error(), http.StatusBadRequest)
			return
		}
	}

	client, err := h.clientStore.GetClient(clientID)
	if err != nil {
		h.logger.Warn("Invalid client_id", "client_id", clientID, "error", err)
		h.writeError(w, "invalid_client", "Invalid client_id", http.StatusUnauthorized)
		return
	}

	if err := h.clientStore.ValidateRedirectURI(clientID, redirectURI); err != nil {
		h.logger.Warn("Invalid redirect_uri",
			"client_id", clientID,
			"redirect_uri", redirectURI,
			"error", err)
		h.writeError(w, "invalid_request", "redirect_uri not registered for this client", http.StatusBadRequest)
		return
	}

	// PKCE is required for public clients, and only S256 is accepted.
	if codeChallenge == "" && client.TokenEndpointAuthMethod == "none" {
		h.writeError(w, "invalid_request", "PKCE is required for public clients", http.StatusBadRequest)
		return
	}
	if codeChallenge != "" && codeChallengeMethod != "S256" {
		h.writeError(w, "invalid_request", "code_challenge_method must be S256", http.StatusBadRequest)
		return
	}

	providerState, err := generateSecureToken(StateTokenLength)
	if err != nil {
		h.logger.Error("Failed to generate state", "error", err)
		h.writeError(w, "server_error", "Failed to generate state", http.StatusInternalServerError)
		return
	}

	now := time.Now().Unix()
	authState := &AuthorizationState{
		State:               state,
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		Scope:               scope,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		ProviderState:       providerState,
		CreatedAt:           now,
		ExpiresAt:           now + int64(DefaultAuthorizationCodeTTL.Seconds()),
	}

	if err := h.flowStore.SaveAuthorizationState(authState); err != nil {
		h.logger.Error("Failed to save authorization state", "error", err)
		h.writeError(w, "server_error", "Failed to save state", http.StatusInternalServerError)
		return
	}

	metaAuthURL := h.metaConfig.AuthCodeURL(providerState)

	h.logger.Info("Redirecting to Meta for authorization",
		"client_id", clientID,
		"redirect_uri", redirectURI)

	http.Redirect(w, r, metaAuthURL, http.StatusFound)
}

// ServeMetaCallback handles the redirect back from Meta. The short-lived
// user token is exchanged for a long-lived one before the MCP client gets
// its one-time authorization code.
func (h *Handler) ServeMetaCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	providerState := query.Get("state")
	code := query.Get("code")
	errorParam := query.Get("error")

	if errorParam != "" {
		errorDesc := query.Get("error_description")
		h.logger.Warn("Meta OAuth error",
			"error", errorParam,
			"description", errorDesc)
		http.Error(w, fmt.Sprintf("Meta OAuth error: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
		return
	}

	authState, err := h.flowStore.GetAuthorizationState(providerState)
	if err != nil {
		h.logger.Error("Invalid or expired state", "error", err)
		http.Error(w, "Invalid or expired state", http.StatusBadRequest)
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.httpClient)
	metaToken, err := h.metaConfig.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("Failed to exchange code with Meta", "error", err)
		http.Error(w, "Failed to exchange authorization code", http.StatusInternalServerError)
		return
	}

	// Upgrade to a long-lived token. Keep the short-lived one if the
	// exchange fails, the session just expires sooner.
	accessToken := metaToken.AccessToken
	expiry := metaToken.Expiry
	if longToken, longExpiry, exchErr := meta.ExchangeLongLivedToken(r.Context(),
		h.config.MetaAuth.AppID, h.config.MetaAuth.AppSecret, accessToken); exchErr == nil {
		accessToken = longToken
		expiry = longExpiry
	} else {
		h.logger.Warn("Long-lived token exchange failed, keeping short-lived token",
			"error", exchErr)
	}

	userInfo, err := meta.FetchUserInfo(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("Failed to fetch Meta user info", "error", err)
		http.Error(w, "Failed to fetch user information", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Meta OAuth successful",
		"user_id", userInfo.ID,
		"client_id", authState.ClientID)

	authCode, err := generateSecureToken(StateTokenLength)
	if err != nil {
		h.logger.Error("Failed to generate authorization code", "error", err)
		http.Error(w, "Failed to generate authorization code", http.StatusInternalServerError)
		return
	}

	now := time.Now().Unix()
	authCodeData := &AuthorizationCode{
		Code:                authCode,
		ClientID:            authState.ClientID,
		RedirectURI:         authState.RedirectURI,
		Scope:               authState.Scope,
		CodeChallenge:       authState.CodeChallenge,
		CodeChallengeMethod: authState.CodeChallengeMethod,
		MetaAccessToken:     accessToken,
		MetaTokenExpiry:     expiry.Unix(),
		UserID:              userInfo.ID,
		UserName:            userInfo.Name,
		UserEmail:           userInfo.Email,
		CreatedAt:           now,
		ExpiresAt:           now + int64(DefaultAuthorizationCodeTTL.Seconds()),
	}

	if err := h.flowStore.SaveAuthorizationCode(authCodeData); err != nil {
		h.logger.Error("Failed to save authorization code", "error", err)
		http.Error(w, "Failed to save authorization code", http.StatusInternalServerError)
		return
	}

	h.flowStore.DeleteAuthorizationState(providerState)

	redirectURL, err := url.Parse(authState.RedirectURI)
	if err != nil {
		h.logger.Error("Invalid redirect URI", "error", err)
		http.Error(w, "Invalid redirect URI", http.StatusInternalServerError)
		return
	}

	redirectQuery := redirectURL.Query()
	redirectQuery.Set("code", authCode)
	if authState.State != "" {
		redirectQuery.Set("state", authState.State)
	}
	redirectURL.RawQuery = redirectQuery.Encode()

	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}

// ServeToken handles the token endpoint.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeError(w, "invalid_request", "Failed to parse request", http.StatusBadRequest)
		return
	}

	switch grantType := r.FormValue("grant_type"); grantType {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r)
	case "refresh_token":
		h.handleRefreshTokenGrant(w, r)
	default:
		h.writeError(w, "unsupported_grant_type",
			fmt.Sprintf("Grant type %s not supported", grantType), http.StatusBadRequest)
	}
}

// handleAuthorizationCodeGrant exchanges a one-time code for an access token.
func (h *Handler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	params, oauthErr := h.parseAuthCodeRequest(r)
	if oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	authCode, oauthErr := h.validateAndRetrieveAuthCode(params)
	if oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	clientID := params.ClientID
	if clientID == "" {
		clientID = authCode.ClientID
	}

	if oauthErr := h.validatePKCE(authCode, params.CodeVerifier, clientID); oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	if _, oauthErr := h.authenticateClient(r, clientID); oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	if authCode.MetaTokenExpiry <= time.Now().Unix() {
		h.logger.Warn("Meta token behind authorization code already expired",
			"user_id", authCode.UserID)
		h.writeOAuthError(w, ErrInvalidGrant("Authorization expired. Please re-authenticate."))
		return
	}

	tokenResp, oauthErr := h.issueTokens(r.Context(), sessionSeed{
		UserID:          authCode.UserID,
		UserName:        authCode.UserName,
		UserEmail:       authCode.UserEmail,
		ClientID:        clientID,
		Scope:           authCode.Scope,
		MetaAccessToken: authCode.MetaAccessToken,
		MetaTokenExpiry: time.Unix(authCode.MetaTokenExpiry, 0),
	}, true)
	if oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	h.logger.Info("Issued access token",
		"client_id", clientID,
		"user_id", authCode.UserID,
		"scope", authCode.Scope)

	h.writeTokenResponse(w, tokenResp)
}

// handleRefreshTokenGrant exchanges a refresh token for a new access token,
// rotating the refresh token. Meta tokens nearing expiry are re-exchanged
// for fresh long-lived tokens.
func (h *Handler) handleRefreshTokenGrant(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.FormValue("refresh_token")
	clientID := r.FormValue("client_id")

	if refreshToken == "" {
		h.writeError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
		return
	}

	refreshHash := HashToken(refreshToken)
	grant, err := h.store.GetRefreshGrant(r.Context(), refreshHash)
	if err != nil {
		h.logger.Warn("Invalid refresh token", "error", err)
		h.writeError(w, "invalid_grant", "Invalid or expired refresh token", http.StatusBadRequest)
		return
	}

	if clientID != "" && grant.ClientID != "" && clientID != grant.ClientID {
		h.logger.Warn("Refresh token client mismatch",
			"expected", grant.ClientID,
			"got", clientID)
		h.writeError(w, "invalid_grant", "Refresh token was issued to a different client", http.StatusBadRequest)
		return
	}

	metaAccessToken := grant.MetaAccessToken
	metaTokenExpiry := grant.MetaTokenExpiry

	if metaTokenExpiry.Before(time.Now()) {
		h.logger.Warn("Meta token behind refresh grant expired", "user_id", grant.UserID)
		h.writeError(w, "invalid_grant", "Meta session expired. Please re-authenticate.", http.StatusBadRequest)
		return
	}

	// Meta has no refresh tokens. A still-valid long-lived token can be
	// exchanged for a fresh one, so do that when expiry approaches.
	if h.CanRefreshTokens() && time.Until(metaTokenExpiry) < TokenRefreshThreshold {
		newToken, newExpiry, exchErr := meta.ExchangeLongLivedToken(r.Context(),
			h.config.MetaAuth.AppID, h.config.MetaAuth.AppSecret, metaAccessToken)
		if exchErr == nil {
			h.logger.Info("Meta token re-exchanged via refresh grant", "user_id", grant.UserID)
			metaAccessToken = newToken
			metaTokenExpiry = newExpiry
		} else {
			h.logger.Warn("Meta token re-exchange failed",
				"user_id", grant.UserID,
				"error", exchErr)
		}
	}

	tokenResp, oauthErr := h.issueTokens(r.Context(), sessionSeed{
		UserID:          grant.UserID,
		UserName:        grant.UserName,
		UserEmail:       grant.UserEmail,
		ClientID:        grant.ClientID,
		Scope:           grant.Scope,
		MetaAccessToken: metaAccessToken,
		MetaTokenExpiry: metaTokenExpiry,
	}, !h.config.Security.DisableRefreshTokenRotation)
	if oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	if h.config.Security.DisableRefreshTokenRotation {
		tokenResp.RefreshToken = refreshToken
	} else {
		if err := h.store.DeleteRefreshGrant(r.Context(), refreshHash); err != nil {
			h.logger.Warn("Failed to delete rotated refresh grant", "error", err)
		}
	}

	h.logger.Info("Issued access token via refresh grant", "user_id", grant.UserID)

	h.writeTokenResponse(w, tokenResp)
}

func (h *Handler) writeTokenResponse(w http.ResponseWriter, tokenResp *TokenResponse) {
	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(tokenResp); err != nil {
		h.logger.Error("Failed to encode token response", "error", err)
	}
}

// validateScopes checks requested Meta permissions against the supported
// list. Protocol scopes like mcp:tools or openid are ignored.
func (h *Handler) validateScopes(scope string) error {
	for _, requested := range strings.Fields(scope) {
		if strings.Contains(requested, ":") || requested == "openid" {
			h.logger.Debug("Ignoring non-Meta scope", "scope", requested)
			continue
		}

		found := false
		for _, supported := range h.config.SupportedScopes {
			if requested == supported {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unsupported Meta permission scope: %s", requested)
		}
	}
	return nil
}

// validateRedirectURI validates a redirect URI per OAuth 2.0 Security BCP.
func validateRedirectURI(uri string, serverResource string, allowCustomSchemes bool, allowedSchemes []string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri format: %s", uri)
	}

	if parsed.Fragment != "" {
		return fmt.Errorf("redirect_uri must not contain fragments: %s", uri)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("redirect_uri must have a scheme: %s", uri)
	}

	// Custom schemes serve native apps, e.g. myapp://callback.
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		if !allowCustomSchemes {
			return fmt.Errorf("custom redirect_uri schemes not allowed, only http/https permitted")
		}

		schemeLower := strings.ToLower(parsed.Scheme)
		for _, dangerous := range DangerousSchemes {
			if schemeLower == dangerous {
				return fmt.Errorf("redirect_uri scheme %q is not allowed", parsed.Scheme)
			}
		}

		if len(allowedSchemes) > 0 {
			matched := false
			for _, pattern := range allowedSchemes {
				ok, matchErr := regexp.MatchString(pattern, schemeLower)
				if matchErr != nil {
					return fmt.Errorf("invalid scheme pattern %q: %w", pattern, matchErr)
				}
				if ok {
					matched = true
					break
				}
			}
			if !matched {
				return fmt.Errorf("redirect_uri scheme %q does not match allowed patterns", parsed.Scheme)
			}
		}
		return nil
	}

	if parsed.Host == "" {
		return fmt.Errorf("http/https redirect_uri must have a host: %s", uri)
	}

	serverURL, err := url.Parse(serverResource)
	if err != nil {
		return fmt.Errorf("cannot validate redirect_uri: invalid server resource")
	}

	// Loopback redirects stay allowed in production, they cannot be
	// intercepted remotely.
	isProduction := !isLoopback(serverURL.Hostname())
	if isProduction && !isLoopback(parsed.Hostname()) && parsed.Scheme != "https" {
		return fmt.Errorf("redirect_uri must use HTTPS for non-loopback hosts: %s", uri)
	}

	return nil
}

// isLoopback checks if a hostname is a loopback address.
func isLoopback(hostname string) bool {
	hostname = strings.Trim(hostname, "[]")

	for _, loopback := range LoopbackAddresses {
		if hostname == loopback {
			return true
		}
	}
	return strings.HasPrefix(hostname, "127.")
}
