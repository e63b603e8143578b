package oauth

import (
	"context"
	"net/http"
	"time"
)

// authCodeRequest holds parsed authorization code grant parameters.
type authCodeRequest struct {
	Code         string
	RedirectURI  string
	ClientID     string
	CodeVerifier string
}

// sessionSeed carries everything needed to mint a session and refresh grant.
type sessionSeed struct {
	UserID          string
	UserName        string
	UserEmail       string
	ClientID        string
	Scope           string
	MetaAccessToken string
	MetaTokenExpiry time.Time
}

func (h *Handler) parseAuthCodeRequest(r *http.Request) (*authCodeRequest, *OAuthError) {
	code := r.FormValue("code")
	if code == "" {
		return nil, ErrInvalidRequest("code is required")
	}

	return &authCodeRequest{
		Code:         code,
		RedirectURI:  r.FormValue("redirect_uri"),
		ClientID:     r.FormValue("client_id"),
		CodeVerifier: r.FormValue("code_verifier"),
	}, nil
}

// validateAndRetrieveAuthCode consumes the one-time authorization code and
// checks it against the request.
func (h *Handler) validateAndRetrieveAuthCode(params *authCodeRequest) (*AuthorizationCode, *OAuthError) {
	authCode, err := h.flowStore.ConsumeAuthorizationCode(params.Code)
	if err != nil {
		h.logger.Warn("Invalid authorization code", "error", err)
		return nil, ErrInvalidGrant("Invalid or expired authorization code")
	}

	// For public clients using PKCE the client_id may be omitted, it is
	// then taken from the authorization code.
	if params.ClientID != "" && authCode.ClientID != params.ClientID {
		h.logger.Warn("Client ID mismatch",
			"expected", authCode.ClientID,
			"got", params.ClientID)
		return nil, ErrInvalidGrant("Client ID mismatch")
	}

	if authCode.RedirectURI != params.RedirectURI {
		h.logger.Warn("Redirect URI mismatch",
			"expected", authCode.RedirectURI,
			"got", params.RedirectURI)
		return nil, ErrInvalidGrant("Redirect URI mismatch")
	}

	return authCode, nil
}

// validatePKCE checks the code_verifier against the stored code_challenge.
func (h *Handler) validatePKCE(authCode *AuthorizationCode, codeVerifier string, clientID string) *OAuthError {
	if authCode.CodeChallenge == "" {
		return nil
	}

	if codeVerifier == "" {
		return ErrInvalidRequest("code_verifier is required")
	}
	if len(codeVerifier) < MinCodeVerifierLength {
		h.logger.Warn("code_verifier too short",
			"client_id", clientID,
			"length", len(codeVerifier))
		return ErrInvalidRequest("code_verifier must be at least 43 characters (RFC 7636)")
	}
	if len(codeVerifier) > MaxCodeVerifierLength {
		return ErrInvalidRequest("code_verifier must be at most 128 characters (RFC 7636)")
	}

	if !ValidateCodeChallenge(codeVerifier, authCode.CodeChallenge, authCode.CodeChallengeMethod) {
		h.logger.Warn("PKCE verification failed", "client_id", clientID)
		return ErrInvalidGrant("Invalid code_verifier")
	}

	return nil
}

// authenticateClient validates client credentials for the token endpoint.
func (h *Handler) authenticateClient(r *http.Request, clientID string) (*RegisteredClient, *OAuthError) {
	client, err := h.clientStore.GetClient(clientID)
	if err != nil {
		h.logger.Warn("Unknown client", "client_id", clientID, "error", err)
		return nil, ErrInvalidClient("Invalid client")
	}

	if client.TokenEndpointAuthMethod != "none" {
		clientSecret := r.FormValue("client_secret")
		if clientSecret == "" {
			username, password, ok := r.BasicAuth()
			if !ok || username != clientID {
				return nil, ErrInvalidClient("Client authentication required")
			}
			clientSecret = password
		}

		if err := h.clientStore.ValidateClientSecret(clientID, clientSecret); err != nil {
			h.logger.Warn("Client authentication failed", "client_id", clientID)
			return nil, ErrInvalidClient("Client authentication failed")
		}
	}

	return client, nil
}

// issueTokens mints an opaque access token, stores its session, and
// optionally issues a refresh token. Only token hashes reach the store.
func (h *Handler) issueTokens(ctx context.Context, seed sessionSeed, withRefresh bool) (*TokenResponse, *OAuthError) {
	accessToken, err := generateSecureToken(AccessTokenLength)
	if err != nil {
		h.logger.Error("Failed to generate access token", "error", err)
		return nil, ErrServerError("Failed to generate access token")
	}

	now := time.Now()
	sessionExpiry := now.Add(DefaultAccessTokenTTL)
	if seed.MetaTokenExpiry.Before(sessionExpiry) {
		sessionExpiry = seed.MetaTokenExpiry
	}

	session := &Session{
		UserID:          seed.UserID,
		UserName:        seed.UserName,
		UserEmail:       seed.UserEmail,
		ClientID:        seed.ClientID,
		Scope:           seed.Scope,
		MetaAccessToken: seed.MetaAccessToken,
		MetaTokenExpiry: seed.MetaTokenExpiry,
		CreatedAt:       now,
		ExpiresAt:       sessionExpiry,
	}

	if err := h.store.SaveSession(ctx, HashToken(accessToken), session); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		return nil, ErrServerError("Failed to store session")
	}

	tokenResp := &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(sessionExpiry).Seconds()),
		Scope:       seed.Scope,
	}

	if withRefresh {
		refreshToken, err := generateSecureToken(RefreshTokenLength)
		if err != nil {
			h.logger.Warn("Failed to generate refresh token", "error", err)
			return tokenResp, nil
		}

		grant := &RefreshGrant{
			UserID:          seed.UserID,
			UserName:        seed.UserName,
			UserEmail:       seed.UserEmail,
			ClientID:        seed.ClientID,
			Scope:           seed.Scope,
			MetaAccessToken: seed.MetaAccessToken,
			MetaTokenExpiry: seed.MetaTokenExpiry,
			CreatedAt:       now,
			ExpiresAt:       now.Add(h.config.Security.RefreshTokenTTL),
		}

		if err := h.store.SaveRefreshGrant(ctx, HashToken(refreshToken), grant); err != nil {
			h.logger.Warn("Failed to store refresh grant",
				"user_id", seed.UserID,
				"error", err)
		} else {
			tokenResp.RefreshToken = refreshToken
		}
	}

	return tokenResp, nil
}
