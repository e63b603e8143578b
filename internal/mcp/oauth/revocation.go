package oauth

import (
	"net/http"
)

// ServeTokenRevocation handles RFC 7009 token revocation.
// POST /oauth/revoke with form fields token and optional token_type_hint.
//
// Per RFC 7009 the endpoint returns 200 even for unknown tokens, which
// prevents token scanning. Client authentication is required.
func (h *Handler) ServeTokenRevocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeError(w, "invalid_request", "Failed to parse request", http.StatusBadRequest)
		return
	}

	token := r.FormValue("token")
	if token == "" {
		h.writeError(w, "invalid_request", "Missing token parameter", http.StatusBadRequest)
		return
	}

	clientID, err := h.authenticateRevocationClient(r)
	if err != nil {
		h.logger.Warn("Client authentication failed for revocation",
			"error", err,
			"ip", getClientIP(r, h.config.RateLimit.TrustProxy))
		h.writeError(w, "invalid_client", "Client authentication required", http.StatusUnauthorized)
		return
	}

	tokenHash := HashToken(token)
	hint := r.FormValue("token_type_hint")

	revoked := false
	switch hint {
	case "refresh_token":
		revoked = h.revokeRefreshGrant(r, tokenHash)
	case "access_token":
		revoked = h.revokeSession(r, tokenHash)
	default:
		revoked = h.revokeRefreshGrant(r, tokenHash) || h.revokeSession(r, tokenHash)
	}

	if revoked {
		h.logger.Info("Token revoked",
			"client_id", clientID,
			"token_hash", hashForLogging(token))
	} else {
		h.logger.Debug("Revocation for unknown token, returning success",
			"client_id", clientID)
	}

	w.WriteHeader(http.StatusOK)
}

// RevokeUserTokens removes every session and refresh grant of a user,
// forcing re-authentication on all clients.
func (h *Handler) RevokeUserTokens(r *http.Request, userID string) error {
	return h.store.DeleteUserTokens(r.Context(), userID)
}

func (h *Handler) revokeRefreshGrant(r *http.Request, tokenHash string) bool {
	if _, err := h.store.GetRefreshGrant(r.Context(), tokenHash); err != nil {
		return false
	}
	if err := h.store.DeleteRefreshGrant(r.Context(), tokenHash); err != nil {
		h.logger.Warn("Failed to delete refresh grant", "error", err)
		return false
	}
	return true
}

func (h *Handler) revokeSession(r *http.Request, tokenHash string) bool {
	if _, err := h.store.GetSession(r.Context(), tokenHash); err != nil {
		return false
	}
	if err := h.store.DeleteSession(r.Context(), tokenHash); err != nil {
		h.logger.Warn("Failed to delete session", "error", err)
		return false
	}
	return true
}

// authenticateRevocationClient authenticates the revoking client, mirroring
// token endpoint authentication.
func (h *Handler) authenticateRevocationClient(r *http.Request) (string, error) {
	clientID, clientSecret, ok := r.BasicAuth()
	if ok && clientID != "" {
		if err := h.clientStore.ValidateClientSecret(clientID, clientSecret); err != nil {
			return "", err
		}
		return clientID, nil
	}

	clientID = r.FormValue("client_id")
	clientSecret = r.FormValue("client_secret")

	if clientID == "" {
		return "", errMissingClientID
	}

	if clientSecret == "" {
		client, err := h.clientStore.GetClient(clientID)
		if err != nil {
			return "", err
		}
		if client.TokenEndpointAuthMethod != "none" {
			return "", errClientSecretRequired
		}
		return clientID, nil
	}

	if err := h.clientStore.ValidateClientSecret(clientID, clientSecret); err != nil {
		return "", err
	}
	return clientID, nil
}

var (
	errMissingClientID      = &OAuthError{Code: "invalid_client", Description: "missing client_id", Status: http.StatusUnauthorized}
	errClientSecretRequired = &OAuthError{Code: "invalid_client", Description: "client secret required", Status: http.StatusUnauthorized}
)
