package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// contextKey is the type for context keys set by the middleware.
type contextKey string

const sessionContextKey contextKey = "oauth_session"

// ValidateToken is middleware that validates the opaque bearer tokens this
// server issued. The token is hashed and looked up in the session store,
// no call to Meta is needed on the request path.
func (h *Handler) ValidateToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(
				`Bearer realm="%s", resource_metadata="/.well-known/oauth-protected-resource"`,
				h.config.Resource,
			))
			h.writeUnauthorizedError(w, "missing_token", "Missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(
				`Bearer realm="%s", resource_metadata="/.well-known/oauth-protected-resource", error="invalid_token"`,
				h.config.Resource,
			))
			h.writeUnauthorizedError(w, "invalid_token", "Invalid Authorization header format")
			return
		}

		session, err := h.store.GetSession(r.Context(), HashToken(parts[1]))
		if err != nil {
			errorDesc := actionableAuthError(err)
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(
				`Bearer realm="%s", resource_metadata="/.well-known/oauth-protected-resource", error="invalid_token", error_description="%s"`,
				h.config.Resource,
				errorDesc,
			))
			h.writeUnauthorizedError(w, "invalid_token", errorDesc)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalToken validates a bearer token when present and passes through
// unauthenticated requests otherwise.
func (h *Handler) OptionalToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		h.ValidateToken(next).ServeHTTP(w, r)
	})
}

// GetSessionFromContext retrieves the authenticated session, if any.
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok
}

// ContextWithSession attaches a session to a context. Used in tests and by
// transports that authenticate out of band.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func (h *Handler) writeUnauthorizedError(w http.ResponseWriter, errorCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

// actionableAuthError turns a session lookup failure into guidance the MCP
// client can surface to the user.
func actionableAuthError(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "expired") {
		return "Session expired. Please re-authenticate through your MCP client."
	}
	if strings.Contains(errStr, "not found") {
		return "Unknown or revoked token. Please re-authenticate through your MCP client."
	}
	return fmt.Sprintf("Token validation failed: %v. Please re-authenticate through your MCP client.", err)
}
