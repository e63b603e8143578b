package oauth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenProvider implements meta.TokenProvider backed by the session store.
// The authenticated session from the request context takes precedence, the
// account name is irrelevant for HTTP transport where every request
// carries its own identity.
type TokenProvider struct {
	store TokenStore
}

// NewTokenProvider creates a store-backed token provider.
func NewTokenProvider(store TokenStore) *TokenProvider {
	return &TokenProvider{store: store}
}

// GetTokenForAccount returns the Meta token of the authenticated session.
func (p *TokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	session, ok := GetSessionFromContext(ctx)
	if !ok || session == nil {
		return nil, fmt.Errorf("no authenticated session for account %s. Please authenticate through your MCP client", account)
	}

	if session.MetaTokenExpiry.Before(time.Now()) {
		return nil, fmt.Errorf("Meta token expired for account %s. Please re-authenticate through your MCP client", account)
	}

	return &oauth2.Token{
		AccessToken: session.MetaAccessToken,
		TokenType:   "Bearer",
		Expiry:      session.MetaTokenExpiry,
	}, nil
}

// HasTokenForAccount reports whether a token could be resolved. Without a
// request context the store cannot be consulted, so this is optimistic:
// the per-request lookup gives the definitive answer.
func (p *TokenProvider) HasTokenForAccount(account string) bool {
	return true
}
