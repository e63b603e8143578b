package common

import (
	"context"
	"fmt"

	"github.com/adtoolkit/meta-ads-mcp/internal/mcp/oauth"
)

// GetAccountFromArgs resolves the Meta account for a tool call.
//
// Priority order:
//  1. OAuth session from context (set by the HTTP bearer middleware)
//  2. Explicit "account" argument in the request
//  3. "default"
func GetAccountFromArgs(ctx context.Context, args map[string]interface{}) string {
	if session, ok := oauth.GetSessionFromContext(ctx); ok && session != nil && session.UserID != "" {
		return session.UserID
	}

	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return "default"
}

// AuthInstructions returns the guidance shown when no token exists for an
// account on the stdio transport.
func AuthInstructions(account string) string {
	return fmt.Sprintf(`No Meta OAuth token found for account %q. To authorize access:

1. Call the meta_get_auth_url tool to get a Facebook Login URL
2. Visit the URL in your browser and sign in with your Meta account
3. Grant access to the requested ads permissions
4. Copy the authorization code from the redirect URL
5. Call the meta_save_auth_code tool with the code and account=%q

You only need to authorize once per account. The server exchanges the code
for a long-lived token valid for about 60 days.`, account, account)
}
