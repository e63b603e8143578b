package meta

// DefaultOAuthScopes are the Meta OAuth scopes required for full MCP functionality.
// These scopes are used consistently across the application for OAuth configurations.
//
// The scopes provide access to:
//   - Ads management: campaign, ad set, ad, creative and audience CRUD
//   - Ads read: insights and reporting
//   - Business management: ad account discovery
var DefaultOAuthScopes = []string{
	// Basic profile scopes (required for user info)
	"public_profile",
	"email",

	// Marketing API scopes
	"ads_management",
	"ads_read",
	"read_insights",

	// Business Manager scope for ad account discovery
	"business_management",
}
