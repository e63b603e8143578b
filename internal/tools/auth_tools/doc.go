// Package auth_tools provides MCP tools for Meta OAuth management on the
// stdio transport: obtaining a Facebook Login URL, exchanging authorization
// codes for long-lived tokens, and managing stored accounts.
package auth_tools
