// Package oauth implements the OAuth 2.1 layer of the MCP server.
//
// The server acts as an OAuth 2.1 authorization server toward MCP clients
// and proxies the actual user authentication to Meta's Facebook Login. It
// issues its own opaque access tokens; Meta tokens never leave the server.
// Sessions are kept in a pluggable token store (in-memory or Valkey).
package oauth
