// Package server provides the MCP server context, session management, and
// the OAuth-enabled HTTP server.
//
// ServerContext holds the shared state of a running server: a token
// provider (file-based for stdio, OAuth session store for HTTP), lazily
// created per-account Meta API clients, and instrumentation. Client sets
// are cached per account and rebuilt when the account's access token
// changes.
//
// OAuthHTTPServer mounts the OAuth 2.1 authorization endpoints next to the
// MCP transport endpoints on one listener. MCP requests authenticate with
// the opaque tokens the OAuth layer issued; the Meta access tokens behind
// them never leave the server.
//
// SessionIDManager maps bearer tokens to Meta accounts so multiple users
// can share one server instance. HealthChecker and MetricsServer provide
// the Kubernetes probe endpoints and the dedicated Prometheus listener.
package server
