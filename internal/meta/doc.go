// Package meta provides the core client for the Meta Marketing API.
//
// It covers OAuth authentication against Facebook Login (including the
// long-lived token exchange, since Meta does not issue refresh tokens),
// per-account token storage for the stdio transport, and a Graph API HTTP
// client with retry, rate limiting and typed error handling.
//
// Domain packages (campaigns, adsets, ads, creatives, insights, audiences)
// build on the Graph client defined here.
package meta
