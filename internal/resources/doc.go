// Package resources provides MCP resources for exposing account data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the authorized Meta accounts and the ad accounts they can manage.
package resources
