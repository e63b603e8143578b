// Package campaign_tools provides MCP tools for managing Meta advertising
// campaigns: listing, retrieval, creation, updates, status changes and
// deletion.
package campaign_tools
