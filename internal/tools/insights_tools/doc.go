// Package insights_tools provides MCP tools for querying Meta advertising
// performance reports at account, campaign, ad set and ad level.
package insights_tools
