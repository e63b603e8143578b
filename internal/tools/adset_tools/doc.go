// Package adset_tools provides MCP tools for managing Meta ad sets,
// including budgets, bidding, optimization goals and targeting specs.
package adset_tools
