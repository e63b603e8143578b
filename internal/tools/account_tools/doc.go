// Package account_tools provides MCP tools for discovering the ad accounts
// accessible to an authorized Meta user.
package account_tools
