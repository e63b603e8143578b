// Package cmd implements the command-line interface for meta-ads-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide Meta Marketing API tools for AI assistants
//   - accounts: List and remove locally stored Meta account tokens
//   - login: Authorize a Meta account via Facebook Login
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
