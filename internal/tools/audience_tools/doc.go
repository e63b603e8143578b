// Package audience_tools provides MCP tools for managing Meta custom
// audiences. Customer identifiers are normalized and SHA-256 hashed locally
// before any upload; raw emails or phone numbers never leave the server.
package audience_tools
