// Package ad_tools provides MCP tools for managing individual Meta ads
// and linking them to creatives.
package ad_tools
