// Package creative_tools provides MCP tools for managing Meta ad creatives,
// including a convenience tool for link ads and a raw object_story_spec
// escape hatch for other formats.
package creative_tools
