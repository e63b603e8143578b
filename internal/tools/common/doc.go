// Package common provides shared helpers for the MCP tool packages:
// account resolution from OAuth sessions or tool arguments, auth guidance
// for unauthenticated accounts, and instrumented handler wrappers.
package common
