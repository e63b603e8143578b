// Package logging provides structured logging helpers built on log/slog.
//
// It defines canonical attribute keys used across the codebase and helpers
// for sanitizing sensitive values (access tokens, user identifiers) before
// they reach log output.
package logging
