package oauth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the hex SHA-256 of a token. Sessions and refresh
// grants are stored under this hash so a leaked store never exposes
// usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// hashForLogging creates a short SHA-256 digest of sensitive data for
// safe logging. Returns an empty string for empty input.
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(sum[:])[:16]
}

// HashForDisplay is like hashForLogging but marks empty values explicitly.
func HashForDisplay(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	return hashForLogging(sensitive)
}
