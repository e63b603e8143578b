package audiences

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Identifier normalization and hashing for customer list uploads.
//
// Meta requires identifiers to be normalized and SHA-256 hashed before
// upload. Raw identifiers never leave the process and are never logged.

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("empty email")
	}
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}

// NormalizePhone strips all non-digit characters from a phone number.
// Numbers are expected to include the country code.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if len(normalized) < 7 {
		return "", fmt.Errorf("phone number too short")
	}
	return normalized, nil
}

// HashIdentifier returns the lowercase hex SHA-256 of a normalized identifier.
func HashIdentifier(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// normalizeAndHash prepares a batch of raw identifiers for upload under the
// given schema. Invalid entries are counted and skipped, not sent.
func normalizeAndHash(schema Schema, ids []string) (hashed [][]string, invalid int, err error) {
	var normalize func(string) (string, error)
	switch schema {
	case SchemaEmail:
		normalize = NormalizeEmail
	case SchemaPhone:
		normalize = NormalizePhone
	default:
		return nil, 0, fmt.Errorf("unsupported schema %q", schema)
	}

	for _, id := range ids {
		normalized, err := normalize(id)
		if err != nil {
			invalid++
			continue
		}
		hashed = append(hashed, []string{HashIdentifier(normalized)})
	}

	if len(hashed) == 0 {
		return nil, invalid, fmt.Errorf("no valid identifiers in input (%d invalid)", invalid)
	}
	return hashed, invalid, nil
}
