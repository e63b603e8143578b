// Package audiences provides custom audience management for the Meta
// Marketing API.
//
// Customer list identifiers (emails, phone numbers) are normalized and
// SHA-256 hashed locally before upload. Raw identifiers never leave the
// process and are never written to logs.
package audiences
