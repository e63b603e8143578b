// Package campaigns provides campaign CRUD operations for the Meta
// Marketing API.
package campaigns
