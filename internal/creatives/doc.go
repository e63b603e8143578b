// Package creatives provides ad creative management for the Meta Marketing
// API. Link ad creatives are built from structured input; other formats
// pass a raw object_story_spec through.
package creatives
