package meta

import "encoding/json"

// Cursors holds opaque pagination cursors returned by the Graph API.
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Paging describes the pagination state of a Graph API list response.
type Paging struct {
	Cursors  Cursors `json:"cursors,omitempty"`
	Next     string  `json:"next,omitempty"`
	Previous string  `json:"previous,omitempty"`
}

// ListEnvelope is the generic wrapper around Graph API list responses.
// Data is left raw so callers can decode into their own element types.
type ListEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Paging *Paging         `json:"paging,omitempty"`
}

// SuccessResponse is returned by mutation endpoints that only acknowledge
// the operation, such as DELETE and status updates.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// CreateResponse is returned by object creation endpoints.
type CreateResponse struct {
	ID string `json:"id"`
}

// UserInfo holds the authenticated Meta user's profile, fetched from /me.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TokenDebugInfo holds the relevant fields of a debug_token response.
type TokenDebugInfo struct {
	AppID     string   `json:"app_id"`
	UserID    string   `json:"user_id"`
	IsValid   bool     `json:"is_valid"`
	ExpiresAt int64    `json:"expires_at"`
	Scopes    []string `json:"scopes"`
}
