package creatives

import "encoding/json"

// AdCreative represents a Meta ad creative.
type AdCreative struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Title           string          `json:"title,omitempty"`
	Body            string          `json:"body,omitempty"`
	ObjectStorySpec json.RawMessage `json:"object_story_spec,omitempty"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty"`
	Status          string          `json:"status,omitempty"`
}

// LinkInput describes a link ad creative. It is translated into an
// object_story_spec with link_data.
type LinkInput struct {
	Name         string // creative name, not shown to users
	PageID       string // Facebook Page publishing the ad
	Link         string // destination URL
	Message      string // primary text
	Headline     string // link headline (link_data.name)
	Description  string // link description
	ImageURL     string // picture URL
	CallToAction string // e.g. LEARN_MORE, SHOP_NOW
}

// ListOptions controls creative listing.
type ListOptions struct {
	Limit int
	After string
}

// objectStorySpec mirrors the Graph API object_story_spec for link ads.
type objectStorySpec struct {
	PageID   string   `json:"page_id"`
	LinkData linkData `json:"link_data"`
}

type linkData struct {
	Link         string        `json:"link"`
	Message      string        `json:"message,omitempty"`
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Picture      string        `json:"picture,omitempty"`
	CallToAction *callToAction `json:"call_to_action,omitempty"`
}

type callToAction struct {
	Type  string            `json:"type"`
	Value callToActionValue `json:"value"`
}

type callToActionValue struct {
	Link string `json:"link"`
}
