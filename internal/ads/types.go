package ads

// Ad represents a Meta ad.
type Ad struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AdsetID         string    `json:"adset_id,omitempty"`
	CampaignID      string    `json:"campaign_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	EffectiveStatus string    `json:"effective_status,omitempty"`
	Creative        *Creative `json:"creative,omitempty"`
	CreatedTime     string    `json:"created_time,omitempty"`
	UpdatedTime     string    `json:"updated_time,omitempty"`
}

// Creative is the creative reference embedded in an ad.
type Creative struct {
	ID string `json:"id"`
}

// Input holds the writable ad fields for create and update.
type Input struct {
	Name       string
	AdsetID    string
	Status     string // ACTIVE or PAUSED
	CreativeID string
}

// ListOptions controls ad listing.
type ListOptions struct {
	Limit   int
	After   string
	AdsetID string // restrict to one ad set
}
