package adsets

import "encoding/json"

// AdSet represents a Meta ad set.
type AdSet struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	CampaignID       string          `json:"campaign_id,omitempty"`
	Status           string          `json:"status,omitempty"`
	EffectiveStatus  string          `json:"effective_status,omitempty"`
	DailyBudget      string          `json:"daily_budget,omitempty"`    // minor currency units
	LifetimeBudget   string          `json:"lifetime_budget,omitempty"` // minor currency units
	BidAmount        int64           `json:"bid_amount,omitempty"`
	BillingEvent     string          `json:"billing_event,omitempty"`
	OptimizationGoal string          `json:"optimization_goal,omitempty"`
	Targeting        json.RawMessage `json:"targeting,omitempty"`
	StartTime        string          `json:"start_time,omitempty"`
	EndTime          string          `json:"end_time,omitempty"`
	CreatedTime      string          `json:"created_time,omitempty"`
	UpdatedTime      string          `json:"updated_time,omitempty"`
}

// Input holds the writable ad set fields for create and update.
// Targeting is a raw JSON targeting spec, passed through to the API.
type Input struct {
	Name             string
	CampaignID       string
	Status           string // ACTIVE or PAUSED
	DailyBudget      string // minor currency units
	LifetimeBudget   string // minor currency units
	BidAmount        int64
	BillingEvent     string // e.g. IMPRESSIONS, LINK_CLICKS
	OptimizationGoal string // e.g. LINK_CLICKS, REACH, OFFSITE_CONVERSIONS
	Targeting        string // JSON targeting spec
	StartTime        string // ISO 8601
	EndTime          string // ISO 8601
}

// ListOptions controls ad set listing.
type ListOptions struct {
	Limit      int
	After      string
	CampaignID string // restrict to one campaign
}
