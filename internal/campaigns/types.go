package campaigns

// Campaign represents a Meta advertising campaign.
type Campaign struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Objective           string   `json:"objective,omitempty"`
	Status              string   `json:"status,omitempty"`
	EffectiveStatus     string   `json:"effective_status,omitempty"`
	SpecialAdCategories []string `json:"special_ad_categories,omitempty"`
	BuyingType          string   `json:"buying_type,omitempty"`
	DailyBudget         string   `json:"daily_budget,omitempty"`    // minor currency units
	LifetimeBudget      string   `json:"lifetime_budget,omitempty"` // minor currency units
	SpendCap            string   `json:"spend_cap,omitempty"`
	CreatedTime         string   `json:"created_time,omitempty"`
	StartTime           string   `json:"start_time,omitempty"`
	StopTime            string   `json:"stop_time,omitempty"`
	UpdatedTime         string   `json:"updated_time,omitempty"`
}

// Input holds the writable campaign fields for create and update.
// Zero values are omitted from the request.
type Input struct {
	Name                string
	Objective           string // e.g. OUTCOME_TRAFFIC, OUTCOME_SALES, OUTCOME_AWARENESS
	Status              string // ACTIVE or PAUSED
	SpecialAdCategories []string
	DailyBudget         string // minor currency units
	LifetimeBudget      string // minor currency units
	SpendCap            string
	StartTime           string // ISO 8601
	StopTime            string // ISO 8601
}

// ListOptions controls campaign listing.
type ListOptions struct {
	Limit           int
	After           string // pagination cursor
	EffectiveStatus []string
}

// Valid campaign status values for the status field.
const (
	StatusActive   = "ACTIVE"
	StatusPaused   = "PAUSED"
	StatusDeleted  = "DELETED"
	StatusArchived = "ARCHIVED"
)
