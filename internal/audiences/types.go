package audiences

// CustomAudience represents a Meta custom audience.
type CustomAudience struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Subtype           string           `json:"subtype,omitempty"`
	ApproximateCount  int64            `json:"approximate_count_lower_bound,omitempty"`
	DeliveryStatus    *OperationStatus `json:"delivery_status,omitempty"`
	OperationStatus   *OperationStatus `json:"operation_status,omitempty"`
	TimeUpdated       int64            `json:"time_updated,omitempty"`
	CustomerFileSource string          `json:"customer_file_source,omitempty"`
}

// OperationStatus describes the processing state of an audience.
type OperationStatus struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// Input holds the writable audience fields for create and update.
type Input struct {
	Name               string
	Description        string
	Subtype            string // CUSTOM for customer list audiences
	CustomerFileSource string // e.g. USER_PROVIDED_ONLY, PARTNER_PROVIDED_ONLY
}

// Schema identifies the identifier type of an uploaded customer list.
type Schema string

// Supported upload schemas. Identifiers are normalized and SHA-256 hashed
// before upload.
const (
	SchemaEmail Schema = "EMAIL_SHA256"
	SchemaPhone Schema = "PHONE_SHA256"
)

// ListOptions controls audience listing.
type ListOptions struct {
	Limit int
	After string
}

// UsersResult reports the outcome of an audience user upload or removal.
type UsersResult struct {
	AudienceID        string `json:"audience_id"`
	SessionID         string `json:"session_id,omitempty"`
	NumReceived       int    `json:"num_received"`
	NumInvalidEntries int    `json:"num_invalid_entries"`
}

// payload is the users endpoint request body.
type payload struct {
	Schema string     `json:"schema"`
	Data   [][]string `json:"data"`
}
