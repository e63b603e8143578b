package accounts

// AdAccount represents a Meta ad account.
type AdAccount struct {
	ID            string `json:"id"`         // Graph object ID, "act_" prefixed
	AccountID     string `json:"account_id"` // Numeric account ID
	Name          string `json:"name"`
	AccountStatus int    `json:"account_status"`
	Currency      string `json:"currency"`
	TimezoneName  string `json:"timezone_name"`
	AmountSpent   string `json:"amount_spent,omitempty"`
	Balance       string `json:"balance,omitempty"`
	SpendCap      string `json:"spend_cap,omitempty"`
}

// Account status codes as documented for the account_status field.
const (
	StatusActive       = 1
	StatusDisabled     = 2
	StatusUnsettled    = 3
	StatusPendingRisk  = 7
	StatusGracePeriod  = 9
	StatusTempDisabled = 101
)

// StatusDescription returns a human readable form of the account status.
func (a *AdAccount) StatusDescription() string {
	switch a.AccountStatus {
	case StatusActive:
		return "ACTIVE"
	case StatusDisabled:
		return "DISABLED"
	case StatusUnsettled:
		return "UNSETTLED"
	case StatusPendingRisk:
		return "PENDING_RISK_REVIEW"
	case StatusGracePeriod:
		return "IN_GRACE_PERIOD"
	case StatusTempDisabled:
		return "TEMPORARILY_DISABLED"
	default:
		return "UNKNOWN"
	}
}
