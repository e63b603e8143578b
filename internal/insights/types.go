package insights

// Level selects the aggregation level of an insights query.
type Level string

// Valid insights levels.
const (
	LevelAccount  Level = "account"
	LevelCampaign Level = "campaign"
	LevelAdSet    Level = "adset"
	LevelAd       Level = "ad"
)

// DefaultFields are requested when the caller does not specify fields.
var DefaultFields = []string{
	"impressions",
	"reach",
	"clicks",
	"ctr",
	"cpc",
	"cpm",
	"spend",
	"frequency",
	"actions",
	"date_start",
	"date_stop",
}

// TimeRange is an explicit reporting window. Both bounds are inclusive
// dates in YYYY-MM-DD format.
type TimeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// Options controls an insights query.
//
// DatePreset and TimeRange are mutually exclusive; when both are empty the
// API default (last 30 days) applies.
type Options struct {
	Level         Level
	Fields        []string
	DatePreset    string // e.g. today, yesterday, last_7d, last_30d, this_month
	TimeRange     *TimeRange
	Breakdowns    []string // e.g. age, gender, country, publisher_platform
	TimeIncrement string   // "1" for daily rows, "7" weekly, "monthly"
	Limit         int
	After         string
}

// Row is a single insights result row. The Graph API returns metric values
// as strings; rows are kept as generic maps since the requested field set
// is caller-defined.
type Row map[string]any

// Report is the result of an insights query.
type Report struct {
	Rows []Row  `json:"data"`
	Next string `json:"next,omitempty"` // cursor for the next page
}
