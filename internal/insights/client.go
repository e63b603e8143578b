package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// Client wraps insights retrieval of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates an insights client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// Get runs an insights query against any Graph API object: an ad account
// ("act_" prefixed), campaign, ad set or ad ID.
func (c *Client) Get(ctx context.Context, objectID string, opts Options) (*Report, error) {
	if objectID == "" {
		return nil, fmt.Errorf("object ID is required")
	}

	params, err := opts.encode()
	if err != nil {
		return nil, err
	}

	envelope, err := c.graph.GetList(ctx, objectID+"/insights", params)
	if err != nil {
		return nil, fmt.Errorf("failed to get insights for %s: %w", objectID, err)
	}

	var rows []Row
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode insights: %w", err)
		}
	}

	report := &Report{Rows: rows}
	if envelope.Paging != nil {
		report.Next = envelope.Paging.Cursors.After
	}
	return report, nil
}

func (o Options) encode() (url.Values, error) {
	if o.DatePreset != "" && o.TimeRange != nil {
		return nil, fmt.Errorf("date_preset and time_range are mutually exclusive")
	}

	params := url.Values{}

	fields := o.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	params.Set("fields", strings.Join(fields, ","))

	if o.Level != "" {
		switch o.Level {
		case LevelAccount, LevelCampaign, LevelAdSet, LevelAd:
		default:
			return nil, fmt.Errorf("invalid insights level %q", o.Level)
		}
		params.Set("level", string(o.Level))
	}

	if o.DatePreset != "" {
		params.Set("date_preset", o.DatePreset)
	}
	if o.TimeRange != nil {
		if o.TimeRange.Since == "" || o.TimeRange.Until == "" {
			return nil, fmt.Errorf("time_range requires both since and until")
		}
		encoded, err := json.Marshal(o.TimeRange)
		if err != nil {
			return nil, fmt.Errorf("failed to encode time_range: %w", err)
		}
		params.Set("time_range", string(encoded))
	}

	if len(o.Breakdowns) > 0 {
		params.Set("breakdowns", strings.Join(o.Breakdowns, ","))
	}
	if o.TimeIncrement != "" {
		params.Set("time_increment", o.TimeIncrement)
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.After != "" {
		params.Set("after", o.After)
	}

	return params, nil
}
