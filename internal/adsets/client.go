package adsets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

const defaultFields = "id,name,campaign_id,status,effective_status,daily_budget,lifetime_budget,bid_amount,billing_event,optimization_goal,targeting,start_time,end_time,created_time,updated_time"

// Client wraps ad set operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates an ad set client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// List lists ad sets of an ad account, or of a single campaign when
// opts.CampaignID is set. Returns the next pagination cursor, if any.
func (c *Client) List(ctx context.Context, adAccountID string, opts ListOptions) ([]AdSet, string, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}

	path := accounts.NormalizeID(adAccountID) + "/adsets"
	if opts.CampaignID != "" {
		path = opts.CampaignID + "/adsets"
	}

	envelope, err := c.graph.GetList(ctx, path, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list ad sets: %w", err)
	}

	var result []AdSet
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, "", fmt.Errorf("failed to decode ad sets: %w", err)
	}

	var next string
	if envelope.Paging != nil {
		next = envelope.Paging.Cursors.After
	}
	return result, next, nil
}

// Get retrieves a single ad set by ID.
func (c *Client) Get(ctx context.Context, adSetID string) (*AdSet, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result AdSet
	if err := c.graph.Get(ctx, adSetID, params, &result); err != nil {
		return nil, fmt.Errorf("failed to get ad set %s: %w", adSetID, err)
	}
	return &result, nil
}

// Create creates a new ad set and returns its ID.
func (c *Client) Create(ctx context.Context, adAccountID string, input Input) (string, error) {
	if input.Name == "" {
		return "", fmt.Errorf("ad set name is required")
	}
	if input.CampaignID == "" {
		return "", fmt.Errorf("campaign_id is required")
	}
	if input.OptimizationGoal == "" {
		return "", fmt.Errorf("optimization_goal is required")
	}
	if input.BillingEvent == "" {
		return "", fmt.Errorf("billing_event is required")
	}
	if input.Targeting == "" {
		return "", fmt.Errorf("targeting spec is required")
	}

	form, err := input.encode()
	if err != nil {
		return "", err
	}
	if input.Status == "" {
		form.Set("status", "PAUSED")
	}

	path := accounts.NormalizeID(adAccountID) + "/adsets"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create ad set: %w", err)
	}
	return resp.ID, nil
}

// Update modifies an existing ad set. Only non-zero input fields are sent.
func (c *Client) Update(ctx context.Context, adSetID string, input Input) error {
	form, err := input.encode()
	if err != nil {
		return err
	}
	if len(form) == 0 {
		return fmt.Errorf("no fields to update")
	}

	var resp meta.SuccessResponse
	if err := c.graph.PostForm(ctx, adSetID, form, &resp); err != nil {
		return fmt.Errorf("failed to update ad set %s: %w", adSetID, err)
	}
	if !resp.Success {
		return fmt.Errorf("ad set update for %s was not acknowledged", adSetID)
	}
	return nil
}

// Delete deletes an ad set.
func (c *Client) Delete(ctx context.Context, adSetID string) error {
	var resp meta.SuccessResponse
	if err := c.graph.Delete(ctx, adSetID, nil, &resp); err != nil {
		return fmt.Errorf("failed to delete ad set %s: %w", adSetID, err)
	}
	if !resp.Success {
		return fmt.Errorf("ad set delete for %s was not acknowledged", adSetID)
	}
	return nil
}

func (in Input) encode() (url.Values, error) {
	form := url.Values{}
	if in.Name != "" {
		form.Set("name", in.Name)
	}
	if in.CampaignID != "" {
		form.Set("campaign_id", in.CampaignID)
	}
	if in.Status != "" {
		form.Set("status", in.Status)
	}
	if in.DailyBudget != "" {
		form.Set("daily_budget", in.DailyBudget)
	}
	if in.LifetimeBudget != "" {
		form.Set("lifetime_budget", in.LifetimeBudget)
	}
	if in.BidAmount > 0 {
		form.Set("bid_amount", strconv.FormatInt(in.BidAmount, 10))
	}
	if in.BillingEvent != "" {
		form.Set("billing_event", in.BillingEvent)
	}
	if in.OptimizationGoal != "" {
		form.Set("optimization_goal", in.OptimizationGoal)
	}
	if in.Targeting != "" {
		// Validate before passing through so broken specs fail locally.
		if !json.Valid([]byte(in.Targeting)) {
			return nil, fmt.Errorf("targeting spec is not valid JSON")
		}
		form.Set("targeting", in.Targeting)
	}
	if in.StartTime != "" {
		form.Set("start_time", in.StartTime)
	}
	if in.EndTime != "" {
		form.Set("end_time", in.EndTime)
	}
	return form, nil
}
