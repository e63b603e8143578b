package campaigns

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

const defaultFields = "id,name,objective,status,effective_status,special_ad_categories,buying_type,daily_budget,lifetime_budget,spend_cap,created_time,start_time,stop_time,updated_time"

// Client wraps campaign operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates a campaign client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// List lists campaigns of an ad account.
// Returns the campaigns and the cursor for the next page, if any.
func (c *Client) List(ctx context.Context, adAccountID string, opts ListOptions) ([]Campaign, string, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}
	if len(opts.EffectiveStatus) > 0 {
		encoded, err := json.Marshal(opts.EffectiveStatus)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode effective_status filter: %w", err)
		}
		params.Set("effective_status", string(encoded))
	}

	path := accounts.NormalizeID(adAccountID) + "/campaigns"
	envelope, err := c.graph.GetList(ctx, path, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list campaigns: %w", err)
	}

	var result []Campaign
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, "", fmt.Errorf("failed to decode campaigns: %w", err)
	}

	var next string
	if envelope.Paging != nil {
		next = envelope.Paging.Cursors.After
	}
	return result, next, nil
}

// Get retrieves a single campaign by ID.
func (c *Client) Get(ctx context.Context, campaignID string) (*Campaign, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result Campaign
	if err := c.graph.Get(ctx, campaignID, params, &result); err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", campaignID, err)
	}
	return &result, nil
}

// Create creates a new campaign in the given ad account and returns its ID.
// New campaigns should start PAUSED so they can be reviewed before spending.
func (c *Client) Create(ctx context.Context, adAccountID string, input Input) (string, error) {
	if input.Name == "" {
		return "", fmt.Errorf("campaign name is required")
	}
	if input.Objective == "" {
		return "", fmt.Errorf("campaign objective is required")
	}

	form, err := input.encode()
	if err != nil {
		return "", err
	}
	if input.Status == "" {
		form.Set("status", StatusPaused)
	}
	// The API requires the field even when no category applies.
	if len(input.SpecialAdCategories) == 0 {
		form.Set("special_ad_categories", "[]")
	}

	path := accounts.NormalizeID(adAccountID) + "/campaigns"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create campaign: %w", err)
	}
	return resp.ID, nil
}

// Update modifies an existing campaign. Only non-zero input fields are sent.
func (c *Client) Update(ctx context.Context, campaignID string, input Input) error {
	form, err := input.encode()
	if err != nil {
		return err
	}
	if len(form) == 0 {
		return fmt.Errorf("no fields to update")
	}

	var resp meta.SuccessResponse
	if err := c.graph.PostForm(ctx, campaignID, form, &resp); err != nil {
		return fmt.Errorf("failed to update campaign %s: %w", campaignID, err)
	}
	if !resp.Success {
		return fmt.Errorf("campaign update for %s was not acknowledged", campaignID)
	}
	return nil
}

// Delete deletes a campaign.
func (c *Client) Delete(ctx context.Context, campaignID string) error {
	var resp meta.SuccessResponse
	if err := c.graph.Delete(ctx, campaignID, nil, &resp); err != nil {
		return fmt.Errorf("failed to delete campaign %s: %w", campaignID, err)
	}
	if !resp.Success {
		return fmt.Errorf("campaign delete for %s was not acknowledged", campaignID)
	}
	return nil
}

// encode converts the input into form values, omitting zero fields.
func (in Input) encode() (url.Values, error) {
	form := url.Values{}
	if in.Name != "" {
		form.Set("name", in.Name)
	}
	if in.Objective != "" {
		form.Set("objective", in.Objective)
	}
	if in.Status != "" {
		form.Set("status", in.Status)
	}
	if len(in.SpecialAdCategories) > 0 {
		encoded, err := json.Marshal(in.SpecialAdCategories)
		if err != nil {
			return nil, fmt.Errorf("failed to encode special_ad_categories: %w", err)
		}
		form.Set("special_ad_categories", string(encoded))
	}
	if in.DailyBudget != "" {
		form.Set("daily_budget", in.DailyBudget)
	}
	if in.LifetimeBudget != "" {
		form.Set("lifetime_budget", in.LifetimeBudget)
	}
	if in.SpendCap != "" {
		form.Set("spend_cap", in.SpendCap)
	}
	if in.StartTime != "" {
		form.Set("start_time", in.StartTime)
	}
	if in.StopTime != "" {
		form.Set("stop_time", in.StopTime)
	}
	return form, nil
}
