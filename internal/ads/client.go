package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

const defaultFields = "id,name,adset_id,campaign_id,status,effective_status,creative{id},created_time,updated_time"

// Client wraps ad operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates an ad client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// List lists ads of an ad account, or of a single ad set when opts.AdsetID
// is set. Returns the next pagination cursor, if any.
func (c *Client) List(ctx context.Context, adAccountID string, opts ListOptions) ([]Ad, string, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}

	path := accounts.NormalizeID(adAccountID) + "/ads"
	if opts.AdsetID != "" {
		path = opts.AdsetID + "/ads"
	}

	envelope, err := c.graph.GetList(ctx, path, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list ads: %w", err)
	}

	var result []Ad
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, "", fmt.Errorf("failed to decode ads: %w", err)
	}

	var next string
	if envelope.Paging != nil {
		next = envelope.Paging.Cursors.After
	}
	return result, next, nil
}

// Get retrieves a single ad by ID.
func (c *Client) Get(ctx context.Context, adID string) (*Ad, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result Ad
	if err := c.graph.Get(ctx, adID, params, &result); err != nil {
		return nil, fmt.Errorf("failed to get ad %s: %w", adID, err)
	}
	return &result, nil
}

// Create creates a new ad binding an ad set to a creative, and returns its ID.
func (c *Client) Create(ctx context.Context, adAccountID string, input Input) (string, error) {
	if input.Name == "" {
		return "", fmt.Errorf("ad name is required")
	}
	if input.AdsetID == "" {
		return "", fmt.Errorf("adset_id is required")
	}
	if input.CreativeID == "" {
		return "", fmt.Errorf("creative_id is required")
	}

	form := input.encode()
	if input.Status == "" {
		form.Set("status", "PAUSED")
	}

	path := accounts.NormalizeID(adAccountID) + "/ads"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create ad: %w", err)
	}
	return resp.ID, nil
}

// Update modifies an existing ad. Only non-zero input fields are sent.
func (c *Client) Update(ctx context.Context, adID string, input Input) error {
	form := input.encode()
	if len(form) == 0 {
		return fmt.Errorf("no fields to update")
	}

	var resp meta.SuccessResponse
	if err := c.graph.PostForm(ctx, adID, form, &resp); err != nil {
		return fmt.Errorf("failed to update ad %s: %w", adID, err)
	}
	if !resp.Success {
		return fmt.Errorf("ad update for %s was not acknowledged", adID)
	}
	return nil
}

// Delete deletes an ad.
func (c *Client) Delete(ctx context.Context, adID string) error {
	var resp meta.SuccessResponse
	if err := c.graph.Delete(ctx, adID, nil, &resp); err != nil {
		return fmt.Errorf("failed to delete ad %s: %w", adID, err)
	}
	if !resp.Success {
		return fmt.Errorf("ad delete for %s was not acknowledged", adID)
	}
	return nil
}

func (in Input) encode() url.Values {
	form := url.Values{}
	if in.Name != "" {
		form.Set("name", in.Name)
	}
	if in.AdsetID != "" {
		form.Set("adset_id", in.AdsetID)
	}
	if in.Status != "" {
		form.Set("status", in.Status)
	}
	if in.CreativeID != "" {
		// The API takes the creative as a JSON object reference.
		form.Set("creative", fmt.Sprintf(`{"creative_id":"%s"}`, in.CreativeID))
	}
	return form
}
