package audiences

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

const defaultFields = "id,name,description,subtype,approximate_count_lower_bound,delivery_status,operation_status,time_updated,customer_file_source"

// maxBatchSize is the Graph API limit for one users request.
const maxBatchSize = 10000

// Client wraps custom audience operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates an audience client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// List lists custom audiences of an ad account. Returns the next
// pagination cursor, if any.
func (c *Client) List(ctx context.Context, adAccountID string, opts ListOptions) ([]CustomAudience, string, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}

	path := accounts.NormalizeID(adAccountID) + "/customaudiences"
	envelope, err := c.graph.GetList(ctx, path, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list audiences: %w", err)
	}

	var result []CustomAudience
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, "", fmt.Errorf("failed to decode audiences: %w", err)
	}

	var next string
	if envelope.Paging != nil {
		next = envelope.Paging.Cursors.After
	}
	return result, next, nil
}

// Get retrieves a single custom audience by ID.
func (c *Client) Get(ctx context.Context, audienceID string) (*CustomAudience, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result CustomAudience
	if err := c.graph.Get(ctx, audienceID, params, &result); err != nil {
		return nil, fmt.Errorf("failed to get audience %s: %w", audienceID, err)
	}
	return &result, nil
}

// Create creates a new customer list audience and returns its ID.
func (c *Client) Create(ctx context.Context, adAccountID string, input Input) (string, error) {
	if input.Name == "" {
		return "", fmt.Errorf("audience name is required")
	}

	form := url.Values{}
	form.Set("name", input.Name)
	if input.Description != "" {
		form.Set("description", input.Description)
	}
	subtype := input.Subtype
	if subtype == "" {
		subtype = "CUSTOM"
	}
	form.Set("subtype", subtype)
	if subtype == "CUSTOM" {
		source := input.CustomerFileSource
		if source == "" {
			source = "USER_PROVIDED_ONLY"
		}
		form.Set("customer_file_source", source)
	}

	path := accounts.NormalizeID(adAccountID) + "/customaudiences"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create audience: %w", err)
	}
	return resp.ID, nil
}

// Update modifies the name or description of an audience.
func (c *Client) Update(ctx context.Context, audienceID string, input Input) error {
	form := url.Values{}
	if input.Name != "" {
		form.Set("name", input.Name)
	}
	if input.Description != "" {
		form.Set("description", input.Description)
	}
	if len(form) == 0 {
		return fmt.Errorf("no fields to update")
	}

	var resp meta.SuccessResponse
	if err := c.graph.PostForm(ctx, audienceID, form, &resp); err != nil {
		return fmt.Errorf("failed to update audience %s: %w", audienceID, err)
	}
	if !resp.Success {
		return fmt.Errorf("audience update for %s was not acknowledged", audienceID)
	}
	return nil
}

// Delete deletes a custom audience.
func (c *Client) Delete(ctx context.Context, audienceID string) error {
	var resp meta.SuccessResponse
	if err := c.graph.Delete(ctx, audienceID, nil, &resp); err != nil {
		return fmt.Errorf("failed to delete audience %s: %w", audienceID, err)
	}
	if !resp.Success {
		return fmt.Errorf("audience delete for %s was not acknowledged", audienceID)
	}
	return nil
}

// AddUsers normalizes, hashes and uploads identifiers to an audience.
// Invalid identifiers are skipped and reported in the result.
func (c *Client) AddUsers(ctx context.Context, audienceID string, schema Schema, ids []string) (*UsersResult, error) {
	form, invalid, err := usersForm(schema, ids)
	if err != nil {
		return nil, err
	}

	var resp UsersResult
	if err := c.graph.PostForm(ctx, audienceID+"/users", form, &resp); err != nil {
		return nil, fmt.Errorf("failed to add users to audience %s: %w", audienceID, err)
	}
	resp.NumInvalidEntries += invalid
	return &resp, nil
}

// RemoveUsers normalizes, hashes and removes identifiers from an audience.
func (c *Client) RemoveUsers(ctx context.Context, audienceID string, schema Schema, ids []string) (*UsersResult, error) {
	form, invalid, err := usersForm(schema, ids)
	if err != nil {
		return nil, err
	}

	var resp UsersResult
	if err := c.graph.Delete(ctx, audienceID+"/users", form, &resp); err != nil {
		return nil, fmt.Errorf("failed to remove users from audience %s: %w", audienceID, err)
	}
	resp.NumInvalidEntries += invalid
	return &resp, nil
}

func usersForm(schema Schema, ids []string) (url.Values, int, error) {
	if len(ids) == 0 {
		return nil, 0, fmt.Errorf("no identifiers provided")
	}
	if len(ids) > maxBatchSize {
		return nil, 0, fmt.Errorf("too many identifiers: %d exceeds the batch limit of %d", len(ids), maxBatchSize)
	}

	hashed, invalid, err := normalizeAndHash(schema, ids)
	if err != nil {
		return nil, invalid, err
	}

	encoded, err := json.Marshal(payload{Schema: string(schema), Data: hashed})
	if err != nil {
		return nil, invalid, fmt.Errorf("failed to encode payload: %w", err)
	}

	form := url.Values{}
	form.Set("payload", string(encoded))
	return form, invalid, nil
}
