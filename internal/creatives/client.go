package creatives

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

const defaultFields = "id,name,title,body,object_story_spec,thumbnail_url,status"

// Client wraps ad creative operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates a creative client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// List lists creatives of an ad account. Returns the next pagination
// cursor, if any.
func (c *Client) List(ctx context.Context, adAccountID string, opts ListOptions) ([]AdCreative, string, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}

	path := accounts.NormalizeID(adAccountID) + "/adcreatives"
	envelope, err := c.graph.GetList(ctx, path, params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list creatives: %w", err)
	}

	var result []AdCreative
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, "", fmt.Errorf("failed to decode creatives: %w", err)
	}

	var next string
	if envelope.Paging != nil {
		next = envelope.Paging.Cursors.After
	}
	return result, next, nil
}

// Get retrieves a single creative by ID.
func (c *Client) Get(ctx context.Context, creativeID string) (*AdCreative, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result AdCreative
	if err := c.graph.Get(ctx, creativeID, params, &result); err != nil {
		return nil, fmt.Errorf("failed to get creative %s: %w", creativeID, err)
	}
	return &result, nil
}

// CreateLink creates a link ad creative and returns its ID.
func (c *Client) CreateLink(ctx context.Context, adAccountID string, input LinkInput) (string, error) {
	if input.Name == "" {
		return "", fmt.Errorf("creative name is required")
	}
	if input.PageID == "" {
		return "", fmt.Errorf("page_id is required")
	}
	if input.Link == "" {
		return "", fmt.Errorf("link is required")
	}

	spec := objectStorySpec{
		PageID: input.PageID,
		LinkData: linkData{
			Link:        input.Link,
			Message:     input.Message,
			Name:        input.Headline,
			Description: input.Description,
			Picture:     input.ImageURL,
		},
	}
	if input.CallToAction != "" {
		spec.LinkData.CallToAction = &callToAction{
			Type:  input.CallToAction,
			Value: callToActionValue{Link: input.Link},
		}
	}

	encoded, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to encode object_story_spec: %w", err)
	}

	form := url.Values{}
	form.Set("name", input.Name)
	form.Set("object_story_spec", string(encoded))

	path := accounts.NormalizeID(adAccountID) + "/adcreatives"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create creative: %w", err)
	}
	return resp.ID, nil
}

// CreateRaw creates a creative from a caller-provided object_story_spec.
// This is the escape hatch for formats CreateLink does not cover
// (carousels, video creatives, existing posts).
func (c *Client) CreateRaw(ctx context.Context, adAccountID, name, objectStorySpecJSON string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("creative name is required")
	}
	if !json.Valid([]byte(objectStorySpecJSON)) {
		return "", fmt.Errorf("object_story_spec is not valid JSON")
	}

	form := url.Values{}
	form.Set("name", name)
	form.Set("object_story_spec", objectStorySpecJSON)

	path := accounts.NormalizeID(adAccountID) + "/adcreatives"
	var resp meta.CreateResponse
	if err := c.graph.PostForm(ctx, path, form, &resp); err != nil {
		return "", fmt.Errorf("failed to create creative: %w", err)
	}
	return resp.ID, nil
}

// Delete deletes a creative.
func (c *Client) Delete(ctx context.Context, creativeID string) error {
	var resp meta.SuccessResponse
	if err := c.graph.Delete(ctx, creativeID, nil, &resp); err != nil {
		return fmt.Errorf("failed to delete creative %s: %w", creativeID, err)
	}
	if !resp.Success {
		return fmt.Errorf("creative delete for %s was not acknowledged", creativeID)
	}
	return nil
}
