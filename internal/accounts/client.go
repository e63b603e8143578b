package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// defaultFields are requested for every ad account read.
const defaultFields = "id,account_id,name,account_status,currency,timezone_name,amount_spent,balance,spend_cap"

// Client wraps ad account operations of the Marketing API.
type Client struct {
	graph   *meta.Client
	account string
}

// NewClient creates an ad account client on top of a Graph API client.
func NewClient(graph *meta.Client, account string) *Client {
	return &Client{graph: graph, account: account}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// ListAdAccounts lists the ad accounts accessible to the authenticated user.
func (c *Client) ListAdAccounts(ctx context.Context) ([]AdAccount, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	envelope, err := c.graph.GetList(ctx, "me/adaccounts", params)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}

	var result []AdAccount
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode ad accounts: %w", err)
	}
	return result, nil
}

// GetAdAccount retrieves a single ad account by ID.
// Accepts both "act_123" and bare numeric IDs.
func (c *Client) GetAdAccount(ctx context.Context, adAccountID string) (*AdAccount, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)

	var result AdAccount
	if err := c.graph.Get(ctx, NormalizeID(adAccountID), params, &result); err != nil {
		return nil, fmt.Errorf("failed to get ad account %s: %w", adAccountID, err)
	}
	return &result, nil
}

// NormalizeID ensures the ad account ID carries the "act_" prefix required
// by Graph API paths.
func NormalizeID(adAccountID string) string {
	if strings.HasPrefix(adAccountID, "act_") {
		return adAccountID
	}
	return "act_" + adAccountID
}
