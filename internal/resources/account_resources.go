package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// RegisterAccountResources registers account-related resources with the MCP server
func RegisterAccountResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Authorized accounts resource
	accountsResource := mcp.NewResource(
		"meta://accounts",
		"Authorized Meta Accounts",
		mcp.WithResourceDescription("Meta accounts with saved access tokens on this server"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccounts(ctx, request, sc)
	})

	// Ad accounts resource for the current account
	adAccountsResource := mcp.NewResource(
		"meta://adaccounts",
		"Accessible Ad Accounts",
		mcp.WithResourceDescription("Ad accounts the current Meta account can manage"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(adAccountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAdAccounts(ctx, request, sc)
	})

	return nil
}

// handleAccounts lists the accounts with stored tokens
func handleAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	names, err := meta.ListAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		accounts = append(accounts, map[string]interface{}{
			"account":    name,
			"authorized": sc.HasAccount(name),
		})
	}

	jsonData, err := json.MarshalIndent(map[string]interface{}{
		"accounts": accounts,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleAdAccounts lists the ad accounts reachable with the current token
func handleAdAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := common.GetAccountFromArgs(ctx, nil)

	client, err := sc.AccountsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no Meta client available for account %s: %w", account, err)
	}

	adAccounts, err := client.ListAdAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}

	jsonData, err := json.MarshalIndent(map[string]interface{}{
		"account":    account,
		"adAccounts": adAccounts,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ad account data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
