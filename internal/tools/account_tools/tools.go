package account_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/accounts"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getAccountsClient retrieves the ad account client for the specified account
func getAccountsClient(ctx context.Context, account string, sc *server.ServerContext) (*accounts.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.AccountsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create accounts client for account %s: %w", account, err)
	}
	return client, nil
}

// RegisterAccountTools registers all ad account tools with the MCP server
func RegisterAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List ad accounts tool
	listAdAccountsTool := mcp.NewTool("meta_list_ad_accounts",
		mcp.WithDescription("List all ad accounts the authorized Meta user can access, with status and currency"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
	)

	s.AddTool(listAdAccountsTool, common.InstrumentedToolHandlerWithService("meta_list_ad_accounts", "accounts", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		client, err := getAccountsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		adAccounts, err := client.ListAdAccounts(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list ad accounts: %v", err)), nil
		}

		result, _ := json.MarshalIndent(adAccounts, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get ad account tool
	getAdAccountTool := mcp.NewTool("meta_get_ad_account",
		mcp.WithDescription("Get details of a specific ad account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
	)

	s.AddTool(getAdAccountTool, common.InstrumentedToolHandlerWithService("meta_get_ad_account", "accounts", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		client, err := getAccountsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		adAccount, err := client.GetAdAccount(ctx, adAccountID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get ad account: %v", err)), nil
		}

		result, _ := json.MarshalIndent(adAccount, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	return nil
}
