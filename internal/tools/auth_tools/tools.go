package auth_tools

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

// RegisterAuthTools registers all Meta OAuth-related tools with the MCP server
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get OAuth URL tool
	getAuthURLTool := mcp.NewTool("meta_get_auth_url",
		mcp.WithDescription("Get the Facebook Login URL to authorize Meta Marketing API access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("meta_get_auth_url", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAuthURL(ctx, request, sc)
	}))

	// Save authorization code tool
	saveAuthCodeTool := mcp.NewTool("meta_save_auth_code",
		mcp.WithDescription("Exchange a Facebook Login authorization code for a long-lived Meta access token and save it for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from the Facebook Login redirect URL"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("meta_save_auth_code", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSaveAuthCode(ctx, request, sc)
	}))

	// List accounts tool
	listAccountsTool := mcp.NewTool("meta_list_accounts",
		mcp.WithDescription("List all Meta accounts with saved access tokens"),
	)

	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("meta_list_accounts", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListAccounts(ctx, request, sc)
	}))

	// Remove account tool (mutating, requires write access)
	if !readOnly {
		removeAccountTool := mcp.NewTool("meta_remove_account",
			mcp.WithDescription("Delete the saved access token for a Meta account"),
			mcp.WithString("account",
				mcp.Required(),
				mcp.Description("Account name whose token should be removed"),
			),
		)

		s.AddTool(removeAccountTool, common.InstrumentedToolHandler("meta_remove_account", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRemoveAccount(ctx, request, sc)
		}))
	}

	return nil
}

func handleGetAuthURL(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	authURL, err := meta.GetAuthURLForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build auth URL: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Meta Marketing API access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Meta account
3. Grant access to the requested ads permissions
4. Copy the authorization code from the redirect URL (the "code" query parameter)

5. Call the meta_save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	authCode, ok := args["authCode"].(string)
	if !ok || authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	err := meta.SaveTokenForAccount(ctx, account, authCode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	// Invalidate any clients built on a previous token for this account
	sc.DropAccount(account)

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. A long-lived Meta access token was saved. You can now use all Meta Ads tools with this account.", account)), nil
}

func handleListAccounts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	names, err := meta.ListAccounts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	type accountInfo struct {
		Account    string `json:"account"`
		Authorized bool   `json:"authorized"`
	}

	infos := make([]accountInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, accountInfo{
			Account:    name,
			Authorized: sc.HasAccount(name),
		})
	}

	if len(infos) == 0 {
		return mcp.NewToolResultText("No Meta accounts have saved tokens. Use meta_get_auth_url to authorize one."), nil
	}

	result, _ := json.MarshalIndent(infos, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleRemoveAccount(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	account, ok := args["account"].(string)
	if !ok || account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}

	if err := meta.DeleteTokenForAccount(account); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to remove account %s: %v", account, err)), nil
	}

	sc.DropAccount(account)

	return mcp.NewToolResultText(fmt.Sprintf("Token for account '%s' removed", account)), nil
}
