package creative_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/creatives"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getCreativesClient retrieves the creative client for the specified account
func getCreativesClient(ctx context.Context, account string, sc *server.ServerContext) (*creatives.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.CreativesClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create creatives client for account %s: %w", account, err)
	}
	return client, nil
}

// RegisterCreativeTools registers all ad creative tools with the MCP server
func RegisterCreativeTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List creatives tool
	listCreativesTool := mcp.NewTool("meta_list_creatives",
		mcp.WithDescription("List ad creatives in an ad account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of creatives to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)

	s.AddTool(listCreativesTool, common.InstrumentedToolHandlerWithService("meta_list_creatives", "creatives", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		opts := creatives.ListOptions{}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			opts.Limit = int(limit)
		}
		if after, ok := args["after"].(string); ok {
			opts.After = after
		}

		client, err := getCreativesClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, next, err := client.List(ctx, adAccountID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list creatives: %v", err)), nil
		}

		result, _ := json.MarshalIndent(map[string]interface{}{
			"creatives": list,
			"next":      next,
		}, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get creative tool
	getCreativeTool := mcp.NewTool("meta_get_creative",
		mcp.WithDescription("Get details of a specific ad creative, including its object_story_spec"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("creativeId",
			mcp.Required(),
			mcp.Description("The ID of the creative to retrieve"),
		),
	)

	s.AddTool(getCreativeTool, common.InstrumentedToolHandlerWithService("meta_get_creative", "creatives", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		creativeID, ok := args["creativeId"].(string)
		if !ok || creativeID == "" {
			return mcp.NewToolResultError("creativeId is required"), nil
		}

		client, err := getCreativesClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		creative, err := client.Get(ctx, creativeID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get creative: %v", err)), nil
		}

		result, _ := json.MarshalIndent(creative, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Register create/delete tools only if not in read-only mode
	if !readOnly {
		// Create link creative tool
		createLinkCreativeTool := mcp.NewTool("meta_create_link_creative",
			mcp.WithDescription("Create a link ad creative from a Facebook Page post spec: destination URL, primary text, headline and call to action"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Creative name (not shown to users)"),
			),
			mcp.WithString("pageId",
				mcp.Required(),
				mcp.Description("The Facebook Page ID publishing the ad"),
			),
			mcp.WithString("link",
				mcp.Required(),
				mcp.Description("Destination URL"),
			),
			mcp.WithString("message",
				mcp.Description("Primary text shown above the link"),
			),
			mcp.WithString("headline",
				mcp.Description("Link headline"),
			),
			mcp.WithString("description",
				mcp.Description("Link description"),
			),
			mcp.WithString("imageUrl",
				mcp.Description("Picture URL for the link preview"),
			),
			mcp.WithString("callToAction",
				mcp.Description("Call to action type, e.g. LEARN_MORE, SHOP_NOW, SIGN_UP"),
			),
		)

		s.AddTool(createLinkCreativeTool, common.InstrumentedToolHandlerWithService("meta_create_link_creative", "creatives", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adAccountID, ok := args["adAccountId"].(string)
			if !ok || adAccountID == "" {
				return mcp.NewToolResultError("adAccountId is required"), nil
			}

			input := creatives.LinkInput{}
			if name, ok := args["name"].(string); ok {
				input.Name = name
			}
			if pageID, ok := args["pageId"].(string); ok {
				input.PageID = pageID
			}
			if link, ok := args["link"].(string); ok {
				input.Link = link
			}
			if message, ok := args["message"].(string); ok {
				input.Message = message
			}
			if headline, ok := args["headline"].(string); ok {
				input.Headline = headline
			}
			if description, ok := args["description"].(string); ok {
				input.Description = description
			}
			if imageURL, ok := args["imageUrl"].(string); ok {
				input.ImageURL = imageURL
			}
			if callToAction, ok := args["callToAction"].(string); ok {
				input.CallToAction = callToAction
			}

			if input.Name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}
			if input.PageID == "" {
				return mcp.NewToolResultError("pageId is required"), nil
			}
			if input.Link == "" {
				return mcp.NewToolResultError("link is required"), nil
			}

			client, err := getCreativesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			creativeID, err := client.CreateLink(ctx, adAccountID, input)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create creative: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Creative '%s' created with ID: %s", input.Name, creativeID)), nil
		}))

		// Create raw creative tool
		createCreativeTool := mcp.NewTool("meta_create_creative",
			mcp.WithDescription("Create an ad creative from a raw object_story_spec JSON document, for formats the link creative tool does not cover"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Creative name (not shown to users)"),
			),
			mcp.WithString("objectStorySpec",
				mcp.Required(),
				mcp.Description("The object_story_spec as a JSON document"),
			),
		)

		s.AddTool(createCreativeTool, common.InstrumentedToolHandlerWithService("meta_create_creative", "creatives", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adAccountID, ok := args["adAccountId"].(string)
			if !ok || adAccountID == "" {
				return mcp.NewToolResultError("adAccountId is required"), nil
			}

			name, ok := args["name"].(string)
			if !ok || name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}

			spec, ok := args["objectStorySpec"].(string)
			if !ok || spec == "" {
				return mcp.NewToolResultError("objectStorySpec is required"), nil
			}
			if !json.Valid([]byte(spec)) {
				return mcp.NewToolResultError("objectStorySpec must be a valid JSON document"), nil
			}

			client, err := getCreativesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			creativeID, err := client.CreateRaw(ctx, adAccountID, name, spec)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create creative: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Creative '%s' created with ID: %s", name, creativeID)), nil
		}))

		// Delete creative tool
		deleteCreativeTool := mcp.NewTool("meta_delete_creative",
			mcp.WithDescription("Delete an ad creative. Creatives referenced by active ads cannot be deleted."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("creativeId",
				mcp.Required(),
				mcp.Description("The ID of the creative to delete"),
			),
		)

		s.AddTool(deleteCreativeTool, common.InstrumentedToolHandlerWithService("meta_delete_creative", "creatives", "delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			creativeID, ok := args["creativeId"].(string)
			if !ok || creativeID == "" {
				return mcp.NewToolResultError("creativeId is required"), nil
			}

			client, err := getCreativesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Delete(ctx, creativeID); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to delete creative: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Creative %s deleted successfully", creativeID)), nil
		}))
	}

	return nil
}
