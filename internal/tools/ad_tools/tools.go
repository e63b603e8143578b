package ad_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/ads"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/batch"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getAdsClient retrieves the ad client for the specified account
func getAdsClient(ctx context.Context, account string, sc *server.ServerContext) (*ads.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.AdsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create ads client for account %s: %w", account, err)
	}
	return client, nil
}

// RegisterAdTools registers all ad tools with the MCP server
func RegisterAdTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List ads tool
	listAdsTool := mcp.NewTool("meta_list_ads",
		mcp.WithDescription("List ads in an ad account, optionally restricted to one ad set"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
		mcp.WithString("adSetId",
			mcp.Description("Restrict to ads belonging to this ad set"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of ads to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)

	s.AddTool(listAdsTool, common.InstrumentedToolHandlerWithService("meta_list_ads", "ads", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		opts := ads.ListOptions{}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			opts.Limit = int(limit)
		}
		if after, ok := args["after"].(string); ok {
			opts.After = after
		}
		if adSetID, ok := args["adSetId"].(string); ok {
			opts.AdsetID = adSetID
		}

		client, err := getAdsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, next, err := client.List(ctx, adAccountID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list ads: %v", err)), nil
		}

		result, _ := json.MarshalIndent(map[string]interface{}{
			"ads":  list,
			"next": next,
		}, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get ads tool
	getAdsTool := mcp.NewTool("meta_get_ads",
		mcp.WithDescription("Get details of one or more ads"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adIds",
			mcp.Required(),
			mcp.Description("Ad ID (string) or array of ad IDs to retrieve"),
		),
	)

	s.AddTool(getAdsTool, common.InstrumentedToolHandlerWithService("meta_get_ads", "ads", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adIDs, err := batch.ParseStringOrArray(args["adIds"], "adIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		client, err := getAdsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results := batch.ProcessBatch(adIDs, func(adID string) (string, error) {
			ad, err := client.Get(ctx, adID)
			if err != nil {
				return "", err
			}
			jsonBytes, _ := json.Marshal(ad)
			return string(jsonBytes), nil
		})

		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}))

	// Register create/update/delete tools only if not in read-only mode
	if !readOnly {
		// Create ad tool
		createAdTool := mcp.NewTool("meta_create_ad",
			mcp.WithDescription("Create a new ad in an ad set, linking it to an existing creative. New ads default to PAUSED."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("adSetId",
				mcp.Required(),
				mcp.Description("The ad set this ad belongs to"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Ad name"),
			),
			mcp.WithString("creativeId",
				mcp.Required(),
				mcp.Description("The ID of an existing ad creative"),
			),
			mcp.WithString("status",
				mcp.Description("Initial status: ACTIVE or PAUSED (default: PAUSED)"),
			),
		)

		s.AddTool(createAdTool, common.InstrumentedToolHandlerWithService("meta_create_ad", "ads", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adAccountID, ok := args["adAccountId"].(string)
			if !ok || adAccountID == "" {
				return mcp.NewToolResultError("adAccountId is required"), nil
			}

			input := ads.Input{Status: "PAUSED"}
			if name, ok := args["name"].(string); ok {
				input.Name = name
			}
			if adSetID, ok := args["adSetId"].(string); ok {
				input.AdsetID = adSetID
			}
			if creativeID, ok := args["creativeId"].(string); ok {
				input.CreativeID = creativeID
			}
			if status, ok := args["status"].(string); ok && status != "" {
				input.Status = status
			}

			if input.Name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}
			if input.AdsetID == "" {
				return mcp.NewToolResultError("adSetId is required"), nil
			}
			if input.CreativeID == "" {
				return mcp.NewToolResultError("creativeId is required"), nil
			}

			client, err := getAdsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			adID, err := client.Create(ctx, adAccountID, input)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create ad: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Ad '%s' created with ID: %s", input.Name, adID)), nil
		}))

		// Update ad tool
		updateAdTool := mcp.NewTool("meta_update_ad",
			mcp.WithDescription("Update an existing ad. Only provided fields are changed."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adId",
				mcp.Required(),
				mcp.Description("The ID of the ad to update"),
			),
			mcp.WithString("name",
				mcp.Description("New ad name"),
			),
			mcp.WithString("status",
				mcp.Description("New status: ACTIVE or PAUSED"),
			),
			mcp.WithString("creativeId",
				mcp.Description("Swap the ad to a different creative"),
			),
		)

		s.AddTool(updateAdTool, common.InstrumentedToolHandlerWithService("meta_update_ad", "ads", "update", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adID, ok := args["adId"].(string)
			if !ok || adID == "" {
				return mcp.NewToolResultError("adId is required"), nil
			}

			input := ads.Input{}
			if name, ok := args["name"].(string); ok {
				input.Name = name
			}
			if status, ok := args["status"].(string); ok {
				input.Status = status
			}
			if creativeID, ok := args["creativeId"].(string); ok {
				input.CreativeID = creativeID
			}

			client, err := getAdsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Update(ctx, adID, input); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to update ad: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Ad %s updated successfully", adID)), nil
		}))

		// Update ad status tool
		updateAdStatusTool := mcp.NewTool("meta_update_ad_status",
			mcp.WithDescription("Set the status of one or more ads, e.g. pause or resume them"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adIds",
				mcp.Required(),
				mcp.Description("Ad ID (string) or array of ad IDs"),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New status: ACTIVE, PAUSED or ARCHIVED"),
			),
		)

		s.AddTool(updateAdStatusTool, common.InstrumentedToolHandlerWithService("meta_update_ad_status", "ads", "update_status", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			status, ok := args["status"].(string)
			if !ok || status == "" {
				return mcp.NewToolResultError("status is required"), nil
			}

			adIDs, err := batch.ParseStringOrArray(args["adIds"], "adIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getAdsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(adIDs, func(adID string) (string, error) {
				if err := client.Update(ctx, adID, ads.Input{Status: status}); err != nil {
					return "", err
				}
				return fmt.Sprintf("Ad %s set to %s", adID, status), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))

		// Delete ads tool
		deleteAdsTool := mcp.NewTool("meta_delete_ads",
			mcp.WithDescription("Delete one or more ads. Deleted ads cannot be restored."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adIds",
				mcp.Required(),
				mcp.Description("Ad ID (string) or array of ad IDs to delete"),
			),
		)

		s.AddTool(deleteAdsTool, common.InstrumentedToolHandlerWithService("meta_delete_ads", "ads", "delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adIDs, err := batch.ParseStringOrArray(args["adIds"], "adIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getAdsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(adIDs, func(adID string) (string, error) {
				if err := client.Delete(ctx, adID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Ad %s deleted successfully", adID), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))
	}

	return nil
}
