package adset_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/adsets"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getAdSetsClient retrieves the ad set client for the specified account
func getAdSetsClient(ctx context.Context, account string, sc *server.ServerContext) (*adsets.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.AdSetsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create ad sets client for account %s: %w", account, err)
	}
	return client, nil
}

// adSetInputFromArgs builds an ad set Input from optional arguments
func adSetInputFromArgs(args map[string]interface{}) (adsets.Input, error) {
	input := adsets.Input{}

	if name, ok := args["name"].(string); ok {
		input.Name = name
	}
	if campaignID, ok := args["campaignId"].(string); ok {
		input.CampaignID = campaignID
	}
	if status, ok := args["status"].(string); ok {
		input.Status = status
	}
	if dailyBudget, ok := args["dailyBudget"].(string); ok {
		input.DailyBudget = dailyBudget
	}
	if lifetimeBudget, ok := args["lifetimeBudget"].(string); ok {
		input.LifetimeBudget = lifetimeBudget
	}
	if bidAmount, ok := args["bidAmount"].(float64); ok {
		input.BidAmount = int64(bidAmount)
	}
	if billingEvent, ok := args["billingEvent"].(string); ok {
		input.BillingEvent = billingEvent
	}
	if optimizationGoal, ok := args["optimizationGoal"].(string); ok {
		input.OptimizationGoal = optimizationGoal
	}
	if startTime, ok := args["startTime"].(string); ok {
		input.StartTime = startTime
	}
	if endTime, ok := args["endTime"].(string); ok {
		input.EndTime = endTime
	}

	if targeting, ok := args["targeting"].(string); ok && targeting != "" {
		if !json.Valid([]byte(targeting)) {
			return input, fmt.Errorf("targeting must be a valid JSON targeting spec")
		}
		input.Targeting = targeting
	}

	return input, nil
}

// RegisterAdSetTools registers all ad set tools with the MCP server
func RegisterAdSetTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List ad sets tool
	listAdSetsTool := mcp.NewTool("meta_list_adsets",
		mcp.WithDescription("List ad sets in an ad account, optionally restricted to one campaign"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
		mcp.WithString("campaignId",
			mcp.Description("Restrict to ad sets belonging to this campaign"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of ad sets to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)

	s.AddTool(listAdSetsTool, common.InstrumentedToolHandlerWithService("meta_list_adsets", "adsets", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		opts := adsets.ListOptions{}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			opts.Limit = int(limit)
		}
		if after, ok := args["after"].(string); ok {
			opts.After = after
		}
		if campaignID, ok := args["campaignId"].(string); ok {
			opts.CampaignID = campaignID
		}

		client, err := getAdSetsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, next, err := client.List(ctx, adAccountID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list ad sets: %v", err)), nil
		}

		result, _ := json.MarshalIndent(map[string]interface{}{
			"adsets": list,
			"next":   next,
		}, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get ad set tool
	getAdSetTool := mcp.NewTool("meta_get_adset",
		mcp.WithDescription("Get details of a specific ad set, including its targeting spec"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adSetId",
			mcp.Required(),
			mcp.Description("The ID of the ad set to retrieve"),
		),
	)

	s.AddTool(getAdSetTool, common.InstrumentedToolHandlerWithService("meta_get_adset", "adsets", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adSetID, ok := args["adSetId"].(string)
		if !ok || adSetID == "" {
			return mcp.NewToolResultError("adSetId is required"), nil
		}

		client, err := getAdSetsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		adSet, err := client.Get(ctx, adSetID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get ad set: %v", err)), nil
		}

		result, _ := json.MarshalIndent(adSet, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Register create/update/delete tools only if not in read-only mode
	if !readOnly {
		// Create ad set tool
		createAdSetTool := mcp.NewTool("meta_create_adset",
			mcp.WithDescription("Create a new ad set in a campaign. New ad sets default to PAUSED."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("campaignId",
				mcp.Required(),
				mcp.Description("The campaign this ad set belongs to"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Ad set name"),
			),
			mcp.WithString("optimizationGoal",
				mcp.Required(),
				mcp.Description("Optimization goal, e.g. LINK_CLICKS, REACH, OFFSITE_CONVERSIONS"),
			),
			mcp.WithString("billingEvent",
				mcp.Required(),
				mcp.Description("Billing event, e.g. IMPRESSIONS, LINK_CLICKS"),
			),
			mcp.WithString("targeting",
				mcp.Required(),
				mcp.Description("JSON targeting spec, e.g. {\"geo_locations\":{\"countries\":[\"US\"]}}"),
			),
			mcp.WithString("status",
				mcp.Description("Initial status: ACTIVE or PAUSED (default: PAUSED)"),
			),
			mcp.WithString("dailyBudget",
				mcp.Description("Daily budget in minor currency units"),
			),
			mcp.WithString("lifetimeBudget",
				mcp.Description("Lifetime budget in minor currency units"),
			),
			mcp.WithNumber("bidAmount",
				mcp.Description("Bid amount in minor currency units"),
			),
			mcp.WithString("startTime",
				mcp.Description("Start time (ISO 8601)"),
			),
			mcp.WithString("endTime",
				mcp.Description("End time (ISO 8601), required with a lifetime budget"),
			),
		)

		s.AddTool(createAdSetTool, common.InstrumentedToolHandlerWithService("meta_create_adset", "adsets", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adAccountID, ok := args["adAccountId"].(string)
			if !ok || adAccountID == "" {
				return mcp.NewToolResultError("adAccountId is required"), nil
			}

			input, err := adSetInputFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if input.Name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}
			if input.CampaignID == "" {
				return mcp.NewToolResultError("campaignId is required"), nil
			}
			if input.OptimizationGoal == "" {
				return mcp.NewToolResultError("optimizationGoal is required"), nil
			}
			if input.BillingEvent == "" {
				return mcp.NewToolResultError("billingEvent is required"), nil
			}
			if input.Targeting == "" {
				return mcp.NewToolResultError("targeting is required"), nil
			}
			if input.Status == "" {
				input.Status = "PAUSED"
			}

			client, err := getAdSetsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			adSetID, err := client.Create(ctx, adAccountID, input)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create ad set: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Ad set '%s' created with ID: %s", input.Name, adSetID)), nil
		}))

		// Update ad set tool
		updateAdSetTool := mcp.NewTool("meta_update_adset",
			mcp.WithDescription("Update an existing ad set. Only provided fields are changed."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adSetId",
				mcp.Required(),
				mcp.Description("The ID of the ad set to update"),
			),
			mcp.WithString("name",
				mcp.Description("New ad set name"),
			),
			mcp.WithString("status",
				mcp.Description("New status: ACTIVE or PAUSED"),
			),
			mcp.WithString("dailyBudget",
				mcp.Description("New daily budget in minor currency units"),
			),
			mcp.WithString("lifetimeBudget",
				mcp.Description("New lifetime budget in minor currency units"),
			),
			mcp.WithNumber("bidAmount",
				mcp.Description("New bid amount in minor currency units"),
			),
			mcp.WithString("billingEvent",
				mcp.Description("New billing event"),
			),
			mcp.WithString("optimizationGoal",
				mcp.Description("New optimization goal"),
			),
			mcp.WithString("targeting",
				mcp.Description("New JSON targeting spec (replaces the existing spec)"),
			),
			mcp.WithString("startTime",
				mcp.Description("New start time (ISO 8601)"),
			),
			mcp.WithString("endTime",
				mcp.Description("New end time (ISO 8601)"),
			),
		)

		s.AddTool(updateAdSetTool, common.InstrumentedToolHandlerWithService("meta_update_adset", "adsets", "update", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adSetID, ok := args["adSetId"].(string)
			if !ok || adSetID == "" {
				return mcp.NewToolResultError("adSetId is required"), nil
			}

			input, err := adSetInputFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getAdSetsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Update(ctx, adSetID, input); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to update ad set: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Ad set %s updated successfully", adSetID)), nil
		}))

		// Delete ad set tool
		deleteAdSetTool := mcp.NewTool("meta_delete_adset",
			mcp.WithDescription("Delete an ad set. Deleted ad sets cannot be restored."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adSetId",
				mcp.Required(),
				mcp.Description("The ID of the ad set to delete"),
			),
		)

		s.AddTool(deleteAdSetTool, common.InstrumentedToolHandlerWithService("meta_delete_adset", "adsets", "delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adSetID, ok := args["adSetId"].(string)
			if !ok || adSetID == "" {
				return mcp.NewToolResultError("adSetId is required"), nil
			}

			client, err := getAdSetsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Delete(ctx, adSetID); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to delete ad set: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Ad set %s deleted successfully", adSetID)), nil
		}))
	}

	return nil
}
