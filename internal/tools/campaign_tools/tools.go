package campaign_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/campaigns"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/batch"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getCampaignsClient retrieves the campaign client for the specified account
func getCampaignsClient(ctx context.Context, account string, sc *server.ServerContext) (*campaigns.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.CampaignsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaigns client for account %s: %w", account, err)
	}
	return client, nil
}

// getLimitFromArgs extracts a numeric limit argument, defaulting to 0 (API default)
func getLimitFromArgs(args map[string]interface{}) int {
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		return int(limit)
	}
	return 0
}

// getOptionalStringList parses an optional argument that may be a string or an array of strings
func getOptionalStringList(args map[string]interface{}, key string) ([]string, error) {
	if _, ok := args[key]; !ok {
		return nil, nil
	}
	return batch.ParseStringOrArray(args[key], key)
}

// campaignInputFromArgs builds a campaign Input from optional arguments
func campaignInputFromArgs(args map[string]interface{}) (campaigns.Input, error) {
	input := campaigns.Input{}

	if name, ok := args["name"].(string); ok {
		input.Name = name
	}
	if objective, ok := args["objective"].(string); ok {
		input.Objective = objective
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
	if spendCap, ok := args["spendCap"].(string); ok {
		input.SpendCap = spendCap
	}
	if startTime, ok := args["startTime"].(string); ok {
		input.StartTime = startTime
	}
	if stopTime, ok := args["stopTime"].(string); ok {
		input.StopTime = stopTime
	}

	categories, err := getOptionalStringList(args, "specialAdCategories")
	if err != nil {
		return input, err
	}
	input.SpecialAdCategories = categories

	return input, nil
}

// RegisterCampaignTools registers all campaign tools with the MCP server
func RegisterCampaignTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List campaigns tool
	listCampaignsTool := mcp.NewTool("meta_list_campaigns",
		mcp.WithDescription("List campaigns in an ad account with optional status filters and cursor pagination"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of campaigns to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
		mcp.WithString("effectiveStatus",
			mcp.Description("Effective status filter (string or array), e.g. ACTIVE, PAUSED"),
		),
	)

	s.AddTool(listCampaignsTool, common.InstrumentedToolHandlerWithService("meta_list_campaigns", "campaigns", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		opts := campaigns.ListOptions{Limit: getLimitFromArgs(args)}
		if after, ok := args["after"].(string); ok {
			opts.After = after
		}

		statuses, err := getOptionalStringList(args, "effectiveStatus")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		opts.EffectiveStatus = statuses

		client, err := getCampaignsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, next, err := client.List(ctx, adAccountID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list campaigns: %v", err)), nil
		}

		result, _ := json.MarshalIndent(map[string]interface{}{
			"campaigns": list,
			"next":      next,
		}, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get campaigns tool
	getCampaignsTool := mcp.NewTool("meta_get_campaigns",
		mcp.WithDescription("Get details of one or more campaigns"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("campaignIds",
			mcp.Required(),
			mcp.Description("Campaign ID (string) or array of campaign IDs to retrieve"),
		),
	)

	s.AddTool(getCampaignsTool, common.InstrumentedToolHandlerWithService("meta_get_campaigns", "campaigns", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		campaignIDs, err := batch.ParseStringOrArray(args["campaignIds"], "campaignIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		client, err := getCampaignsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results := batch.ProcessBatch(campaignIDs, func(campaignID string) (string, error) {
			campaign, err := client.Get(ctx, campaignID)
			if err != nil {
				return "", err
			}
			jsonBytes, _ := json.Marshal(campaign)
			return string(jsonBytes), nil
		})

		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}))

	// Register create/update/delete tools only if not in read-only mode
	if !readOnly {
		// Create campaign tool
		createCampaignTool := mcp.NewTool("meta_create_campaign",
			mcp.WithDescription("Create a new campaign in an ad account. New campaigns default to PAUSED."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Campaign name"),
			),
			mcp.WithString("objective",
				mcp.Required(),
				mcp.Description("Campaign objective, e.g. OUTCOME_TRAFFIC, OUTCOME_SALES, OUTCOME_AWARENESS"),
			),
			mcp.WithString("status",
				mcp.Description("Initial status: ACTIVE or PAUSED (default: PAUSED)"),
			),
			mcp.WithString("specialAdCategories",
				mcp.Description("Special ad category (string or array), e.g. HOUSING, CREDIT, EMPLOYMENT"),
			),
			mcp.WithString("dailyBudget",
				mcp.Description("Daily budget in minor currency units, e.g. '5000' for $50.00"),
			),
			mcp.WithString("lifetimeBudget",
				mcp.Description("Lifetime budget in minor currency units"),
			),
			mcp.WithString("spendCap",
				mcp.Description("Spend cap in minor currency units"),
			),
			mcp.WithString("startTime",
				mcp.Description("Start time (ISO 8601)"),
			),
			mcp.WithString("stopTime",
				mcp.Description("Stop time (ISO 8601)"),
			),
		)

		s.AddTool(createCampaignTool, common.InstrumentedToolHandlerWithService("meta_create_campaign", "campaigns", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			adAccountID, ok := args["adAccountId"].(string)
			if !ok || adAccountID == "" {
				return mcp.NewToolResultError("adAccountId is required"), nil
			}

			input, err := campaignInputFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if input.Name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}
			if input.Objective == "" {
				return mcp.NewToolResultError("objective is required"), nil
			}
			if input.Status == "" {
				input.Status = campaigns.StatusPaused
			}

			client, err := getCampaignsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			campaignID, err := client.Create(ctx, adAccountID, input)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create campaign: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Campaign '%s' created with ID: %s", input.Name, campaignID)), nil
		}))

		// Update campaign tool
		updateCampaignTool := mcp.NewTool("meta_update_campaign",
			mcp.WithDescription("Update an existing campaign. Only provided fields are changed."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("campaignId",
				mcp.Required(),
				mcp.Description("The ID of the campaign to update"),
			),
			mcp.WithString("name",
				mcp.Description("New campaign name"),
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
			mcp.WithString("spendCap",
				mcp.Description("New spend cap in minor currency units"),
			),
			mcp.WithString("startTime",
				mcp.Description("New start time (ISO 8601)"),
			),
			mcp.WithString("stopTime",
				mcp.Description("New stop time (ISO 8601)"),
			),
		)

		s.AddTool(updateCampaignTool, common.InstrumentedToolHandlerWithService("meta_update_campaign", "campaigns", "update", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			campaignID, ok := args["campaignId"].(string)
			if !ok || campaignID == "" {
				return mcp.NewToolResultError("campaignId is required"), nil
			}

			input, err := campaignInputFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getCampaignsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Update(ctx, campaignID, input); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to update campaign: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Campaign %s updated successfully", campaignID)), nil
		}))

		// Update campaign status tool
		updateCampaignStatusTool := mcp.NewTool("meta_update_campaign_status",
			mcp.WithDescription("Set the status of one or more campaigns, e.g. pause or resume them"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("campaignIds",
				mcp.Required(),
				mcp.Description("Campaign ID (string) or array of campaign IDs"),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New status: ACTIVE, PAUSED or ARCHIVED"),
			),
		)

		s.AddTool(updateCampaignStatusTool, common.InstrumentedToolHandlerWithService("meta_update_campaign_status", "campaigns", "update_status", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			status, ok := args["status"].(string)
			if !ok || status == "" {
				return mcp.NewToolResultError("status is required"), nil
			}

			campaignIDs, err := batch.ParseStringOrArray(args["campaignIds"], "campaignIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getCampaignsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(campaignIDs, func(campaignID string) (string, error) {
				if err := client.Update(ctx, campaignID, campaigns.Input{Status: status}); err != nil {
					return "", err
				}
				return fmt.Sprintf("Campaign %s set to %s", campaignID, status), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))

		// Delete campaigns tool
		deleteCampaignsTool := mcp.NewTool("meta_delete_campaigns",
			mcp.WithDescription("Delete one or more campaigns. Deleted campaigns cannot be restored."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("campaignIds",
				mcp.Required(),
				mcp.Description("Campaign ID (string) or array of campaign IDs to delete"),
			),
		)

		s.AddTool(deleteCampaignsTool, common.InstrumentedToolHandlerWithService("meta_delete_campaigns", "campaigns", "delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			campaignIDs, err := batch.ParseStringOrArray(args["campaignIds"], "campaignIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			client, err := getCampaignsClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(campaignIDs, func(campaignID string) (string, error) {
				if err := client.Delete(ctx, campaignID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Campaign %s deleted successfully", campaignID), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))
	}

	return nil
}
