package insights_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/insights"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/batch"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getInsightsClient retrieves the insights client for the specified account
func getInsightsClient(ctx context.Context, account string, sc *server.ServerContext) (*insights.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.InsightsClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create insights client for account %s: %w", account, err)
	}
	return client, nil
}

// insightsOptionsFromArgs builds insights query options from tool arguments
func insightsOptionsFromArgs(args map[string]interface{}) (insights.Options, error) {
	opts := insights.Options{}

	if level, ok := args["level"].(string); ok && level != "" {
		switch insights.Level(level) {
		case insights.LevelAccount, insights.LevelCampaign, insights.LevelAdSet, insights.LevelAd:
			opts.Level = insights.Level(level)
		default:
			return opts, fmt.Errorf("level must be one of: account, campaign, adset, ad")
		}
	}

	if _, ok := args["fields"]; ok {
		fields, err := batch.ParseStringOrArray(args["fields"], "fields")
		if err != nil {
			return opts, err
		}
		opts.Fields = fields
	}

	if _, ok := args["breakdowns"]; ok {
		breakdowns, err := batch.ParseStringOrArray(args["breakdowns"], "breakdowns")
		if err != nil {
			return opts, err
		}
		opts.Breakdowns = breakdowns
	}

	if datePreset, ok := args["datePreset"].(string); ok {
		opts.DatePreset = datePreset
	}

	since, _ := args["since"].(string)
	until, _ := args["until"].(string)
	if since != "" || until != "" {
		if since == "" || until == "" {
			return opts, fmt.Errorf("since and until must be provided together")
		}
		if opts.DatePreset != "" {
			return opts, fmt.Errorf("datePreset cannot be combined with since/until")
		}
		opts.TimeRange = &insights.TimeRange{Since: since, Until: until}
	}

	if timeIncrement, ok := args["timeIncrement"].(string); ok {
		opts.TimeIncrement = timeIncrement
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		opts.Limit = int(limit)
	}
	if after, ok := args["after"].(string); ok {
		opts.After = after
	}

	return opts, nil
}

// RegisterInsightsTools registers all insights tools with the MCP server
func RegisterInsightsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getInsightsTool := mcp.NewTool("meta_get_insights",
		mcp.WithDescription("Get performance insights for an ad account, campaign, ad set or ad: impressions, clicks, spend, CTR and more"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("objectId",
			mcp.Required(),
			mcp.Description("The ID of the object to report on: an ad account (with 'act_' prefix), campaign, ad set or ad"),
		),
		mcp.WithString("level",
			mcp.Description("Aggregation level: account, campaign, adset or ad"),
		),
		mcp.WithString("fields",
			mcp.Description("Metric fields to return (string or array), e.g. impressions, clicks, spend, ctr, cpc"),
		),
		mcp.WithString("datePreset",
			mcp.Description("Relative reporting window, e.g. today, yesterday, last_7d, last_30d, this_month"),
		),
		mcp.WithString("since",
			mcp.Description("Start of an explicit reporting window (YYYY-MM-DD, requires 'until')"),
		),
		mcp.WithString("until",
			mcp.Description("End of an explicit reporting window (YYYY-MM-DD, requires 'since')"),
		),
		mcp.WithString("breakdowns",
			mcp.Description("Result breakdowns (string or array), e.g. age, gender, country, publisher_platform"),
		),
		mcp.WithString("timeIncrement",
			mcp.Description("Row granularity: '1' for daily, '7' for weekly, 'monthly'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of rows to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)

	s.AddTool(getInsightsTool, common.InstrumentedToolHandlerWithService("meta_get_insights", "insights", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		objectID, ok := args["objectId"].(string)
		if !ok || objectID == "" {
			return mcp.NewToolResultError("objectId is required"), nil
		}

		opts, err := insightsOptionsFromArgs(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		client, err := getInsightsClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := client.Get(ctx, objectID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get insights: %v", err)), nil
		}

		result, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	return nil
}
