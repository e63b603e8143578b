package audience_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/adtoolkit/meta-ads-mcp/internal/audiences"
	"github.com/adtoolkit/meta-ads-mcp/internal/server"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/batch"
	"github.com/adtoolkit/meta-ads-mcp/internal/tools/common"
)

// getAudiencesClient retrieves the custom audience client for the specified account
func getAudiencesClient(ctx context.Context, account string, sc *server.ServerContext) (*audiences.Client, error) {
	if !sc.HasAccount(account) {
		return nil, errors.New(common.AuthInstructions(account))
	}

	client, err := sc.AudiencesClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create audiences client for account %s: %w", account, err)
	}
	return client, nil
}

// schemaFromArgs maps the schema argument to an upload schema
func schemaFromArgs(args map[string]interface{}) (audiences.Schema, error) {
	raw, _ := args["schema"].(string)
	switch strings.ToUpper(raw) {
	case "EMAIL", "EMAIL_SHA256":
		return audiences.SchemaEmail, nil
	case "PHONE", "PHONE_SHA256":
		return audiences.SchemaPhone, nil
	case "":
		return "", fmt.Errorf("schema is required: EMAIL or PHONE")
	default:
		return "", fmt.Errorf("unsupported schema %q: use EMAIL or PHONE", raw)
	}
}

// RegisterAudienceTools registers all custom audience tools with the MCP server
func RegisterAudienceTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List audiences tool
	listAudiencesTool := mcp.NewTool("meta_list_audiences",
		mcp.WithDescription("List custom audiences in an ad account with size and processing status"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("adAccountId",
			mcp.Required(),
			mcp.Description("The ad account ID, with or without the 'act_' prefix"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of audiences to return per page"),
		),
		mcp.WithString("after",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)

	s.AddTool(listAudiencesTool, common.InstrumentedToolHandlerWithService("meta_list_audiences", "audiences", "list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		adAccountID, ok := args["adAccountId"].(string)
		if !ok || adAccountID == "" {
			return mcp.NewToolResultError("adAccountId is required"), nil
		}

		opts := audiences.ListOptions{}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			opts.Limit = int(limit)
		}
		if after, ok := args["after"].(string); ok {
			opts.After = after
		}

		client, err := getAudiencesClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, next, err := client.List(ctx, adAccountID, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list audiences: %v", err)), nil
		}

		result, _ := json.MarshalIndent(map[string]interface{}{
			"audiences": list,
			"next":      next,
		}, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Get audience tool
	getAudienceTool := mcp.NewTool("meta_get_audience",
		mcp.WithDescription("Get details of a specific custom audience"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
		),
		mcp.WithString("audienceId",
			mcp.Required(),
			mcp.Description("The ID of the audience to retrieve"),
		),
	)

	s.AddTool(getAudienceTool, common.InstrumentedToolHandlerWithService("meta_get_audience", "audiences", "get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(ctx, args)

		audienceID, ok := args["audienceId"].(string)
		if !ok || audienceID == "" {
			return mcp.NewToolResultError("audienceId is required"), nil
		}

		client, err := getAudiencesClient(ctx, account, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		audience, err := client.Get(ctx, audienceID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get audience: %v", err)), nil
		}

		result, _ := json.MarshalIndent(audience, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}))

	// Register mutating tools only if not in read-only mode
	if !readOnly {
		// Create audience tool
		createAudienceTool := mcp.NewTool("meta_create_audience",
			mcp.WithDescription("Create a new customer list custom audience"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("adAccountId",
				mcp.Required(),
				mcp.Description("The ad account ID, with or without the 'act_' prefix"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Audience name"),
			),
			mcp.WithString("description",
				mcp.Description("Audience description"),
			),
			mcp.WithString("customerFileSource",
				mcp.Description("Origin of the customer data (default: USER_PROVIDED_ONLY)"),
			),
		)

		s.AddTool(createAudienceTool, common.InstrumentedToolHandlerWithService("meta_create_audience", "audiences", "create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

			input := audiences.Input{
				Name:               name,
				Subtype:            "CUSTOM",
				CustomerFileSource: "USER_PROVIDED_ONLY",
			}
			if description, ok := args["description"].(string); ok {
				input.Description = description
			}
			if source, ok := args["customerFileSource"].(string); ok && source != "" {
				input.CustomerFileSource = source
			}

			client, err := getAudiencesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			audienceID, err := client.Create(ctx, adAccountID, input)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to create audience: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Audience '%s' created with ID: %s", name, audienceID)), nil
		}))

		// Update audience tool
		updateAudienceTool := mcp.NewTool("meta_update_audience",
			mcp.WithDescription("Update a custom audience's name or description"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("audienceId",
				mcp.Required(),
				mcp.Description("The ID of the audience to update"),
			),
			mcp.WithString("name",
				mcp.Description("New audience name"),
			),
			mcp.WithString("description",
				mcp.Description("New audience description"),
			),
		)

		s.AddTool(updateAudienceTool, common.InstrumentedToolHandlerWithService("meta_update_audience", "audiences", "update", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			audienceID, ok := args["audienceId"].(string)
			if !ok || audienceID == "" {
				return mcp.NewToolResultError("audienceId is required"), nil
			}

			input := audiences.Input{}
			if name, ok := args["name"].(string); ok {
				input.Name = name
			}
			if description, ok := args["description"].(string); ok {
				input.Description = description
			}

			client, err := getAudiencesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Update(ctx, audienceID, input); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to update audience: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Audience %s updated successfully", audienceID)), nil
		}))

		// Delete audience tool
		deleteAudienceTool := mcp.NewTool("meta_delete_audience",
			mcp.WithDescription("Delete a custom audience"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("audienceId",
				mcp.Required(),
				mcp.Description("The ID of the audience to delete"),
			),
		)

		s.AddTool(deleteAudienceTool, common.InstrumentedToolHandlerWithService("meta_delete_audience", "audiences", "delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			account := common.GetAccountFromArgs(ctx, args)

			audienceID, ok := args["audienceId"].(string)
			if !ok || audienceID == "" {
				return mcp.NewToolResultError("audienceId is required"), nil
			}

			client, err := getAudiencesClient(ctx, account, sc)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.Delete(ctx, audienceID); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to delete audience: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Audience %s deleted successfully", audienceID)), nil
		}))

		// Add audience users tool
		addUsersTool := mcp.NewTool("meta_add_audience_users",
			mcp.WithDescription("Add users to a custom audience. Identifiers are normalized and SHA-256 hashed before upload."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("audienceId",
				mcp.Required(),
				mcp.Description("The ID of the audience to add users to"),
			),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description("Identifier type: EMAIL or PHONE"),
			),
			mcp.WithString("users",
				mcp.Required(),
				mcp.Description("Identifier (string) or array of identifiers, e.g. email addresses"),
			),
		)

		s.AddTool(addUsersTool, common.InstrumentedToolHandlerWithService("meta_add_audience_users", "audiences", "add_users", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAudienceUsers(ctx, request, sc, false)
		}))

		// Remove audience users tool
		removeUsersTool := mcp.NewTool("meta_remove_audience_users",
			mcp.WithDescription("Remove users from a custom audience. Identifiers are normalized and SHA-256 hashed before upload."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Meta accounts."),
			),
			mcp.WithString("audienceId",
				mcp.Required(),
				mcp.Description("The ID of the audience to remove users from"),
			),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description("Identifier type: EMAIL or PHONE"),
			),
			mcp.WithString("users",
				mcp.Required(),
				mcp.Description("Identifier (string) or array of identifiers, e.g. email addresses"),
			),
		)

		s.AddTool(removeUsersTool, common.InstrumentedToolHandlerWithService("meta_remove_audience_users", "audiences", "remove_users", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAudienceUsers(ctx, request, sc, true)
		}))
	}

	return nil
}

func handleAudienceUsers(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, remove bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	audienceID, ok := args["audienceId"].(string)
	if !ok || audienceID == "" {
		return mcp.NewToolResultError("audienceId is required"), nil
	}

	schema, err := schemaFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	users, err := batch.ParseStringOrArray(args["users"], "users")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getAudiencesClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var usersResult *audiences.UsersResult
	if remove {
		usersResult, err = client.RemoveUsers(ctx, audienceID, schema, users)
	} else {
		usersResult, err = client.AddUsers(ctx, audienceID, schema, users)
	}
	if err != nil {
		verb := "add"
		if remove {
			verb = "remove"
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s audience users: %v", verb, err)), nil
	}

	result, _ := json.MarshalIndent(usersResult, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
