package auth_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adtoolkit/meta-ads-mcp/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestRegisterAuthTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestContext(t)

	require.NoError(t, RegisterAuthTools(s, sc, false))
}

func TestRegisterAuthTools_ReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestContext(t)

	require.NoError(t, RegisterAuthTools(s, sc, true))
}

func TestHandleGetAuthURL(t *testing.T) {
	t.Setenv("META_APP_ID", "1234567890")
	t.Setenv("META_APP_SECRET", "secret")

	sc := newTestContext(t)

	result, err := handleGetAuthURL(context.Background(), toolRequest(map[string]interface{}{"account": "work"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "facebook.com")
	assert.Contains(t, text, `"work"`)
	assert.Contains(t, text, "meta_save_auth_code")
}

func TestHandleGetAuthURL_MissingAppID(t *testing.T) {
	t.Setenv("META_APP_ID", "")
	t.Setenv("META_APP_SECRET", "")

	sc := newTestContext(t)

	result, err := handleGetAuthURL(context.Background(), toolRequest(nil), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSaveAuthCode_MissingCode(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleSaveAuthCode(context.Background(), toolRequest(map[string]interface{}{"account": "work"}), sc)
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "authCode is required")
}

func TestHandleRemoveAccount_MissingAccount(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleRemoveAccount(context.Background(), toolRequest(map[string]interface{}{}), sc)
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "account is required")
}

func TestHandleListAccounts_NoTokens(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	sc := newTestContext(t)

	result, err := handleListAccounts(context.Background(), toolRequest(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "meta_get_auth_url")
}
