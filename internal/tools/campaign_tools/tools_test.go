package campaign_tools

import (
	"context"
	"testing"

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

func TestRegisterCampaignTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestContext(t)

	require.NoError(t, RegisterCampaignTools(s, sc, false))
}

func TestRegisterCampaignTools_ReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestContext(t)

	require.NoError(t, RegisterCampaignTools(s, sc, true))
}

func TestGetLimitFromArgs(t *testing.T) {
	assert.Equal(t, 0, getLimitFromArgs(map[string]interface{}{}))
	assert.Equal(t, 0, getLimitFromArgs(map[string]interface{}{"limit": "25"}))
	assert.Equal(t, 0, getLimitFromArgs(map[string]interface{}{"limit": float64(-1)}))
	assert.Equal(t, 25, getLimitFromArgs(map[string]interface{}{"limit": float64(25)}))
}

func TestGetOptionalStringList(t *testing.T) {
	list, err := getOptionalStringList(map[string]interface{}{}, "effectiveStatus")
	require.NoError(t, err)
	assert.Nil(t, list)

	list, err = getOptionalStringList(map[string]interface{}{"effectiveStatus": "ACTIVE"}, "effectiveStatus")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTIVE"}, list)

	list, err = getOptionalStringList(map[string]interface{}{"effectiveStatus": []interface{}{"ACTIVE", "PAUSED"}}, "effectiveStatus")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTIVE", "PAUSED"}, list)

	_, err = getOptionalStringList(map[string]interface{}{"effectiveStatus": 42}, "effectiveStatus")
	assert.Error(t, err)
}

func TestCampaignInputFromArgs(t *testing.T) {
	input, err := campaignInputFromArgs(map[string]interface{}{
		"name":                "Summer Sale",
		"objective":           "OUTCOME_SALES",
		"status":              "PAUSED",
		"dailyBudget":         "5000",
		"specialAdCategories": []interface{}{"CREDIT"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", input.Name)
	assert.Equal(t, "OUTCOME_SALES", input.Objective)
	assert.Equal(t, "PAUSED", input.Status)
	assert.Equal(t, "5000", input.DailyBudget)
	assert.Equal(t, []string{"CREDIT"}, input.SpecialAdCategories)
}

func TestGetCampaignsClient_Unauthorized(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	sc := newTestContext(t)

	_, err := getCampaignsClient(context.Background(), "nobody", sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta_get_auth_url")
}
