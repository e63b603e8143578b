package cmd

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adtoolkit/meta-ads-mcp/internal/server"
)

func TestDetectBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{
			name:     "port-only address",
			addr:     ":8080",
			expected: "http://localhost:8080",
		},
		{
			name:     "host and port",
			addr:     "0.0.0.0:8080",
			expected: "http://0.0.0.0:8080",
		},
		{
			name:     "empty address",
			addr:     "",
			expected: "http://localhost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectBaseURL(tt.addr))
		})
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string returns nil",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "ads_read",
			expected: []string{"ads_read"},
		},
		{
			name:     "multiple values",
			input:    "ads_read,ads_management,read_insights",
			expected: []string{"ads_read", "ads_management", "read_insights"},
		},
		{
			name:     "values with whitespace",
			input:    " ads_read , ads_management ",
			expected: []string{"ads_read", "ads_management"},
		},
		{
			name:     "empty elements filtered",
			input:    "ads_read,,ads_management,",
			expected: []string{"ads_read", "ads_management"},
		},
		{
			name:     "only commas and whitespace returns nil",
			input:    " , , ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCommaSeparatedList(tt.input))
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		tool     string
		expected string
	}{
		{"meta_get_auth_url", "Authentication Tools"},
		{"meta_save_auth_code", "Authentication Tools"},
		{"meta_list_accounts", "Authentication Tools"},
		{"meta_remove_account", "Authentication Tools"},
		{"meta_list_ad_accounts", "Ad Account Tools"},
		{"meta_get_ad_account", "Ad Account Tools"},
		{"meta_create_campaign", "Campaign Tools"},
		{"meta_update_campaign_status", "Campaign Tools"},
		{"meta_list_adsets", "Ad Set Tools"},
		{"meta_create_link_creative", "Creative Tools"},
		{"meta_list_ads", "Ad Tools"},
		{"meta_update_ad_status", "Ad Tools"},
		{"meta_get_insights", "Insights Tools"},
		{"meta_add_audience_users", "Audience Tools"},
		{"other_tool", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.expected, getCategoryFromToolName(tt.tool))
		})
	}
}

func TestLoadOAuthStorageEnvVars(t *testing.T) {
	t.Setenv("OAUTH_STORAGE_TYPE", "valkey")
	t.Setenv("VALKEY_URL", "valkey.ads.svc:6379")
	t.Setenv("VALKEY_PASSWORD", "secret")
	t.Setenv("VALKEY_TLS_ENABLED", "true")
	t.Setenv("VALKEY_KEY_PREFIX", "custom:")
	t.Setenv("VALKEY_DB", "3")

	cmd := newServeCmd()
	config := OAuthStorageConfig{Type: "memory"}

	loadOAuthStorageEnvVars(cmd, &config)

	assert.Equal(t, "valkey", config.Type)
	assert.Equal(t, "valkey.ads.svc:6379", config.Valkey.URL)
	assert.Equal(t, "secret", config.Valkey.Password)
	assert.True(t, config.Valkey.TLSEnabled)
	assert.Equal(t, "custom:", config.Valkey.KeyPrefix)
	assert.Equal(t, 3, config.Valkey.DB)
}

func TestLoadOAuthStorageEnvVars_FlagWins(t *testing.T) {
	t.Setenv("OAUTH_STORAGE_TYPE", "valkey")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("oauth-storage-type", "memory"))

	config := OAuthStorageConfig{Type: "memory"}
	loadOAuthStorageEnvVars(cmd, &config)

	assert.Equal(t, "memory", config.Type)
}

func TestRegisterAllTools(t *testing.T) {
	sc, err := server.NewServerContext(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv := mcpserver.NewMCPServer("test", "0.0.1")
	require.NoError(t, registerAllTools(mcpSrv, sc, false, true))

	tools := mcpSrv.ListTools()
	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		names[tool.Tool.Name] = true
	}

	for _, expected := range []string{
		"meta_get_auth_url",
		"meta_list_ad_accounts",
		"meta_list_campaigns",
		"meta_create_campaign",
		"meta_list_adsets",
		"meta_list_ads",
		"meta_list_creatives",
		"meta_get_insights",
		"meta_list_audiences",
		"meta_add_audience_users",
	} {
		assert.True(t, names[expected], "missing tool %s", expected)
	}
}

func TestRegisterAllTools_ReadOnly(t *testing.T) {
	sc, err := server.NewServerContext(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv := mcpserver.NewMCPServer("test", "0.0.1")
	require.NoError(t, registerAllTools(mcpSrv, sc, true, false))

	for _, tool := range mcpSrv.ListTools() {
		assert.NotContains(t, tool.Tool.Name, "create", "write tool registered in read-only mode")
		assert.NotContains(t, tool.Tool.Name, "delete", "write tool registered in read-only mode")
	}
}
