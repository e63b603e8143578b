package accounts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	graph := meta.NewClient("test-token", "default", meta.WithBaseURL(srv.URL))
	return NewClient(graph, "default")
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"act_123", "act_123"},
		{"123", "act_123"},
	}

	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListAdAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/me/adaccounts", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[
			{"id":"act_123","account_id":"123","name":"Main","account_status":1,"currency":"EUR"},
			{"id":"act_456","account_id":"456","name":"Sandbox","account_status":2,"currency":"USD"}
		]}`))
	})

	accounts, err := client.ListAdAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "act_123", accounts[0].ID)
	assert.Equal(t, "ACTIVE", accounts[0].StatusDescription())
	assert.Equal(t, "DISABLED", accounts[1].StatusDescription())
}

func TestGetAdAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/act_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"act_123","account_id":"123","name":"Main","account_status":1,"currency":"EUR","timezone_name":"Europe/Berlin"}`))
	})

	// Bare numeric ID gets the act_ prefix
	account, err := client.GetAdAccount(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "Main", account.Name)
	assert.Equal(t, "Europe/Berlin", account.TimezoneName)
}
