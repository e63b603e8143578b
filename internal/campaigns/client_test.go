package campaigns

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

func TestList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/act_123/campaigns", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, `["ACTIVE","PAUSED"]`, r.URL.Query().Get("effective_status"))

		_, _ = w.Write([]byte(`{
			"data":[{"id":"c1","name":"Summer Sale","objective":"OUTCOME_TRAFFIC","status":"ACTIVE"}],
			"paging":{"cursors":{"after":"QVFIU"}}
		}`))
	})

	campaigns, next, err := client.List(context.Background(), "act_123", ListOptions{
		Limit:           25,
		EffectiveStatus: []string{"ACTIVE", "PAUSED"},
	})
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Summer Sale", campaigns[0].Name)
	assert.Equal(t, "QVFIU", next)
}

func TestGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/c1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"c1","name":"Summer Sale","objective":"OUTCOME_SALES","special_ad_categories":["NONE"]}`))
	})

	campaign, err := client.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "OUTCOME_SALES", campaign.Objective)
}

func TestCreate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v23.0/act_123/campaigns", r.URL.Path)
		assert.Equal(t, "Summer Sale", r.PostForm.Get("name"))
		assert.Equal(t, "OUTCOME_TRAFFIC", r.PostForm.Get("objective"))
		// Campaigns default to PAUSED and an explicit empty category list
		assert.Equal(t, StatusPaused, r.PostForm.Get("status"))
		assert.Equal(t, "[]", r.PostForm.Get("special_ad_categories"))

		_, _ = w.Write([]byte(`{"id":"120210000000000001"}`))
	})

	id, err := client.Create(context.Background(), "123", Input{
		Name:      "Summer Sale",
		Objective: "OUTCOME_TRAFFIC",
	})
	require.NoError(t, err)
	assert.Equal(t, "120210000000000001", id)
}

func TestCreate_Validation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	})

	_, err := client.Create(context.Background(), "act_123", Input{Objective: "OUTCOME_TRAFFIC"})
	require.Error(t, err)

	_, err = client.Create(context.Background(), "act_123", Input{Name: "No objective"})
	require.Error(t, err)
}

func TestUpdate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v23.0/c1", r.URL.Path)
		assert.Equal(t, StatusPaused, r.PostForm.Get("status"))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := client.Update(context.Background(), "c1", Input{Status: StatusPaused})
	require.NoError(t, err)
}

func TestUpdate_NoFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty update")
	})

	err := client.Update(context.Background(), "c1", Input{})
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v23.0/c1", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, client.Delete(context.Background(), "c1"))
}
