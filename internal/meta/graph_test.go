package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/act_123/campaigns", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "name,status", r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Summer Sale"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	params := url.Values{}
	params.Set("fields", "name,status")

	envelope, err := client.GetList(context.Background(), "act_123/campaigns", params)
	require.NoError(t, err)

	var campaigns []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &campaigns))
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Summer Sale", campaigns[0].Name)
}

func TestClient_AppSecretProof(t *testing.T) {
	var gotProof string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProof = r.URL.Query().Get("appsecret_proof")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123",
		WithBaseURL(srv.URL),
		WithAppSecret("app-secret"),
	)

	err := client.Get(context.Background(), "me", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, AppSecretProof("test-token", "app-secret"), gotProof)
	assert.NotEmpty(t, gotProof)
}

func TestClient_GraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"AbCdEf"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	err := client.Get(context.Background(), "act_123/campaigns", nil, nil)
	require.Error(t, err)

	ge, ok := AsGraphError(err)
	require.True(t, ok)
	assert.Equal(t, 100, ge.Code)
	assert.Equal(t, "OAuthException", ge.Type)
	assert.Equal(t, "AbCdEf", ge.FBTraceID)
	assert.Equal(t, http.StatusBadRequest, ge.HTTPStatus)
	assert.False(t, ge.IsRetryable())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"Service temporarily unavailable","type":"ServiceException","code":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"123"}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	var resp CreateResponse
	err := client.Get(context.Background(), "act_123", nil, &resp)
	require.NoError(t, err)
	assert.Equal(t, "123", resp.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesServerErrorsOnPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"An unknown error occurred","type":"ServiceException","code":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"123"}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	var resp CreateResponse
	err := client.PostForm(context.Background(), "act_123/campaigns", url.Values{"name": {"n"}}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "123", resp.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NoRetryOnApplicationError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"Permission denied","type":"OAuthException","code":200}}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	err := client.Get(context.Background(), "act_123/campaigns", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesRateLimitErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"User request limit reached","type":"OAuthException","code":17}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	var resp SuccessResponse
	err := client.PostForm(context.Background(), "123", url.Values{"status": {"PAUSED"}}, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Summer Sale", r.PostForm.Get("name"))
		assert.Equal(t, "test-token", r.PostForm.Get("access_token"))
		_, _ = w.Write([]byte(`{"id":"120210000000000001"}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", "act_123", WithBaseURL(srv.URL))

	form := url.Values{}
	form.Set("name", "Summer Sale")

	var resp CreateResponse
	err := client.PostForm(context.Background(), "act_123/campaigns", form, &resp)
	require.NoError(t, err)
	assert.Equal(t, "120210000000000001", resp.ID)
}

func TestParseGraphError_NonJSON(t *testing.T) {
	err := parseGraphError([]byte("bad gateway"), http.StatusBadGateway)

	ge, ok := AsGraphError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ge.HTTPStatus)
	assert.True(t, ge.IsRetryable())
}
