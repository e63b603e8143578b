package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterClient(t *testing.T) {
	store := NewClientStore(nil)

	resp, err := store.RegisterClient(&ClientRegistrationRequest{
		RedirectURIs: []string{"https://example.com/callback"},
		ClientName:   "Test Client",
	}, "203.0.113.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ClientID)
	assert.NotEmpty(t, resp.ClientSecret)
	assert.Equal(t, "client_secret_basic", resp.TokenEndpointAuthMethod)
	assert.Equal(t, DefaultGrantTypes, resp.GrantTypes)

	client, err := store.GetClient(resp.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Test Client", client.ClientName)
	assert.NotEqual(t, resp.ClientSecret, client.ClientSecretHash, "secret must be stored hashed")
}

func TestValidateClientSecret(t *testing.T) {
	store := NewClientStore(nil)

	resp, err := store.RegisterClient(&ClientRegistrationRequest{
		RedirectURIs: []string{"https://example.com/callback"},
	}, "")
	require.NoError(t, err)

	require.NoError(t, store.ValidateClientSecret(resp.ClientID, resp.ClientSecret))
	require.Error(t, store.ValidateClientSecret(resp.ClientID, "wrong-secret"))
	require.Error(t, store.ValidateClientSecret("unknown-client", resp.ClientSecret))
}

func TestValidateRedirectURI(t *testing.T) {
	store := NewClientStore(nil)

	resp, err := store.RegisterClient(&ClientRegistrationRequest{
		RedirectURIs: []string{"https://example.com/callback", "http://localhost:8080/cb"},
	}, "")
	require.NoError(t, err)

	require.NoError(t, store.ValidateRedirectURI(resp.ClientID, "https://example.com/callback"))
	require.NoError(t, store.ValidateRedirectURI(resp.ClientID, "http://localhost:8080/cb"))
	require.Error(t, store.ValidateRedirectURI(resp.ClientID, "https://evil.example.com/callback"))
}

func TestCheckIPLimit(t *testing.T) {
	store := NewClientStore(nil)

	for i := 0; i < 3; i++ {
		_, err := store.RegisterClient(&ClientRegistrationRequest{
			RedirectURIs: []string{"https://example.com/callback"},
		}, "203.0.113.9")
		require.NoError(t, err)
	}

	require.Error(t, store.CheckIPLimit("203.0.113.9", 3))
	require.NoError(t, store.CheckIPLimit("203.0.113.9", 10))
	require.NoError(t, store.CheckIPLimit("203.0.113.9", 0), "zero means no limit")
	require.NoError(t, store.CheckIPLimit("198.51.100.1", 3))
}
