package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowStore_AuthorizationState(t *testing.T) {
	store := NewFlowStore(nil)
	now := time.Now().Unix()

	state := &AuthorizationState{
		State:         "client-state",
		ClientID:      "client1",
		RedirectURI:   "https://example.com/callback",
		ProviderState: "provider-state",
		CreatedAt:     now,
		ExpiresAt:     now + 600,
	}
	require.NoError(t, store.SaveAuthorizationState(state))

	got, err := store.GetAuthorizationState("provider-state")
	require.NoError(t, err)
	assert.Equal(t, "client1", got.ClientID)
	assert.Equal(t, "client-state", got.State)

	_, err = store.GetAuthorizationState("unknown")
	require.Error(t, err)

	store.DeleteAuthorizationState("provider-state")
	_, err = store.GetAuthorizationState("provider-state")
	require.Error(t, err)
}

func TestFlowStore_ExpiredState(t *testing.T) {
	store := NewFlowStore(nil)

	require.NoError(t, store.SaveAuthorizationState(&AuthorizationState{
		ProviderState: "old",
		ExpiresAt:     time.Now().Unix() - 10,
	}))

	_, err := store.GetAuthorizationState("old")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestFlowStore_ConsumeAuthorizationCode(t *testing.T) {
	store := NewFlowStore(nil)
	now := time.Now().Unix()

	require.NoError(t, store.SaveAuthorizationCode(&AuthorizationCode{
		Code:      "code1",
		ClientID:  "client1",
		UserID:    "u1",
		CreatedAt: now,
		ExpiresAt: now + 600,
	}))

	code, err := store.ConsumeAuthorizationCode("code1")
	require.NoError(t, err)
	assert.Equal(t, "u1", code.UserID)

	// One-time use: second consume must fail
	_, err = store.ConsumeAuthorizationCode("code1")
	require.Error(t, err)
}

func TestFlowStore_ExpiredCode(t *testing.T) {
	store := NewFlowStore(nil)

	require.NoError(t, store.SaveAuthorizationCode(&AuthorizationCode{
		Code:      "stale",
		ExpiresAt: time.Now().Unix() - 10,
	}))

	_, err := store.ConsumeAuthorizationCode("stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestFlowStore_CleanupExpired(t *testing.T) {
	store := NewFlowStore(nil)
	now := time.Now().Unix()

	require.NoError(t, store.SaveAuthorizationState(&AuthorizationState{
		ProviderState: "live", ExpiresAt: now + 600,
	}))
	require.NoError(t, store.SaveAuthorizationState(&AuthorizationState{
		ProviderState: "dead", ExpiresAt: now - 10,
	}))
	require.NoError(t, store.SaveAuthorizationCode(&AuthorizationCode{
		Code: "dead-code", ExpiresAt: now - 10,
	}))

	store.cleanupExpired()

	_, err := store.GetAuthorizationState("live")
	require.NoError(t, err)
	store.mu.RLock()
	assert.Len(t, store.states, 1)
	assert.Len(t, store.codes, 0)
	store.mu.RUnlock()
}
