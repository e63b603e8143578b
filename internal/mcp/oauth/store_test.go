package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(userID string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		UserID:          userID,
		UserName:        "Test User",
		MetaAccessToken: "meta-token",
		MetaTokenExpiry: now.Add(60 * 24 * time.Hour),
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}
}

func TestMemoryStore_SessionRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	hash := HashToken("access-token")
	require.NoError(t, store.SaveSession(ctx, hash, testSession("u1", time.Hour)))

	session, err := store.GetSession(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "meta-token", session.MetaAccessToken)

	_, err = store.GetSession(ctx, HashToken("other-token"))
	require.Error(t, err)

	require.NoError(t, store.DeleteSession(ctx, hash))
	_, err = store.GetSession(ctx, hash)
	require.Error(t, err)
}

func TestMemoryStore_ExpiredSession(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	hash := HashToken("expired")
	require.NoError(t, store.SaveSession(ctx, hash, testSession("u1", -time.Minute)))

	_, err := store.GetSession(ctx, hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestMemoryStore_Validation(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	require.Error(t, store.SaveSession(ctx, "", testSession("u1", time.Hour)))
	require.Error(t, store.SaveSession(ctx, "hash", nil))
	require.Error(t, store.SaveRefreshGrant(ctx, "", &RefreshGrant{}))
	require.Error(t, store.SaveRefreshGrant(ctx, "hash", nil))
}

func TestMemoryStore_RefreshGrantRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	hash := HashToken("refresh-token")
	grant := &RefreshGrant{
		UserID:          "u1",
		MetaAccessToken: "meta-token",
		MetaTokenExpiry: time.Now().Add(60 * 24 * time.Hour),
		CreatedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(DefaultRefreshTokenTTL),
	}
	require.NoError(t, store.SaveRefreshGrant(ctx, hash, grant))

	got, err := store.GetRefreshGrant(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.DeleteRefreshGrant(ctx, hash))
	_, err = store.GetRefreshGrant(ctx, hash)
	require.Error(t, err)
}

func TestMemoryStore_DeleteUserTokens(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, "s1", testSession("u1", time.Hour)))
	require.NoError(t, store.SaveSession(ctx, "s2", testSession("u1", time.Hour)))
	require.NoError(t, store.SaveSession(ctx, "s3", testSession("u2", time.Hour)))
	require.NoError(t, store.SaveRefreshGrant(ctx, "r1", &RefreshGrant{
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.DeleteUserTokens(ctx, "u1"))

	_, err := store.GetSession(ctx, "s1")
	require.Error(t, err)
	_, err = store.GetSession(ctx, "s2")
	require.Error(t, err)
	_, err = store.GetRefreshGrant(ctx, "r1")
	require.Error(t, err)

	// Other users are untouched
	_, err = store.GetSession(ctx, "s3")
	require.NoError(t, err)
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	store := NewMemoryStoreWithInterval(time.Hour, nil)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, "live", testSession("u1", time.Hour)))
	require.NoError(t, store.SaveSession(ctx, "dead", testSession("u2", -time.Minute)))

	store.cleanupExpired()

	stats := store.Stats()
	assert.Equal(t, 1, stats["sessions"])
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("token-a")
	h2 := HashToken("token-a")
	h3 := HashToken("token-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "token-a")
}
