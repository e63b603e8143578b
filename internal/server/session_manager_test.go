package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDManager_ResolveSessionID(t *testing.T) {
	m := NewSessionIDManagerWithTimeout(time.Hour)
	defer m.Stop()

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	_, err := m.ResolveSessionID(req)
	require.ErrorIs(t, err, ErrNoAuthorizationHeader)

	req.Header.Set("Authorization", "Bearer token-a")
	id1, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	require.NotEmpty(t, id1)
	assert.NotContains(t, id1, "token-a")

	// Same token resolves to the same session
	id2, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	req.Header.Set("Authorization", "Bearer token-b")
	id3, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestSessionIDManager_AccountBinding(t *testing.T) {
	m := NewSessionIDManagerWithTimeout(time.Hour)
	defer m.Stop()

	assert.Equal(t, "default", m.GetAccountForSession("unknown"))

	m.SetAccountForSession("session-1", "work")
	assert.Equal(t, "work", m.GetAccountForSession("session-1"))

	m.RemoveSession("session-1")
	assert.Equal(t, "default", m.GetAccountForSession("session-1"))
}

func TestSessionIDManager_ListSessions(t *testing.T) {
	m := NewSessionIDManagerWithTimeout(time.Hour)
	defer m.Stop()

	assert.Empty(t, m.ListSessions())

	m.SetAccountForSession("s1", "a")
	m.SetAccountForSession("s2", "b")
	assert.ElementsMatch(t, []string{"s1", "s2"}, m.ListSessions())
}
