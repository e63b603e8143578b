package oauth

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FlowStore tracks in-flight authorization flows: states awaiting the Meta
// callback and one-time authorization codes awaiting exchange.
type FlowStore struct {
	states map[string]*AuthorizationState
	codes  map[string]*AuthorizationCode
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewFlowStore creates a new flow store.
func NewFlowStore(logger *slog.Logger) *FlowStore {
	if logger == nil {
		logger = slog.Default()
	}

	store := &FlowStore{
		states: make(map[string]*AuthorizationState),
		codes:  make(map[string]*AuthorizationCode),
		logger: logger,
	}

	go store.cleanup()

	return store
}

// SaveAuthorizationState saves a pending authorization, keyed by the state
// parameter sent to Meta.
func (s *FlowStore) SaveAuthorizationState(state *AuthorizationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ProviderState] = state
	s.logger.Debug("Saved authorization state",
		"client_id", state.ClientID,
		"expires_at", time.Unix(state.ExpiresAt, 0))
	return nil
}

// GetAuthorizationState retrieves a pending authorization by provider state.
func (s *FlowStore) GetAuthorizationState(providerState string) (*AuthorizationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[providerState]
	if !ok {
		return nil, fmt.Errorf("authorization state not found")
	}
	if time.Now().Unix() > state.ExpiresAt {
		return nil, fmt.Errorf("authorization state expired")
	}
	return state, nil
}

// DeleteAuthorizationState removes a pending authorization.
func (s *FlowStore) DeleteAuthorizationState(providerState string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, providerState)
}

// SaveAuthorizationCode saves a one-time authorization code.
func (s *FlowStore) SaveAuthorizationCode(code *AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code.Code] = code
	s.logger.Debug("Saved authorization code",
		"client_id", code.ClientID,
		"user_id", code.UserID,
		"expires_at", time.Unix(code.ExpiresAt, 0))
	return nil
}

// ConsumeAuthorizationCode retrieves and immediately deletes an
// authorization code. Deleting under the same lock closes the replay
// window, a code can never be exchanged twice.
func (s *FlowStore) ConsumeAuthorizationCode(code string) (*AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authCode, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("authorization code not found")
	}
	if time.Now().Unix() > authCode.ExpiresAt {
		delete(s.codes, code)
		return nil, fmt.Errorf("authorization code expired")
	}

	delete(s.codes, code)

	s.logger.Info("Authorization code consumed",
		"client_id", authCode.ClientID,
		"user_id", authCode.UserID)
	return authCode, nil
}

func (s *FlowStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanupExpired()
	}
}

func (s *FlowStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	statesDeleted := 0
	codesDeleted := 0

	for providerState, state := range s.states {
		if now > state.ExpiresAt {
			delete(s.states, providerState)
			statesDeleted++
		}
	}
	for code, authCode := range s.codes {
		if now > authCode.ExpiresAt {
			delete(s.codes, code)
			codesDeleted++
		}
	}

	if statesDeleted > 0 || codesDeleted > 0 {
		s.logger.Debug("Cleaned up OAuth flow data",
			"states_deleted", statesDeleted,
			"codes_deleted", codesDeleted)
	}
}
