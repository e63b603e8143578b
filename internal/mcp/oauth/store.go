package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is the server-side state behind an issued access token. It maps
// the opaque bearer token (by hash) to the user's Meta credentials.
type Session struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Scope     string    `json:"scope,omitempty"`

	// MetaAccessToken is the long-lived Meta user token backing this session.
	MetaAccessToken string    `json:"meta_access_token"`
	MetaTokenExpiry time.Time `json:"meta_token_expiry"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// RefreshGrant is the server-side state behind an issued refresh token.
type RefreshGrant struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Scope     string    `json:"scope,omitempty"`

	MetaAccessToken string    `json:"meta_access_token"`
	MetaTokenExpiry time.Time `json:"meta_token_expiry"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the grant has passed its expiry.
func (g *RefreshGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}

// TokenStore persists sessions and refresh grants. Keys are token hashes,
// never the tokens themselves.
type TokenStore interface {
	SaveSession(ctx context.Context, tokenHash string, session *Session) error
	GetSession(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error

	SaveRefreshGrant(ctx context.Context, tokenHash string, grant *RefreshGrant) error
	GetRefreshGrant(ctx context.Context, tokenHash string) (*RefreshGrant, error)
	DeleteRefreshGrant(ctx context.Context, tokenHash string) error

	// DeleteUserTokens removes all sessions and refresh grants of a user.
	DeleteUserTokens(ctx context.Context, userID string) error

	Close() error
}

// MemoryStore is the in-memory TokenStore. Sessions vanish on restart,
// clients then re-authenticate through the normal flow.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	grants   map[string]*RefreshGrant
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory store with the default cleanup interval.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return NewMemoryStoreWithInterval(DefaultCleanupInterval, logger)
}

// NewMemoryStoreWithInterval creates an in-memory store with a custom
// cleanup interval.
func NewMemoryStoreWithInterval(cleanupInterval time.Duration, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}

	s := &MemoryStore{
		sessions: make(map[string]*Session),
		grants:   make(map[string]*RefreshGrant),
		logger:   logger,
		stop:     make(chan struct{}),
	}

	go s.cleanupLoop(cleanupInterval)

	return s
}

// SaveSession stores a session under a token hash.
func (s *MemoryStore) SaveSession(_ context.Context, tokenHash string, session *Session) error {
	if tokenHash == "" {
		return fmt.Errorf("token hash cannot be empty")
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[tokenHash] = session
	s.logger.Debug("Saved session",
		"user_id", session.UserID,
		"expires_at", session.ExpiresAt)
	return nil
}

// GetSession retrieves a session by token hash. Expired sessions are
// reported as missing.
func (s *MemoryStore) GetSession(_ context.Context, tokenHash string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}
	return session, nil
}

// DeleteSession removes a session.
func (s *MemoryStore) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, tokenHash)
	return nil
}

// SaveRefreshGrant stores a refresh grant under a token hash.
func (s *MemoryStore) SaveRefreshGrant(_ context.Context, tokenHash string, grant *RefreshGrant) error {
	if tokenHash == "" {
		return fmt.Errorf("token hash cannot be empty")
	}
	if grant == nil {
		return fmt.Errorf("grant cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants[tokenHash] = grant
	s.logger.Debug("Saved refresh grant",
		"user_id", grant.UserID,
		"expires_at", grant.ExpiresAt)
	return nil
}

// GetRefreshGrant retrieves a refresh grant by token hash.
func (s *MemoryStore) GetRefreshGrant(_ context.Context, tokenHash string) (*RefreshGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, ok := s.grants[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh grant not found")
	}
	if grant.Expired(time.Now()) {
		return nil, fmt.Errorf("refresh grant expired")
	}
	return grant, nil
}

// DeleteRefreshGrant removes a refresh grant.
func (s *MemoryStore) DeleteRefreshGrant(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.grants, tokenHash)
	return nil
}

// DeleteUserTokens removes every session and refresh grant of a user.
func (s *MemoryStore) DeleteUserTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, hash)
			removed++
		}
	}
	for hash, grant := range s.grants {
		if grant.UserID == userID {
			delete(s.grants, hash)
			removed++
		}
	}

	s.logger.Info("Deleted user tokens", "user_id", userID, "removed", removed)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// Stats returns entry counts for monitoring.
func (s *MemoryStore) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"sessions":       len(s.sessions),
		"refresh_grants": len(s.grants),
	}
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired removes expired entries. Candidates are collected under a
// read lock and re-checked under the write lock, entries may have been
// replaced in between.
func (s *MemoryStore) cleanupExpired() {
	now := time.Now()

	s.mu.RLock()
	var expiredSessions, expiredGrants []string
	for hash, session := range s.sessions {
		if session.Expired(now) {
			expiredSessions = append(expiredSessions, hash)
		}
	}
	for hash, grant := range s.grants {
		if grant.Expired(now) {
			expiredGrants = append(expiredGrants, hash)
		}
	}
	s.mu.RUnlock()

	if len(expiredSessions) == 0 && len(expiredGrants) == 0 {
		return
	}

	s.mu.Lock()
	now = time.Now()
	removed := 0
	for _, hash := range expiredSessions {
		if session, ok := s.sessions[hash]; ok && session.Expired(now) {
			delete(s.sessions, hash)
			removed++
		}
	}
	for _, hash := range expiredGrants {
		if grant, ok := s.grants[hash]; ok && grant.Expired(now) {
			delete(s.grants, hash)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("Cleaned up expired tokens", "removed", removed)
	}
}
