package oauth

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

const defaultValkeyKeyPrefix = "mam:"

// ValkeyStore is a Valkey-backed TokenStore. Entries expire server-side
// via key TTLs, so no cleanup goroutine is needed. With an encryption key
// configured, payloads are encrypted before they leave the process.
type ValkeyStore struct {
	client     valkey.Client
	prefix     string
	encryption *TokenEncryption
	logger     *slog.Logger
}

// NewValkeyStore connects to Valkey and returns a store. encryptionKey may
// be nil to store payloads unencrypted.
func NewValkeyStore(cfg ValkeyConfig, encryptionKey []byte, logger *slog.Logger) (*ValkeyStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	option := valkey.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		option.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	encryption, err := NewTokenEncryption(encryptionKey)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultValkeyKeyPrefix
	}

	logger.Info("Connected to Valkey token store",
		"address", cfg.Address,
		"db", cfg.DB,
		"tls", cfg.TLSEnabled,
		"encrypted", encryption.Enabled())

	return &ValkeyStore{
		client:     client,
		prefix:     prefix,
		encryption: encryption,
		logger:     logger,
	}, nil
}

func (s *ValkeyStore) sessionKey(tokenHash string) string {
	return s.prefix + "session:" + tokenHash
}

func (s *ValkeyStore) grantKey(tokenHash string) string {
	return s.prefix + "refresh:" + tokenHash
}

func (s *ValkeyStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

// SaveSession stores a session with a TTL matching its expiry.
func (s *ValkeyStore) SaveSession(ctx context.Context, tokenHash string, session *Session) error {
	if tokenHash == "" {
		return fmt.Errorf("token hash cannot be empty")
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	return s.save(ctx, s.sessionKey(tokenHash), session, session.ExpiresAt, session.UserID)
}

// GetSession retrieves a session by token hash.
func (s *ValkeyStore) GetSession(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	if err := s.load(ctx, s.sessionKey(tokenHash), &session); err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}
	return &session, nil
}

// DeleteSession removes a session.
func (s *ValkeyStore) DeleteSession(ctx context.Context, tokenHash string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.sessionKey(tokenHash)).Build()).Error()
}

// SaveRefreshGrant stores a refresh grant with a TTL matching its expiry.
func (s *ValkeyStore) SaveRefreshGrant(ctx context.Context, tokenHash string, grant *RefreshGrant) error {
	if tokenHash == "" {
		return fmt.Errorf("token hash cannot be empty")
	}
	if grant == nil {
		return fmt.Errorf("grant cannot be nil")
	}
	return s.save(ctx, s.grantKey(tokenHash), grant, grant.ExpiresAt, grant.UserID)
}

// GetRefreshGrant retrieves a refresh grant by token hash.
func (s *ValkeyStore) GetRefreshGrant(ctx context.Context, tokenHash string) (*RefreshGrant, error) {
	var grant RefreshGrant
	if err := s.load(ctx, s.grantKey(tokenHash), &grant); err != nil {
		return nil, fmt.Errorf("refresh grant not found: %w", err)
	}
	if grant.Expired(time.Now()) {
		return nil, fmt.Errorf("refresh grant expired")
	}
	return &grant, nil
}

// DeleteRefreshGrant removes a refresh grant.
func (s *ValkeyStore) DeleteRefreshGrant(ctx context.Context, tokenHash string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.grantKey(tokenHash)).Build()).Error()
}

// DeleteUserTokens removes every key tracked in the user's index set.
func (s *ValkeyStore) DeleteUserTokens(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	keys, err := s.client.Do(ctx, s.client.B().Smembers().Key(userKey).Build()).AsStrSlice()
	if err != nil && !valkey.IsValkeyNil(err) {
		return fmt.Errorf("failed to list user tokens: %w", err)
	}

	for _, key := range keys {
		if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
			s.logger.Warn("Failed to delete user token key", "error", err)
		}
	}

	if err := s.client.Do(ctx, s.client.B().Del().Key(userKey).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete user index: %w", err)
	}

	s.logger.Info("Deleted user tokens", "user_id", userID, "removed", len(keys))
	return nil
}

// Close releases the Valkey connection.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}

func (s *ValkeyStore) save(ctx context.Context, key string, value any, expiresAt time.Time, userID string) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode token entry: %w", err)
	}

	encoded, err := s.encryption.Encrypt(string(payload))
	if err != nil {
		return fmt.Errorf("failed to encrypt token entry: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("entry already expired")
	}

	cmd := s.client.B().Set().Key(key).Value(encoded).ExSeconds(int64(ttl.Seconds()) + 1).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store token entry: %w", err)
	}

	// Track the key in the user's index so revocation can find it. The
	// index carries the longest TTL among its members.
	if userID != "" {
		userKey := s.userKey(userID)
		if err := s.client.Do(ctx, s.client.B().Sadd().Key(userKey).Member(key).Build()).Error(); err != nil {
			s.logger.Warn("Failed to index token for user", "error", err)
		} else if err := s.client.Do(ctx, s.client.B().Expire().Key(userKey).Seconds(int64(DefaultRefreshTokenTTL.Seconds())).Build()).Error(); err != nil {
			s.logger.Warn("Failed to set user index TTL", "error", err)
		}
	}

	return nil
}

func (s *ValkeyStore) load(ctx context.Context, key string, out any) error {
	encoded, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return fmt.Errorf("not found")
		}
		return fmt.Errorf("failed to read token entry: %w", err)
	}

	payload, err := s.encryption.Decrypt(encoded)
	if err != nil {
		return fmt.Errorf("failed to decrypt token entry: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode token entry: %w", err)
	}
	return nil
}
