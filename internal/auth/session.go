// Package auth owns accounts and sessions. Registration and login issue
// opaque bearer tokens backed by Redis; everything downstream sees only a
// resolved Principal.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bizmatch/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps sessions in Redis keyed by token, expiring with the
// session TTL so stale entries clean themselves up.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Create issues a fresh random token for the principal and stores the session
// under it.
func (s *SessionStore) Create(ctx context.Context, principal models.Principal) (*models.Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:      hex.EncodeToString(buf),
		UserID:     principal.UserID,
		BusinessID: principal.BusinessID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.Token), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Get resolves a token to its session. Unknown and expired tokens both
// return nil without error; the caller turns that into an auth failure.
func (s *SessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.IsExpired() {
		return nil, nil
	}
	return &session, nil
}

// Delete revokes a token. Revoking an unknown token is a no-op.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
