package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/qubras-auth/internal/model"
)

// SessionCache implements model.SessionCache backed by Redis.
type SessionCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ model.SessionCache = (*SessionCache)(nil)

// NewSessionCache constructs a Redis-backed session cache. Keys are
// namespaced under prefix; ttl bounds how long a persisted session survives.
func NewSessionCache(client redis.UniversalClient, prefix string, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, prefix: prefix, ttl: ttl}
}

type sessionRecord struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	SubjectID    uuid.UUID          `json:"subject_id"`
	ExpiresAt    time.Time          `json:"expires_at"`
	UserID       uuid.UUID          `json:"user_id"`
	Email        string             `json:"email"`
	Metadata     model.UserMetadata `json:"metadata"`
}

func (c *SessionCache) sessionKey() string  { return c.prefix + ":session" }
func (c *SessionCache) verifierKey() string { return c.prefix + ":pkce" }

// Load returns the persisted session, or nil when none is stored.
func (c *SessionCache) Load(ctx context.Context) (*model.Session, error) {
	raw, err := c.client.Get(ctx, c.sessionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &model.Session{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		SubjectID:    rec.SubjectID,
		ExpiresAt:    rec.ExpiresAt,
		User: model.User{
			ID:       rec.UserID,
			Email:    rec.Email,
			Metadata: rec.Metadata,
		},
	}, nil
}

// Save persists session, replacing any previous one.
func (c *SessionCache) Save(ctx context.Context, session *model.Session) error {
	if session == nil {
		return c.Delete(ctx)
	}

	payload, err := json.Marshal(sessionRecord{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		SubjectID:    session.SubjectID,
		ExpiresAt:    session.ExpiresAt,
		UserID:       session.User.ID,
		Email:        session.User.Email,
		Metadata:     session.User.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := c.client.Set(ctx, c.sessionKey(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Delete removes the persisted session.
func (c *SessionCache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, c.sessionKey()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SaveVerifier stores the PKCE code verifier of a pending redirect flow.
func (c *SessionCache) SaveVerifier(ctx context.Context, verifier string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.verifierKey(), verifier, ttl).Err(); err != nil {
		return fmt.Errorf("persist code verifier: %w", err)
	}
	return nil
}

// TakeVerifier returns and removes the stored code verifier.
func (c *SessionCache) TakeVerifier(ctx context.Context) (string, error) {
	verifier, err := c.client.GetDel(ctx, c.verifierKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("load code verifier: %w", err)
	}
	return verifier, nil
}
