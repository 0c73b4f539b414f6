package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/redis"
)

// SessionStore persists checkout contexts between requests.
type SessionStore interface {
	// Load returns (nil, nil) when the shopper has no session.
	Load(ctx context.Context, userID uuid.UUID) (*Context, error)
	Save(ctx context.Context, c *Context) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type sessionClient interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	CheckoutSessionKey(userID string) string
}

type redisSessionStore struct {
	client sessionClient
	ttl    time.Duration
}

// NewRedisSessionStore stores sessions as JSON with a sliding TTL renewed on every load and save.
func NewRedisSessionStore(client sessionClient, ttl time.Duration) (SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &redisSessionStore{client: client, ttl: ttl}, nil
}

func (s *redisSessionStore) Load(ctx context.Context, userID uuid.UUID) (*Context, error) {
	key := s.client.CheckoutSessionKey(userID.String())
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	var c Context
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if _, err := s.client.Touch(ctx, key, s.ttl); err != nil {
		return nil, fmt.Errorf("renew checkout session: %w", err)
	}
	return &c, nil
}

func (s *redisSessionStore) Save(ctx context.Context, c *Context) error {
	if c == nil {
		return fmt.Errorf("checkout session required")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CheckoutSessionKey(c.UserID.String()), payload, s.ttl); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CheckoutSessionKey(userID.String())); err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}
