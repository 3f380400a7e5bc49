package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore abstracts the key-value cache backing the blacklist. Get
// reports whether the key exists; Set writes a value with an expiry.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// redisStore implements TokenStore over go-redis. Every round trip is
// bounded by opTimeout so a stalled cache cannot stall the request path.
type redisStore struct {
	client    *redis.Client
	opTimeout time.Duration
}

const defaultStoreTimeout = 2 * time.Second

// NewRedisStore wraps an established Redis client. The client's lifecycle
// stays with the caller.
func NewRedisStore(client *redis.Client, opTimeout time.Duration) TokenStore {
	if opTimeout <= 0 {
		opTimeout = defaultStoreTimeout
	}
	return &redisStore{client: client, opTimeout: opTimeout}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}
