// Package redisstore keeps the user collection as one JSON value in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/credauth/store"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "credauth:users"

// Backend stores the whole collection under a single key, so SET replaces it
// atomically.
type Backend struct {
	redis redis.UniversalClient
	key   string
}

// New returns a backend on client. An empty key selects [DefaultKey].
func New(client redis.UniversalClient, key string) (*Backend, error) {
	if client == nil {
		return nil, errors.New("redisstore: client is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &Backend{redis: client, key: key}, nil
}

func (b *Backend) LoadAll(ctx context.Context) ([]store.User, error) {
	data, err := b.redis.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []store.User{}, nil
		}
		return nil, fmt.Errorf("redisstore: get %s: %w", b.key, err)
	}

	var users []store.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("redisstore: decode %s: %w", b.key, err)
	}
	return users, nil
}

func (b *Backend) SaveAll(ctx context.Context, users []store.User) error {
	if users == nil {
		users = []store.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("redisstore: encode: %w", err)
	}
	if err := b.redis.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", b.key, err)
	}
	return nil
}

// Ping checks connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx).Err()
}
