package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MrEthical07/credauth/internal/config"
	"github.com/MrEthical07/credauth/store"
	"github.com/MrEthical07/credauth/store/filestore"
	"github.com/MrEthical07/credauth/store/pgstore"
	"github.com/MrEthical07/credauth/store/redisstore"
	"github.com/MrEthical07/credauth/store/sqlitestore"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 10 * time.Second

// openBackend connects the configured credential store. The returned func
// releases its connections.
func openBackend(ctx context.Context, sc config.StoreConfig) (store.Backend, func() error, error) {
	noop := func() error { return nil }

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch sc.Kind {
	case config.StoreMemory:
		return store.NewMemoryBackend(), noop, nil

	case config.StoreFile:
		if dir := filepath.Dir(sc.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("file store: %w", err)
			}
		}
		b, err := filestore.New(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil

	case config.StoreRedis:
		opts, err := redis.ParseURL(sc.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		client := redis.NewClient(opts)
		b, err := redisstore.New(client, sc.RedisKey)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		if err := b.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return b, client.Close, nil

	case config.StorePostgres:
		b, db, err := pgstore.Open(ctx, sc.DSN, pgstore.Options{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, db.Close, nil

	case config.StoreSQLite:
		b, db, err := sqlitestore.Open(ctx, sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return b, db.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
}
