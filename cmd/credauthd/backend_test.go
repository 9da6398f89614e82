package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/credauth/internal/config"
	"github.com/MrEthical07/credauth/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()

	s := store.New(b)
	_, err := s.Create(ctx, "alice", "$2a$10$digest")
	require.NoError(t, err)

	u, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestOpenBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		sc   config.StoreConfig
	}{
		{"memory", config.StoreConfig{Kind: config.StoreMemory}},
		{"file", config.StoreConfig{Kind: config.StoreFile, Path: filepath.Join(t.TempDir(), "nested", "users.json")}},
		{"sqlite", config.StoreConfig{Kind: config.StoreSQLite, DSN: filepath.Join(t.TempDir(), "users.db")}},
		{"redis", config.StoreConfig{Kind: config.StoreRedis, DSN: "redis://" + mr.Addr() + "/0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, closeFn, err := openBackend(context.Background(), tt.sc)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeFn()) }()

			roundTrip(t, b)
		})
	}
}

func TestOpenBackendUnknownKind(t *testing.T) {
	_, _, err := openBackend(context.Background(), config.StoreConfig{Kind: "etcd"})
	require.Error(t, err)
}

func TestOpenBackendBadRedisURL(t *testing.T) {
	_, _, err := openBackend(context.Background(), config.StoreConfig{Kind: config.StoreRedis, DSN: "not a url"})
	require.Error(t, err)
}
