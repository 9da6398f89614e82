package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/credauth/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	return b
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestLoadAll_MissingFileIsEmpty(t *testing.T) {
	b := newBackend(t)
	users, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLoadAll_EmptyFileIsEmpty(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, os.WriteFile(b.Path(), []byte("  \n"), 0o600))

	users, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLoadAll_CorruptFileIsError(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, os.WriteFile(b.Path(), []byte("{not json"), 0o600))

	_, err := b.LoadAll(context.Background())
	require.Error(t, err)
}

const numericIDFixture = `[
  {
    "id": 1712345678901,
    "username": "alice",
    "passwordHash": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
    "twoFactorSecret": null,
    "isTwoFactorEnabled": false
  },
  {
    "id": 1712345679999,
    "username": "bob",
    "passwordHash": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
    "twoFactorSecret": "JBSWY3DPEHPK3PXP",
    "isTwoFactorEnabled": true
  }
]`

func TestLoadAll_NumericIDs(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, os.WriteFile(b.Path(), []byte(numericIDFixture), 0o600))

	users, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "1712345678901", users[0].ID)
	assert.Equal(t, "alice", users[0].Username)
	assert.Empty(t, users[0].TOTPSecret)
	assert.False(t, users[0].TOTPEnabled)
	assert.True(t, users[0].CreatedAt.IsZero())

	assert.Equal(t, "1712345679999", users[1].ID)
	assert.True(t, users[1].TOTPEnabled)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", users[1].TOTPSecret)
	for _, u := range users {
		assert.NoError(t, u.Validate())
	}
}

func TestLoadAll_FractionalIDIsError(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, os.WriteFile(b.Path(), []byte(`[{"id": 1.5, "username": "alice", "passwordHash": "h"}]`), 0o600))

	_, err := b.LoadAll(context.Background())
	require.Error(t, err)
}

func TestCredentialStoreOverNumericIDFile(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, os.WriteFile(b.Path(), []byte(numericIDFixture), 0o600))
	ctx := context.Background()
	cs := store.New(b)

	alice, err := cs.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1712345678901", alice.ID)

	alice.EnableTOTP("KRSXG5CTMVRXEZLU")
	require.NoError(t, cs.Update(ctx, alice))

	carol, err := cs.Create(ctx, "carol", "h3")
	require.NoError(t, err)

	users, err := b.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "1712345678901", users[0].ID)
	assert.True(t, users[0].TOTPEnabled)
	assert.Equal(t, carol.ID, users[2].ID)
}

func TestSaveAll_RoundTripPreservesOrder(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	in := []store.User{
		{ID: "2", Username: "bob", PasswordHash: "h2", CreatedAt: created},
		{ID: "1", Username: "alice", PasswordHash: "h1", TOTPSecret: "JBSWY3DPEHPK3PXP", TOTPEnabled: true, CreatedAt: created},
	}
	require.NoError(t, b.SaveAll(ctx, in))

	out, err := b.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	info, err := os.Stat(b.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveAll_LeavesNoTempFiles(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.SaveAll(ctx, []store.User{{ID: "1", Username: "alice", PasswordHash: "h"}}))
	}

	entries, err := os.ReadDir(filepath.Dir(b.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.json", entries[0].Name())
}

func TestSaveAll_NilWritesEmptyArray(t *testing.T) {
	b := newBackend(t)
	require.NoError(t, b.SaveAll(context.Background(), nil))

	data, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWithCredentialStore(t *testing.T) {
	b := newBackend(t)
	s := store.New(b)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "digest")
	require.NoError(t, err)

	reopened, err := New(b.Path())
	require.NoError(t, err)
	got, err := store.New(reopened).FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestCanceledContext(t *testing.T) {
	b := newBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.SaveAll(ctx, nil), context.Canceled)
}
