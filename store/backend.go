package store

import (
	"context"
	"slices"
	"sync"
)

// Backend persists the complete user collection. SaveAll replaces everything
// previously stored; implementations must not leave a partial write visible.
type Backend interface {
	LoadAll(ctx context.Context) ([]User, error)
	SaveAll(ctx context.Context, users []User) error
}

// MemoryBackend keeps the collection in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	users []User
	err   error
}

// NewMemoryBackend returns a backend seeded with users.
func NewMemoryBackend(users ...User) *MemoryBackend {
	return &MemoryBackend{users: slices.Clone(users)}
}

func (b *MemoryBackend) LoadAll(context.Context) ([]User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.err != nil {
		return nil, b.err
	}
	return slices.Clone(b.users), nil
}

func (b *MemoryBackend) SaveAll(_ context.Context, users []User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.users = slices.Clone(users)
	return nil
}

// FailWith makes every subsequent call return err. A nil err restores normal
// behaviour. Used to exercise infrastructure failure paths.
func (b *MemoryBackend) FailWith(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}
