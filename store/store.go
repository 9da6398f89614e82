package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no record matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned by Create when the username is taken.
	ErrDuplicateUser = errors.New("user already exists")
)

// CredentialStore serializes whole-collection reads and writes against a Backend.
type CredentialStore struct {
	mu      sync.Mutex
	backend Backend
	newID   func() (string, error)
	now     func() time.Time
}

// Option customizes a CredentialStore.
type Option func(*CredentialStore)

// WithIDGenerator replaces the UUIDv7 id source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *CredentialStore) { s.newID = fn }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(fn func() time.Time) Option {
	return func(s *CredentialStore) { s.now = fn }
}

// New wraps backend.
func New(backend Backend, opts ...Option) *CredentialStore {
	s := &CredentialStore{
		backend: backend,
		newID:   newUUIDv7,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FindByUsername returns the user with exactly this username.
func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.find(ctx, func(u User) bool { return u.Username == username })
}

// FindByID returns the user with this id.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.find(ctx, func(u User) bool { return u.ID == id })
}

func (s *CredentialStore) find(ctx context.Context, match func(User) bool) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// Create appends a new user with TOTP disabled. The duplicate check and the
// write happen under one lock acquisition.
func (s *CredentialStore) Create(ctx context.Context, username, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return User{}, ErrDuplicateUser
		}
	}

	id, err := s.newID()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}
	for _, u := range users {
		if u.ID == id {
			return User{}, fmt.Errorf("generate user id: collision on %s", id)
		}
	}

	user := User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return User{}, err
	}

	if err := s.save(ctx, append(users, user)); err != nil {
		return User{}, err
	}
	return user, nil
}

// Update replaces the stored record with the same id. Username is immutable and
// is carried over from the stored record.
func (s *CredentialStore) Update(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range users {
		if users[i].ID == user.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUserNotFound
	}

	user.Username = users[idx].Username
	user.CreatedAt = users[idx].CreatedAt
	if err := user.Validate(); err != nil {
		return err
	}
	users[idx] = user

	return s.save(ctx, users)
}

// Count returns the number of stored users.
func (s *CredentialStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (s *CredentialStore) load(ctx context.Context) ([]User, error) {
	users, err := s.backend.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

func (s *CredentialStore) save(ctx context.Context, users []User) error {
	if err := s.backend.SaveAll(ctx, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
