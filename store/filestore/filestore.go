// Package filestore keeps the user collection in a single JSON file.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MrEthical07/credauth/store"
)

// Backend reads and writes a JSON array of users at Path.
//
// A missing or empty file is an empty collection. Writes go to a temporary file in
// the same directory which is synced and renamed over Path, so readers observe
// either the old or the new collection.
type Backend struct {
	path string
}

// New returns a backend for path. The file is created on first SaveAll.
func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	return &Backend{path: path}, nil
}

// Path returns the backing file.
func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) LoadAll(ctx context.Context) ([]store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []store.User{}, nil
		}
		return nil, fmt.Errorf("filestore: read %s: %w", b.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []store.User{}, nil
	}

	var users []store.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", b.path, err)
	}
	return users, nil
}

func (b *Backend) SaveAll(ctx context.Context, users []store.User) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if users == nil {
		users = []store.User{}
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("filestore: chmod temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", b.path, err)
	}
	return nil
}
