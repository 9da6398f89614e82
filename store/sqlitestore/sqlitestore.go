// Package sqlitestore opens a SQLite credential backend on the pure-Go
// modernc.org/sqlite driver and applies the goose migrations.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/credauth/store/sqlstore"
	_ "modernc.org/sqlite"
)

// Open opens dsn (a file path, a file: URI or ":memory:"), migrates it and
// returns the backend and the handle. The pool is limited to one connection so
// in-memory databases are shared and writers never hit SQLITE_BUSY.
func Open(ctx context.Context, dsn string) (*sqlstore.Backend, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, errors.New("sqlitestore: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlitestore: pragma: %w", err)
	}
	if err := sqlstore.Migrate(ctx, db, sqlstore.SQLite); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}

	backend, err := sqlstore.New(db, sqlstore.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return backend, db, nil
}
