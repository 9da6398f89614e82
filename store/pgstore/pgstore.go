// Package pgstore opens a PostgreSQL credential backend through the pgx
// database/sql driver and applies the goose migrations.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credauth/store/sqlstore"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Options tunes the connection pool. Zero values keep database/sql defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to dsn, pings, migrates and returns the backend together with
// the pool so the caller can close it at shutdown.
func Open(ctx context.Context, dsn string, opts Options) (*sqlstore.Backend, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, errors.New("pgstore: dsn is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: open: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if err := sqlstore.Migrate(ctx, db, sqlstore.Postgres); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pgstore: migrate: %w", err)
	}

	backend, err := sqlstore.New(db, sqlstore.Postgres)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return backend, db, nil
}
