// Package sqlstore implements the whole-collection credential backend on
// database/sql. Driver registration and connection setup live in pgstore and
// sqlitestore.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credauth/internal/dbx"
	"github.com/MrEthical07/credauth/store"
	"github.com/MrEthical07/credauth/store/sqlstore/migrations"
	"github.com/pressly/goose/v3"
)

// Dialect selects placeholder syntax and the goose dialect.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) goose() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

const selectUsers = `SELECT id, username, password_hash, totp_secret, totp_enabled, created_at
FROM users
ORDER BY position`

const deleteUsers = `DELETE FROM users`

// Backend is a store.Backend over a *sql.DB.
type Backend struct {
	db      *sql.DB
	dialect Dialect
	insert  string
}

// New wraps db. Migrations must have been applied.
func New(db *sql.DB, dialect Dialect) (*Backend, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	return &Backend{db: db, dialect: dialect, insert: insertQuery(dialect)}, nil
}

func insertQuery(d Dialect) string {
	if d == SQLite {
		return `INSERT INTO users (position, id, username, password_hash, totp_secret, totp_enabled, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	}
	return `INSERT INTO users (position, id, username, password_hash, totp_secret, totp_enabled, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
}

func (b *Backend) LoadAll(ctx context.Context) ([]store.User, error) {
	return loadAll(ctx, b.db)
}

func loadAll(ctx context.Context, db dbx.DBTX) ([]store.User, error) {
	rows, err := db.QueryContext(ctx, selectUsers)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []store.User{}
	for rows.Next() {
		var (
			u       store.User
			created int64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.TOTPSecret, &u.TOTPEnabled, &created); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.CreatedAt = time.UnixMilli(created).UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// SaveAll deletes every row and re-inserts users in order inside one transaction.
func (b *Backend) SaveAll(ctx context.Context, users []store.User) error {
	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, deleteUsers); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for i, u := range users {
			_, err := tx.ExecContext(ctx, b.insert,
				i, u.ID, u.Username, u.PasswordHash, u.TOTPSecret, u.TOTPEnabled, u.CreatedAt.UnixMilli())
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

// Ping checks connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations for dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect.goose()); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
