package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MrEthical07/credauth/store"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectRe = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*totp_secret,\s*totp_enabled,\s*created_at\s+FROM\s+users\s+ORDER\s+BY\s+position$`
	deleteRe = `^DELETE\s+FROM\s+users$`
	insertRe = `(?s)^INSERT\s+INTO\s+users\s*\(position,\s*id,\s*username,\s*password_hash,\s*totp_secret,\s*totp_enabled,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`
)

func newBackendWithMock(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b, err := New(db, Postgres)
	require.NoError(t, err)
	return b, mock
}

func TestLoadAll_Success(t *testing.T) {
	b, mock := newBackendWithMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "totp_enabled", "created_at"}).
		AddRow("u-1", "alice", "h1", "", false, created.UnixMilli()).
		AddRow("u-2", "bob", "h2", "JBSWY3DPEHPK3PXP", true, created.UnixMilli())
	mock.ExpectQuery(selectRe).WillReturnRows(rows)

	users, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.True(t, users[1].TOTPEnabled)
	assert.True(t, users[1].CreatedAt.Equal(created))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAll_EmptyTable(t *testing.T) {
	b, mock := newBackendWithMock(t)
	mock.ExpectQuery(selectRe).WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "totp_enabled", "created_at"}))

	users, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestLoadAll_DBError(t *testing.T) {
	b, mock := newBackendWithMock(t)
	mock.ExpectQuery(selectRe).WillReturnError(errors.New("db down"))

	_, err := b.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestSaveAll_ReplacesInOneTransaction(t *testing.T) {
	b, mock := newBackendWithMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(deleteRe).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(insertRe).
		WithArgs(0, "u-1", "alice", "h1", "", false, created.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRe).
		WithArgs(1, "u-2", "bob", "h2", "S", true, created.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := b.SaveAll(context.Background(), []store.User{
		{ID: "u-1", Username: "alice", PasswordHash: "h1", CreatedAt: created},
		{ID: "u-2", Username: "bob", PasswordHash: "h2", TOTPSecret: "S", TOTPEnabled: true, CreatedAt: created},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAll_RollsBackOnInsertError(t *testing.T) {
	b, mock := newBackendWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRe).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := b.SaveAll(context.Background(), []store.User{{ID: "u-1", Username: "alice", PasswordHash: "h"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique violation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAll_BeginError(t *testing.T) {
	b, mock := newBackendWithMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	require.Error(t, b.SaveAll(context.Background(), nil))
}

func TestNew_RequiresDB(t *testing.T) {
	_, err := New(nil, Postgres)
	require.Error(t, err)
}

func TestInsertQueryPlaceholders(t *testing.T) {
	assert.Contains(t, insertQuery(Postgres), "$7")
	assert.Contains(t, insertQuery(SQLite), "?, ?, ?, ?, ?, ?, ?")
	assert.Equal(t, "pgx", Postgres.goose())
	assert.Equal(t, "sqlite3", SQLite.goose())
}

func TestMigrate_UsesSeam(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db, Postgres))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.EqualError(t, Migrate(context.Background(), db, Postgres), "boom")
}
