// Package store is the credential store: the durable mapping from username to
// password digest and TOTP enrollment state.
//
// Every operation loads the whole user collection from a [Backend], works on it,
// and writes the whole collection back. The backend is the single source of truth;
// [CredentialStore] keeps no cache between calls. One mutex serializes every
// load-modify-save so duplicate checks and enrollment updates are atomic with
// respect to other writers on the same store.
//
// Backends live in sub-packages:
//
//   - filestore: JSON array file, replaced atomically via rename
//   - redisstore: JSON array under a single Redis key
//   - sqlstore: database/sql implementation shared by pgstore and sqlitestore
//   - pgstore: PostgreSQL through pgx with goose migrations
//   - sqlitestore: SQLite through modernc.org/sqlite with goose migrations
//
// [MemoryBackend] is provided for tests and ephemeral deployments.
package store
