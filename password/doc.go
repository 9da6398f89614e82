// Package password hashes and verifies account passwords.
//
// New digests are produced with bcrypt at a fixed cost (10 by default):
//
//	$2a$10$<22-char salt><31-char hash>
//
// [Argon2] verifies PHC-encoded argon2id digests so records migrated from an
// argon2-based deployment keep working. [Multi] picks the verifier from the
// digest prefix and reports through [Multi.NeedsUpgrade] when a digest should be
// re-hashed with the primary algorithm.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Length rules for usernames and
// passwords are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive digests.
//   - Import any other credauth package.
//   - Log plaintext passwords or digests.
package password
