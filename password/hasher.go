package password

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedDigest is returned by Verify when the stored digest cannot be parsed.
	ErrMalformedDigest = errors.New("malformed password digest")
	// ErrPasswordTooLong is returned by Hash when the primitive cannot accept the input.
	ErrPasswordTooLong = errors.New("password exceeds hasher input limit")
	// ErrUnsupportedDigest is returned when no registered verifier recognises the digest prefix.
	ErrUnsupportedDigest = errors.New("unsupported password digest")
)

// Hasher is the one-way hash and verify primitive used by the Engine.
//
// Verify reports (false, nil) for a wrong password and (false, err) when the digest
// itself is unusable; implementations must compare in constant time.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// Multi hashes with a primary Hasher and verifies any digest whose prefix it knows.
type Multi struct {
	primary *Bcrypt
	legacy  *Argon2
}

// NewMulti returns a Multi hashing with primary. legacy may be nil, in which case
// argon2id digests are reported as unsupported.
func NewMulti(primary *Bcrypt, legacy *Argon2) *Multi {
	return &Multi{primary: primary, legacy: legacy}
}

// Hash delegates to the primary hasher.
func (m *Multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

// Verify dispatches on the digest prefix.
func (m *Multi) Verify(plaintext, digest string) (bool, error) {
	switch {
	case isBcryptDigest(digest):
		return m.primary.Verify(plaintext, digest)
	case strings.HasPrefix(digest, "$"+algorithmID+"$"):
		if m.legacy == nil {
			return false, ErrUnsupportedDigest
		}
		return m.legacy.Verify(plaintext, digest)
	default:
		return false, ErrMalformedDigest
	}
}

// NeedsUpgrade reports whether digest was produced by a non-primary algorithm or
// with a lower bcrypt cost than currently configured.
func (m *Multi) NeedsUpgrade(digest string) (bool, error) {
	if !isBcryptDigest(digest) {
		return true, nil
	}
	return m.primary.NeedsUpgrade(digest)
}

func isBcryptDigest(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
