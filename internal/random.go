package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionHandle is the raw form of an opaque session handle.
type SessionHandle [16]byte

// NewSessionHandle draws 128 bits from crypto/rand.
func NewSessionHandle() (SessionHandle, error) {
	var h SessionHandle
	_, err := rand.Read(h[:])
	return h, err
}

func (h SessionHandle) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// ParseSessionHandle reverses [SessionHandle.String].
func ParseSessionHandle(s string) (SessionHandle, error) {
	var h SessionHandle

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, errors.New("invalid session handle size")
	}

	copy(h[:], raw)
	return h, nil
}
