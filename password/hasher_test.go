package password

import (
	"errors"
	"testing"
)

func TestMultiVerifiesBothFormats(t *testing.T) {
	legacy, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	m := NewMulti(newTestBcrypt(t), legacy)

	bcryptDigest, err := m.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	argonDigest, err := legacy.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	for _, digest := range []string{bcryptDigest, argonDigest} {
		ok, err := m.Verify("password123", digest)
		if err != nil || !ok {
			t.Fatalf("Verify(%s) ok=%v err=%v", digest[:8], ok, err)
		}
	}

	upgrade, err := m.NeedsUpgrade(argonDigest)
	if err != nil || !upgrade {
		t.Fatalf("expected argon2 digest to need upgrade, got %v err=%v", upgrade, err)
	}
	upgrade, err = m.NeedsUpgrade(bcryptDigest)
	if err != nil || upgrade {
		t.Fatalf("expected bcrypt digest to be current, got %v err=%v", upgrade, err)
	}
}

func TestMultiUnknownDigest(t *testing.T) {
	m := NewMulti(newTestBcrypt(t), nil)

	if _, err := m.Verify("x", "plaintext-stored-by-mistake"); !errors.Is(err, ErrMalformedDigest) {
		t.Fatalf("expected ErrMalformedDigest, got %v", err)
	}
	if _, err := m.Verify("x", "$argon2id$v=19$m=8192,t=1,p=1$a$b"); !errors.Is(err, ErrUnsupportedDigest) {
		t.Fatalf("expected ErrUnsupportedDigest without legacy verifier, got %v", err)
	}
}

var _ Hasher = (*Bcrypt)(nil)
var _ Hasher = (*Argon2)(nil)
var _ Hasher = (*Multi)(nil)
