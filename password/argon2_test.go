package password

import (
	"errors"
	"strings"
	"testing"
)

func lightArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	digest, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", digest)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", digest)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("wrong-password", digest)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestArgon2ShortPasswordAccepted(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if _, err := hasher.Hash("abc"); err != nil {
		t.Fatalf("expected length policy to be left to the caller, got %v", err)
	}
}

func TestArgon2VerifyMalformedDigest(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	cases := []string{
		"not-a-phc-hash",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
	}
	for _, digest := range cases {
		ok, err := hasher.Verify("password", digest)
		if ok {
			t.Fatalf("expected %q to fail verification", digest)
		}
		if !errors.Is(err, ErrMalformedDigest) {
			t.Fatalf("expected ErrMalformedDigest for %q, got %v", digest, err)
		}
	}
}

func TestArgon2ConfigValidation(t *testing.T) {
	cfg := lightArgon2Config()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected low memory to be rejected")
	}

	cfg = lightArgon2Config()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}
