package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrInvalidSecret is returned when a secret is not valid base32.
	ErrInvalidSecret = errors.New("totp secret is not valid base32")
	// ErrMissingAccount is returned when a provisioning URI is requested without a label.
	ErrMissingAccount = errors.New("totp account label is required")
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config controls code shape and the acceptance window.
type Config struct {
	Issuer     string
	Digits     int
	Period     uint
	Skew       uint
	SecretSize uint
	Algorithm  string
}

// DefaultConfig returns SHA1, six digits, 30-second steps, one step of skew and
// 160-bit secrets.
func DefaultConfig() Config {
	return Config{
		Issuer:     "credauth",
		Digits:     6,
		Period:     30,
		Skew:       1,
		SecretSize: 20,
		Algorithm:  "SHA1",
	}
}

// Engine generates secrets, provisioning URIs and verifies codes.
//
// Engine is immutable after [New] and safe for concurrent use.
type Engine struct {
	cfg       Config
	digits    otp.Digits
	algorithm otp.Algorithm
	rand      io.Reader
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("totp issuer must not be empty")
	}
	if cfg.Digits != 6 && cfg.Digits != 8 {
		return nil, errors.New("totp digits must be 6 or 8")
	}
	if cfg.Period == 0 {
		return nil, errors.New("totp period must be > 0")
	}
	if cfg.SecretSize < 20 {
		return nil, errors.New("totp secret size must be >= 20 bytes")
	}
	alg, err := parseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		digits:    otp.Digits(cfg.Digits),
		algorithm: alg,
		rand:      rand.Reader,
	}, nil
}

// GenerateSecret returns SecretSize random bytes encoded as unpadded base32.
func (e *Engine) GenerateSecret() (string, error) {
	raw := make([]byte, e.cfg.SecretSize)
	if _, err := io.ReadFull(e.rand, raw); err != nil {
		return "", fmt.Errorf("read random secret: %w", err)
	}
	return secretEncoding.EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth://totp/ URI for secret and account.
func (e *Engine) ProvisioningURI(secret, account string) (string, error) {
	if account == "" {
		return "", ErrMissingAccount
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.cfg.Issuer,
		AccountName: account,
		Period:      e.cfg.Period,
		Secret:      raw,
		Digits:      e.digits,
		Algorithm:   e.algorithm,
	})
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// Verify reports whether code matches secret at now within the configured skew.
// Malformed secrets and codes of the wrong length verify false.
func (e *Engine) Verify(secret, code string, now time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != e.cfg.Digits || !isDigits(code) {
		return false
	}
	if _, err := decodeSecret(secret); err != nil {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, now.UTC(), e.validateOpts())
	return err == nil && ok
}

// Code returns the code for secret at t. Intended for tooling and tests; the
// server never needs to generate codes.
func (e *Engine) Code(secret string, t time.Time) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	return totp.GenerateCodeCustom(secret, t.UTC(), e.validateOpts())
}

// Period returns the step length.
func (e *Engine) Period() time.Duration {
	return time.Duration(e.cfg.Period) * time.Second
}

func (e *Engine) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    e.cfg.Period,
		Skew:      e.cfg.Skew,
		Digits:    e.digits,
		Algorithm: e.algorithm,
	}
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrInvalidSecret
	}
	raw, err := secretEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}
	return raw, nil
}

func parseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(name) {
	case "", "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	default:
		return 0, fmt.Errorf("unsupported totp algorithm %q", name)
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
