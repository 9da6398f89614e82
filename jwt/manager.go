package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 32

// ErrInvalidToken is returned by Parse for every rejected token. The cause is
// wrapped for logging but callers should only branch on this sentinel.
var ErrInvalidToken = errors.New("invalid session token")

// Config defines the signing parameters of a Manager.
type Config struct {
	// Secret signs new tokens. It must be at least MinSecretLength bytes.
	Secret []byte
	// TTL bounds the token lifetime (exp = issue time + TTL).
	TTL    time.Duration
	Issuer string
	Leeway time.Duration

	// KeyID is written to the kid header when set. VerifyKeys lets tokens
	// signed with retired secrets keep verifying during rotation; when it is
	// non-empty the kid header is mandatory.
	KeyID      string
	VerifyKeys map[string][]byte

	// Now overrides the clock for issuance and expiry checks.
	Now func() time.Time
}

// Claims is the payload of a session cookie token.
type Claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues and parses session cookie tokens. It is immutable after
// NewManager and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session token secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if len(key) < MinSecretLength {
			return nil, fmt.Errorf("verify key %q is shorter than %d bytes", kid, MinSecretLength)
		}
	}
	if len(cfg.VerifyKeys) > 0 {
		if cfg.KeyID == "" {
			return nil, errors.New("KeyID is required when VerifyKeys is set")
		}
		current, ok := cfg.VerifyKeys[cfg.KeyID]
		if !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
		if !bytes.Equal(current, cfg.Secret) {
			return nil, errors.New("VerifyKeys[KeyID] must equal Secret")
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	return &Manager{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (j *Manager) TTL() time.Duration {
	return j.config.TTL
}

// Issue signs a token for sid and returns it with its expiry.
func (j *Manager) Issue(sid string) (string, time.Time, error) {
	if sid == "" {
		return "", time.Time{}, errors.New("session id is required")
	}

	now := j.config.Now()
	expires := now.Add(j.config.TTL)
	claims := Claims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signed, err := token.SignedString(j.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse verifies tokenStr and returns the session handle it carries.
func (j *Manager) Parse(tokenStr string) (string, error) {
	claims, err := j.ParseClaims(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.SID, nil
}

// ParseClaims verifies tokenStr and returns its claims. Any failure is
// reported as ErrInvalidToken.
func (j *Manager) ParseClaims(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.config.Now),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, j.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SID == "" {
		return nil, fmt.Errorf("%w: missing sid", ErrInvalidToken)
	}
	return claims, nil
}

func (j *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(j.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := j.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}

	if j.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != j.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	return j.config.Secret, nil
}
