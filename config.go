package credauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/totp"
)

// Config is the full Engine configuration. Start from DefaultConfig and
// override fields; Build calls Validate.
type Config struct {
	Session  SessionConfig
	Password PasswordConfig
	TOTP     TOTPConfig
	Account  AccountConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig holds the two server-side timers and the transport cookie.
//
// IdleTimeout and AbsoluteTimeout are independent. CookieTTL only bounds the
// lifetime of the signed cookie token; the server-side timers decide expiry.
type SessionConfig struct {
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	SweepInterval   time.Duration

	CookieName     string
	CookieTTL      time.Duration
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// Secret signs cookie tokens. It must be supplied by the deployment.
	Secret []byte
	Issuer string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the bcrypt cost and whether argon2id digests are still
// accepted at login.
type PasswordConfig struct {
	BcryptCost         int
	AcceptLegacyArgon2 bool
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig mirrors totp.Config plus the QR rendering size. Period and Skew
// are pinned to 30 seconds and one step; Validate rejects anything else.
type TOTPConfig struct {
	Issuer     string
	Digits     int
	Period     uint
	Skew       uint
	SecretSize uint
	Algorithm  string
	QRCodeSize int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig bounds username and password lengths, counted in characters.
type AccountConfig struct {
	MinUsernameLength int
	MaxUsernameLength int
	MinPasswordLength int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: 5 minute idle and 30 minute
// absolute timers, a cookie that lives as long as the absolute timer, bcrypt
// cost 10 and standard six-digit TOTP with one step of skew. Secret is left
// empty and must be set before Build.
func DefaultConfig() Config {
	tc := totp.DefaultConfig()
	return Config{
		Session: SessionConfig{
			IdleTimeout:     5 * time.Minute,
			AbsoluteTimeout: 30 * time.Minute,
			SweepInterval:   time.Minute,
			CookieName:      "credauth_session",
			CookieTTL:       30 * time.Minute,
			CookiePath:      "/",
			CookieSecure:    true,
			CookieSameSite:  http.SameSiteStrictMode,
			Issuer:          "credauth",
		},
		Password: PasswordConfig{
			BcryptCost:         password.DefaultBcryptCost,
			AcceptLegacyArgon2: false,
		},
		TOTP: TOTPConfig{
			Issuer:     tc.Issuer,
			Digits:     tc.Digits,
			Period:     tc.Period,
			Skew:       tc.Skew,
			SecretSize: tc.SecretSize,
			Algorithm:  tc.Algorithm,
			QRCodeSize: totp.DefaultQRSize,
		},
		Account: AccountConfig{
			MinUsernameLength: 3,
			MaxUsernameLength: 64,
			MinPasswordLength: 3,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: false,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.Secret = append([]byte(nil), cfg.Session.Secret...)
	return out
}

func (c TOTPConfig) engineConfig() totp.Config {
	return totp.Config{
		Issuer:     c.Issuer,
		Digits:     c.Digits,
		Period:     c.Period,
		Skew:       c.Skew,
		SecretSize: c.SecretSize,
		Algorithm:  c.Algorithm,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	// Session
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be > 0")
	}
	if c.Session.AbsoluteTimeout <= 0 {
		return errors.New("Session AbsoluteTimeout must be > 0")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session SweepInterval must be >= 0")
	}
	if c.Session.CookieTTL <= 0 {
		return errors.New("Session CookieTTL must be > 0")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must be set")
	}
	if len(c.Session.Secret) < jwt.MinSecretLength {
		return fmt.Errorf("Session Secret must be at least %d bytes", jwt.MinSecretLength)
	}

	// Password
	if c.Password.BcryptCost < password.MinBcryptCost || c.Password.BcryptCost > password.MaxBcryptCost {
		return fmt.Errorf("Password BcryptCost must be within [%d, %d]", password.MinBcryptCost, password.MaxBcryptCost)
	}

	// TOTP
	std := totp.DefaultConfig()
	if c.TOTP.Period != std.Period {
		return fmt.Errorf("TOTP Period must be %d seconds", std.Period)
	}
	if c.TOTP.Skew != std.Skew {
		return fmt.Errorf("TOTP Skew must be %d step", std.Skew)
	}
	if _, err := totp.New(c.TOTP.engineConfig()); err != nil {
		return fmt.Errorf("TOTP: %w", err)
	}
	if c.TOTP.QRCodeSize <= 0 {
		return errors.New("TOTP QRCodeSize must be > 0")
	}

	// Account
	if c.Account.MinUsernameLength < 1 || c.Account.MinPasswordLength < 1 {
		return errors.New("Account minimum lengths must be >= 1")
	}
	if c.Account.MaxUsernameLength < c.Account.MinUsernameLength {
		return errors.New("Account MaxUsernameLength must be >= MinUsernameLength")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintSeverity ranks lint findings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
)

func (s LintSeverity) String() string {
	if s == LintWarn {
		return "warn"
	}
	return "info"
}

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// Lint reports valid but contradictory or risky settings. It never fails.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	s := c.Session
	if s.CookieTTL < s.AbsoluteTimeout {
		add("cookie_ttl_shorter_than_absolute", LintWarn,
			"cookie TTL %s ends sessions before the %s absolute timeout; clients see a logout, not an expiry", s.CookieTTL, s.AbsoluteTimeout)
	}
	if s.CookieTTL < s.IdleTimeout {
		add("cookie_ttl_shorter_than_idle", LintWarn,
			"cookie TTL %s is shorter than the %s idle timeout", s.CookieTTL, s.IdleTimeout)
	}
	if s.CookieTTL > s.AbsoluteTimeout {
		add("cookie_ttl_longer_than_absolute", LintInfo,
			"cookie TTL %s outlives the %s absolute timeout", s.CookieTTL, s.AbsoluteTimeout)
	}
	if s.IdleTimeout >= s.AbsoluteTimeout {
		add("idle_not_shorter_than_absolute", LintWarn,
			"idle timeout %s never fires before the %s absolute timeout", s.IdleTimeout, s.AbsoluteTimeout)
	}
	if s.SweepInterval == 0 {
		add("sweeper_disabled", LintInfo, "expired sessions are only removed when touched")
	}
	if !s.CookieSecure {
		add("cookie_insecure", LintWarn, "session cookie is sent over plain HTTP")
	}
	if s.CookieSameSite == http.SameSiteNoneMode && !s.CookieSecure {
		add("samesite_none_insecure", LintWarn, "SameSite=None requires the Secure attribute")
	}

	if c.Password.BcryptCost < password.DefaultBcryptCost {
		add("bcrypt_cost_low", LintWarn, "bcrypt cost %d is below %d", c.Password.BcryptCost, password.DefaultBcryptCost)
	}
	if c.Account.MinPasswordLength < 8 {
		add("password_min_length_short", LintInfo, "minimum password length %d", c.Account.MinPasswordLength)
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "security events are not recorded")
	} else if c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}

	return ws
}
