package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the TOML layout. Durations are written as "5m", "30s".
type fileConfig struct {
	Addr            string        `toml:"addr"`
	LogLevel        string        `toml:"log_level"`
	LogFormat       string        `toml:"log_format"`
	AuditFile       string        `toml:"audit_file"`
	StaticDir       string        `toml:"static_dir"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	Store struct {
		Kind     string `toml:"kind"`
		Path     string `toml:"path"`
		DSN      string `toml:"dsn"`
		RedisKey string `toml:"redis_key"`
	} `toml:"store"`

	Session struct {
		IdleTimeout     time.Duration `toml:"idle_timeout"`
		AbsoluteTimeout time.Duration `toml:"absolute_timeout"`
		SweepInterval   time.Duration `toml:"sweep_interval"`
		CookieName      string        `toml:"cookie_name"`
		CookieTTL       time.Duration `toml:"cookie_ttl"`
		CookiePath      string        `toml:"cookie_path"`
		CookieSecure    bool          `toml:"cookie_secure"`
		CookieSameSite  string        `toml:"cookie_same_site"`
		Secret          string        `toml:"secret"`
		Issuer          string        `toml:"issuer"`
	} `toml:"session"`

	Password struct {
		BcryptCost         int  `toml:"bcrypt_cost"`
		AcceptLegacyArgon2 bool `toml:"accept_legacy_argon2"`
	} `toml:"password"`

	TOTP struct {
		Issuer     string `toml:"issuer"`
		Digits     int    `toml:"digits"`
		Period     uint   `toml:"period"`
		Skew       uint   `toml:"skew"`
		SecretSize uint   `toml:"secret_size"`
		Algorithm  string `toml:"algorithm"`
		QRCodeSize int    `toml:"qr_code_size"`
	} `toml:"totp"`

	Account struct {
		MinUsernameLength int `toml:"min_username_length"`
		MaxUsernameLength int `toml:"max_username_length"`
		MinPasswordLength int `toml:"min_password_length"`
	} `toml:"account"`

	Audit struct {
		Enabled    bool `toml:"enabled"`
		BufferSize int  `toml:"buffer_size"`
		DropIfFull bool `toml:"drop_if_full"`
	} `toml:"audit"`

	Metrics struct {
		Enabled           bool `toml:"enabled"`
		LatencyHistograms bool `toml:"latency_histograms"`
	} `toml:"metrics"`
}

// applyFile overlays the TOML file at path onto cfg. Keys missing from the file
// keep their current values; unknown keys are an error.
func applyFile(cfg *Config, path string) error {
	fc := toFile(*cfg)

	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return fromFile(cfg, fc)
}

func toFile(c Config) fileConfig {
	var fc fileConfig
	fc.Addr = c.Addr
	fc.LogLevel = c.LogLevel
	fc.LogFormat = c.LogFormat
	fc.AuditFile = c.AuditFile
	fc.StaticDir = c.StaticDir
	fc.ShutdownTimeout = c.ShutdownTimeout

	fc.Store.Kind = c.Store.Kind
	fc.Store.Path = c.Store.Path
	fc.Store.DSN = c.Store.DSN
	fc.Store.RedisKey = c.Store.RedisKey

	s := c.Auth.Session
	fc.Session.IdleTimeout = s.IdleTimeout
	fc.Session.AbsoluteTimeout = s.AbsoluteTimeout
	fc.Session.SweepInterval = s.SweepInterval
	fc.Session.CookieName = s.CookieName
	fc.Session.CookieTTL = s.CookieTTL
	fc.Session.CookiePath = s.CookiePath
	fc.Session.CookieSecure = s.CookieSecure
	fc.Session.CookieSameSite = formatSameSite(s.CookieSameSite)
	fc.Session.Secret = string(s.Secret)
	fc.Session.Issuer = s.Issuer

	fc.Password.BcryptCost = c.Auth.Password.BcryptCost
	fc.Password.AcceptLegacyArgon2 = c.Auth.Password.AcceptLegacyArgon2

	t := c.Auth.TOTP
	fc.TOTP.Issuer = t.Issuer
	fc.TOTP.Digits = t.Digits
	fc.TOTP.Period = t.Period
	fc.TOTP.Skew = t.Skew
	fc.TOTP.SecretSize = t.SecretSize
	fc.TOTP.Algorithm = t.Algorithm
	fc.TOTP.QRCodeSize = t.QRCodeSize

	fc.Account.MinUsernameLength = c.Auth.Account.MinUsernameLength
	fc.Account.MaxUsernameLength = c.Auth.Account.MaxUsernameLength
	fc.Account.MinPasswordLength = c.Auth.Account.MinPasswordLength

	fc.Audit.Enabled = c.Auth.Audit.Enabled
	fc.Audit.BufferSize = c.Auth.Audit.BufferSize
	fc.Audit.DropIfFull = c.Auth.Audit.DropIfFull

	fc.Metrics.Enabled = c.Auth.Metrics.Enabled
	fc.Metrics.LatencyHistograms = c.Auth.Metrics.EnableLatencyHistograms
	return fc
}

func fromFile(c *Config, fc fileConfig) error {
	sameSite, err := parseSameSite(fc.Session.CookieSameSite)
	if err != nil {
		return err
	}

	c.Addr = fc.Addr
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.AuditFile = fc.AuditFile
	c.StaticDir = fc.StaticDir
	c.ShutdownTimeout = fc.ShutdownTimeout

	c.Store = StoreConfig{
		Kind:     fc.Store.Kind,
		Path:     fc.Store.Path,
		DSN:      fc.Store.DSN,
		RedisKey: fc.Store.RedisKey,
	}

	s := &c.Auth.Session
	s.IdleTimeout = fc.Session.IdleTimeout
	s.AbsoluteTimeout = fc.Session.AbsoluteTimeout
	s.SweepInterval = fc.Session.SweepInterval
	s.CookieName = fc.Session.CookieName
	s.CookieTTL = fc.Session.CookieTTL
	s.CookiePath = fc.Session.CookiePath
	s.CookieSecure = fc.Session.CookieSecure
	s.CookieSameSite = sameSite
	s.Secret = []byte(fc.Session.Secret)
	s.Issuer = fc.Session.Issuer

	c.Auth.Password.BcryptCost = fc.Password.BcryptCost
	c.Auth.Password.AcceptLegacyArgon2 = fc.Password.AcceptLegacyArgon2

	t := &c.Auth.TOTP
	t.Issuer = fc.TOTP.Issuer
	t.Digits = fc.TOTP.Digits
	t.Period = fc.TOTP.Period
	t.Skew = fc.TOTP.Skew
	t.SecretSize = fc.TOTP.SecretSize
	t.Algorithm = fc.TOTP.Algorithm
	t.QRCodeSize = fc.TOTP.QRCodeSize

	c.Auth.Account.MinUsernameLength = fc.Account.MinUsernameLength
	c.Auth.Account.MaxUsernameLength = fc.Account.MaxUsernameLength
	c.Auth.Account.MinPasswordLength = fc.Account.MinPasswordLength

	c.Auth.Audit.Enabled = fc.Audit.Enabled
	c.Auth.Audit.BufferSize = fc.Audit.BufferSize
	c.Auth.Audit.DropIfFull = fc.Audit.DropIfFull

	c.Auth.Metrics.Enabled = fc.Metrics.Enabled
	c.Auth.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms
	return nil
}
