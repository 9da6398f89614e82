package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// Environment variables read by Load.
const (
	EnvConfig        = "CREDAUTH_CONFIG"
	EnvSessionSecret = "CREDAUTH_SESSION_SECRET"
	EnvAddr          = "CREDAUTH_ADDR"
	EnvStore         = "CREDAUTH_STORE"
	EnvDSN           = "CREDAUTH_DSN"
	EnvLogLevel      = "CREDAUTH_LOG_LEVEL"
	EnvAuditFile     = "CREDAUTH_AUDIT_FILE"
)

// ErrHelp is returned when -h or -help was requested.
var ErrHelp = flag.ErrHelp

type flagValues struct {
	config    string
	addr      string
	store     string
	storePath string
	dsn       string
	secret    string
	logLevel  string
	logFormat string
	auditFile string
	staticDir string
}

// Load builds the daemon Config from args (without the program name) and
// getenv, then validates it. Usage output goes to usage.
func Load(args []string, getenv func(string) string, usage io.Writer) (Config, error) {
	var fv flagValues
	fs := flag.NewFlagSet("credauthd", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&fv.config, "config", "", "path to a TOML config file")
	fs.StringVar(&fv.addr, "addr", "", "listen address")
	fs.StringVar(&fv.store, "store", "", "credential store: file, memory, redis, postgres, sqlite")
	fs.StringVar(&fv.storePath, "store-path", "", "users file for the file store")
	fs.StringVar(&fv.dsn, "dsn", "", "database DSN or redis URL")
	fs.StringVar(&fv.secret, "secret", "", "session cookie signing secret")
	fs.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&fv.logFormat, "log-format", "", "json or text")
	fs.StringVar(&fv.auditFile, "audit-file", "", "append audit events as JSON lines to this file")
	fs.StringVar(&fv.staticDir, "static", "", "directory served at /")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := Default()

	path := fv.config
	if path == "" {
		path = getenv(EnvConfig)
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg, getenv)
	applyFlags(&cfg, fv, set)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvSessionSecret); v != "" {
		cfg.Auth.Session.Secret = []byte(v)
	}
	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvStore); v != "" {
		cfg.Store.Kind = v
	}
	if v := getenv(EnvDSN); v != "" {
		cfg.Store.DSN = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvAuditFile); v != "" {
		cfg.AuditFile = v
	}
}

func applyFlags(cfg *Config, fv flagValues, set map[string]bool) {
	if set["addr"] {
		cfg.Addr = fv.addr
	}
	if set["store"] {
		cfg.Store.Kind = fv.store
	}
	if set["store-path"] {
		cfg.Store.Path = fv.storePath
	}
	if set["dsn"] {
		cfg.Store.DSN = fv.dsn
	}
	if set["secret"] {
		cfg.Auth.Session.Secret = []byte(fv.secret)
	}
	if set["log-level"] {
		cfg.LogLevel = fv.logLevel
	}
	if set["log-format"] {
		cfg.LogFormat = fv.logFormat
	}
	if set["audit-file"] {
		cfg.AuditFile = fv.auditFile
	}
	if set["static"] {
		cfg.StaticDir = fv.staticDir
	}
}

// IsHelp reports whether err came from a -h or -help flag.
func IsHelp(err error) bool {
	return errors.Is(err, ErrHelp)
}

// Describe summarises cfg for the startup log without the secret.
func (c Config) Describe() []any {
	return []any{
		"addr", c.Addr,
		"store", c.Store.Kind,
		"idle_timeout", c.Auth.Session.IdleTimeout.String(),
		"absolute_timeout", c.Auth.Session.AbsoluteTimeout.String(),
		"cookie_ttl", c.Auth.Session.CookieTTL.String(),
		"audit", fmt.Sprintf("enabled=%t file=%q", c.Auth.Audit.Enabled, c.AuditFile),
	}
}
