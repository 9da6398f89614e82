// Package config loads the credauthd daemon configuration: built-in defaults,
// then an optional TOML file, then CREDAUTH_* environment variables, then
// command-line flags. Each layer only overrides what it sets.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/credauth"
)

// Store kinds accepted by StoreConfig.Kind.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds everything the daemon needs to start.
type Config struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	AuditFile       string
	StaticDir       string
	ShutdownTimeout time.Duration
	Store           StoreConfig

	// Auth is handed to credauth.Builder unchanged.
	Auth credauth.Config
}

// StoreConfig selects the credential backend.
//
// Path is used by the file store. DSN is a Postgres connection string, a
// SQLite path or URI, or a redis:// URL depending on Kind.
type StoreConfig struct {
	Kind     string
	Path     string
	DSN      string
	RedisKey string
}

// Default returns the development defaults. The session secret is left empty
// and must be supplied.
func Default() Config {
	return Config{
		Addr:            ":3002",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		Store: StoreConfig{
			Kind: StoreFile,
			Path: "db/users.json",
		},
		Auth: credauth.DefaultConfig(),
	}
}

// Validate checks daemon settings and then the embedded engine config.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: shutdown timeout must be > 0")
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			return errors.New("config: file store requires a path")
		}
	case StoreRedis, StorePostgres, StoreSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: %s store requires a dsn", c.Store.Kind)
		}
	default:
		return fmt.Errorf("config: unknown store kind %q", c.Store.Kind)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("config: unknown same_site %q", s)
}

func formatSameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	}
	return "default"
}
