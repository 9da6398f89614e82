package credauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/logging"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/session"
	"github.com/MrEthical07/credauth/store"
	"github.com/MrEthical07/credauth/totp"
)

// Builder assembles an Engine. A Builder can be used for exactly one Build.
type Builder struct {
	config Config

	backend   store.Backend
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time
	newID     func() (string, error)

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSessionSecret sets the cookie token signing secret.
func (b *Builder) WithSessionSecret(secret []byte) *Builder {
	b.config.Session.Secret = append([]byte(nil), secret...)
	return b
}

// WithBackend sets the credential persistence backend. Required.
func (b *Builder) WithBackend(backend store.Backend) *Builder {
	b.backend = backend
	return b
}

// WithAuditSink sets where audit events are delivered.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for sessions, codes, tokens and record stamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithIDGenerator replaces the UUIDv7 user id source.
func (b *Builder) WithIDGenerator(fn func() (string, error)) *Builder {
	b.newID = fn
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. Lint warnings
// are logged, not returned.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.backend == nil {
		return nil, errors.New("credential backend required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := logging.NewSlogLogger(b.logger)

	// -------- PASSWORD HASHING --------
	primary, err := password.NewBcrypt(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	var legacy *password.Argon2
	if cfg.Password.AcceptLegacyArgon2 {
		legacy, err = password.NewArgon2(password.DefaultArgon2Config())
		if err != nil {
			return nil, err
		}
	}

	// -------- TOTP --------
	totpEngine, err := totp.New(cfg.TOTP.engineConfig())
	if err != nil {
		return nil, err
	}

	// -------- COOKIE TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.CookieTTL,
		Issuer: cfg.Session.Issuer,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	// -------- CREDENTIAL STORE --------
	storeOpts := []store.Option{store.WithClock(now)}
	if b.newID != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(b.newID))
	}

	e := &Engine{
		config:  cfg,
		store:   store.New(b.backend, storeOpts...),
		hasher:  password.NewMulti(primary, legacy),
		otp:     totpEngine,
		tokens:  tokens,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}

	// -------- SESSIONS --------
	e.sessions, err = session.NewManager(session.Config{
		IdleTimeout:     cfg.Session.IdleTimeout,
		AbsoluteTimeout: cfg.Session.AbsoluteTimeout,
		SweepInterval:   cfg.Session.SweepInterval,
		Now:             now,
		OnEnd:           e.sessionEnded,
	})
	if err != nil {
		return nil, err
	}

	// -------- AUDIT --------
	e.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     e.auditDropped,
	}, b.auditSink)

	for _, w := range cfg.Lint() {
		if w.Severity == LintWarn {
			logger.Warn(context.Background(), "config lint", "code", w.Code, "detail", w.Message)
		}
	}

	b.built = true
	return e, nil
}
