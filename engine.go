package credauth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/logging"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/session"
	"github.com/MrEthical07/credauth/store"
	"github.com/MrEthical07/credauth/totp"
)

// Engine orchestrates the credential store, hasher, TOTP engine and session
// manager. Create it with Builder.Build and release it with Close.
type Engine struct {
	config   Config
	store    *store.CredentialStore
	hasher   *password.Multi
	otp      *totp.Engine
	sessions *session.Manager
	tokens   *jwt.Manager
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   logging.Logger
	now      func() time.Time

	closed atomic.Bool
}

// Close stops the session sweeper, drops every live session and drains the
// audit buffer. It is idempotent.
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.sessions != nil {
		e.sessions.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the active configuration without the session secret.
func (e *Engine) Config() Config {
	cfg := cloneConfig(e.config)
	cfg.Session.Secret = nil
	return cfg
}

// AuditDropped returns how many audit events were discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

// ActiveSessions returns the number of sessions in the table.
func (e *Engine) ActiveSessions() int {
	if e == nil || e.sessions == nil {
		return 0
	}
	return e.sessions.Len()
}

// Ready checks that the engine is open and the credential store answers.
func (e *Engine) Ready(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.store.Count(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.sessions == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// infraError records and logs an infrastructure failure, then wraps cause in kind.
func (e *Engine) infraError(ctx context.Context, op string, kind error, cause error) error {
	e.metricInc(MetricInfrastructureError)
	e.logger.Error(ctx, "operation failed", "op", op, "error", cause)
	return fmt.Errorf("%w: %w", kind, cause)
}

func (e *Engine) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return e.infraError(ctx, op, ErrStoreUnavailable, err)
}

func (e *Engine) auditDropped(ev audit.Event, total uint64) {
	// first drop, then every 100th
	if total == 1 || total%100 == 0 {
		e.logger.Warn(context.Background(), "audit event dropped", "event_type", ev.Type, "dropped_total", total)
	}
}
