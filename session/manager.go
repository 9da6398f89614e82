package session

import (
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/credauth/internal"
)

var (
	// ErrNotFound is returned for unknown, destroyed or expired-and-removed handles.
	ErrNotFound = errors.New("session not found")
	// ErrExpiredIdle is returned by Touch when the idle timer fired.
	ErrExpiredIdle = errors.New("session expired (idle)")
	// ErrExpiredAbsolute is returned by Touch when the absolute timer fired.
	ErrExpiredAbsolute = errors.New("session expired (absolute)")
	// ErrClosed is returned by Create after Close.
	ErrClosed = errors.New("session manager closed")
)

const (
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultAbsoluteTimeout = 30 * time.Minute
)

// Config controls timers and housekeeping.
type Config struct {
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration

	// SweepInterval enables a background goroutine that evicts expired sessions.
	// Zero disables it; expiry is then only detected by Touch.
	SweepInterval time.Duration

	// Now overrides the clock used by Create and the sweeper.
	Now func() time.Time

	// OnEnd is invoked, outside the lock, whenever a session leaves the table.
	OnEnd func(Session)
}

// Manager is the process-wide session table. All methods are safe for concurrent use.
type Manager struct {
	idle     time.Duration
	absolute time.Duration
	now      func() time.Time
	onEnd    func(Session)

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager validates cfg, applies defaults for zero timers and starts the sweeper
// when configured.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.AbsoluteTimeout == 0 {
		cfg.AbsoluteTimeout = DefaultAbsoluteTimeout
	}
	if cfg.IdleTimeout < 0 || cfg.AbsoluteTimeout < 0 || cfg.SweepInterval < 0 {
		return nil, errors.New("session timers must be non-negative")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		idle:     cfg.IdleTimeout,
		absolute: cfg.AbsoluteTimeout,
		now:      cfg.Now,
		onEnd:    cfg.OnEnd,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		m.wg.Add(1)
		go m.sweepLoop(cfg.SweepInterval)
	}

	return m, nil
}

// IdleTimeout returns the configured idle timeout.
func (m *Manager) IdleTimeout() time.Duration { return m.idle }

// AbsoluteTimeout returns the configured absolute timeout.
func (m *Manager) AbsoluteTimeout() time.Duration { return m.absolute }

// Create registers a new ACTIVE session for p with CreatedAt = LastActivityAt = now.
func (m *Manager) Create(p Principal) (Session, error) {
	h, err := internal.NewSessionHandle()
	if err != nil {
		return Session{}, err
	}
	now := m.now()

	s := &Session{
		Handle:         h.String(),
		Principal:      p,
		State:          StateActive,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Session{}, ErrClosed
	}
	m.sessions[s.Handle] = s
	return *s, nil
}

// Touch applies the expiry rules to handle at now.
//
// Create counts as the first observation, so both timers run from login. The
// idle check runs before the absolute check, both under the same lock
// acquisition. An expired session is removed and
// returned with its terminal state alongside [ErrExpiredIdle] or
// [ErrExpiredAbsolute]; later calls report [ErrNotFound].
func (m *Manager) Touch(handle string, now time.Time) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[handle]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrNotFound
	}

	var expiry error
	switch {
	case now.Sub(s.LastActivityAt) > m.idle:
		s.State = StateExpiredIdle
		expiry = ErrExpiredIdle
	case now.Sub(s.CreatedAt) > m.absolute:
		s.State = StateExpiredAbsolute
		expiry = ErrExpiredAbsolute
	default:
		if now.After(s.LastActivityAt) {
			s.LastActivityAt = now
		}
		out := *s
		m.mu.Unlock()
		return out, nil
	}

	delete(m.sessions, handle)
	out := *s
	m.mu.Unlock()

	m.ended(out)
	return out, expiry
}

// Lookup returns a copy of the session without touching it.
func (m *Manager) Lookup(handle string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[handle]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// Destroy terminates handle. It reports false when the handle was already gone.
func (m *Manager) Destroy(handle string) (Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[handle]
	if !ok {
		m.mu.Unlock()
		return Session{}, false
	}
	delete(m.sessions, handle)
	s.State = StateTerminated
	out := *s
	m.mu.Unlock()

	m.ended(out)
	return out, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts every session that Touch at now would reject. It returns the
// number evicted.
func (m *Manager) Sweep(now time.Time) int {
	var evicted []Session

	m.mu.Lock()
	for handle, s := range m.sessions {
		switch {
		case now.Sub(s.LastActivityAt) > m.idle:
			s.State = StateExpiredIdle
		case now.Sub(s.CreatedAt) > m.absolute:
			s.State = StateExpiredAbsolute
		default:
			continue
		}
		delete(m.sessions, handle)
		evicted = append(evicted, *s)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		m.ended(s)
	}
	return len(evicted)
}

// Close stops the sweeper and clears the table. Create fails afterwards.
// Close is idempotent.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()

		m.mu.Lock()
		m.closed = true
		clear(m.sessions)
		m.mu.Unlock()
	})
}

func (m *Manager) sweepLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(m.now())
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) ended(s Session) {
	if m.onEnd != nil {
		m.onEnd(s)
	}
}
