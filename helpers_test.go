package credauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/store"
)

var testSecret = []byte("test-secret-test-secret-test-secret!")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.Secret = testSecret
	cfg.Session.SweepInterval = 0
	cfg.Password.BcryptCost = password.MinBcryptCost
	return cfg
}

type testEngine struct {
	*Engine
	clock   *testClock
	backend *store.MemoryBackend
	sink    *ChannelSink
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEngine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newTestClock()
	backend := store.NewMemoryBackend()
	sink := NewChannelSink(64)

	engine, err := New().
		WithConfig(cfg).
		WithBackend(backend).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, clock: clock, backend: backend, sink: sink}
}

func (te *testEngine) register(t *testing.T, username, plaintext string) User {
	t.Helper()
	u, err := te.Register(context.Background(), username, plaintext)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (te *testEngine) login(t *testing.T, username, plaintext, code string) LoginResult {
	t.Helper()
	res, err := te.Login(context.Background(), username, plaintext, code)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return res
}

func (te *testEngine) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := te.otp.Code(secret, te.clock.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return code
}

// nextEvent waits for the next audit event.
func (te *testEngine) nextEvent(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case ev := <-te.sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func (te *testEngine) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-te.sink.Events():
		t.Fatalf("unexpected audit event: %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}
}
