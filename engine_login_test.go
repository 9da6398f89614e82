package credauth

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/store"
)

func TestLoginSuccessCreatesSession(t *testing.T) {
	te := newTestEngine(t, nil)
	u := te.register(t, "alice", "password123")
	te.nextEvent(t)

	res := te.login(t, "alice", "password123", "")
	if res.Session.Handle == "" || res.Token == "" {
		t.Fatalf("expected handle and token, got %+v", res)
	}
	if res.Session.UserID != u.ID || res.Session.Username != "alice" {
		t.Fatalf("session principal mismatch: %+v", res.Session)
	}
	if res.Session.State != "ACTIVE" {
		t.Fatalf("expected ACTIVE, got %s", res.Session.State)
	}
	if want := te.clock.Now().Add(te.config.Session.CookieTTL); !res.TokenExpiresAt.Equal(want) {
		t.Fatalf("expected token expiry %v, got %v", want, res.TokenExpiresAt)
	}

	handle, err := te.HandleFromToken(res.Token)
	if err != nil || handle != res.Session.Handle {
		t.Fatalf("token should carry the handle: %q %v", handle, err)
	}

	ev := te.nextEvent(t)
	if ev.Type != AuditLogin || !ev.Success || ev.Username != "alice" || ev.SessionID == "" {
		t.Fatalf("unexpected audit event %+v", ev)
	}
	if ev.SessionID == res.Session.Handle {
		t.Fatal("audit must not carry the raw session handle")
	}
	if te.ActiveSessions() != 1 {
		t.Fatalf("expected 1 session, got %d", te.ActiveSessions())
	}
}

func TestLoginFailures(t *testing.T) {
	te := newTestEngine(t, nil)
	te.register(t, "alice", "password123")
	te.nextEvent(t)

	_, err := te.Login(context.Background(), "bob", "password123", "")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if HTTPStatus(err) != 401 {
		t.Fatalf("unknown user at login must be 401, got %d", HTTPStatus(err))
	}
	ev := te.nextEvent(t)
	if ev.Type != AuditLogin || ev.Success || ev.Error != string(auditErrUserNotFound) || ev.Username != "bob" {
		t.Fatalf("unexpected audit event %+v", ev)
	}

	_, err = te.Login(context.Background(), "alice", "wrong", "")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	ev = te.nextEvent(t)
	if ev.Success || ev.Error != string(auditErrWrongPassword) {
		t.Fatalf("unexpected audit event %+v", ev)
	}

	_, err = te.Login(context.Background(), "", "password123", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	te.expectNoEvent(t)

	if te.ActiveSessions() != 0 {
		t.Fatal("failed logins must not create sessions")
	}
	if te.metrics.Value(MetricLoginUserNotFound) != 1 || te.metrics.Value(MetricLoginWrongPassword) != 1 {
		t.Fatal("expected failure metrics")
	}
}

func TestLoginMalformedDigestLooksLikeWrongPassword(t *testing.T) {
	backend := store.NewMemoryBackend(store.User{ID: "u1", Username: "mallory", PasswordHash: "not-a-digest"})
	engine, err := New().WithConfig(testConfig()).WithBackend(backend).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	_, err = engine.Login(context.Background(), "mallory", "anything", "")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if engine.metrics.Value(MetricLoginMalformedDigest) != 1 {
		t.Fatal("expected malformed digest metric")
	}
}

func TestLoginAcceptsLegacyArgon2Digest(t *testing.T) {
	legacy, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		t.Fatalf("argon2: %v", err)
	}
	digest, err := legacy.Hash("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	backend := store.NewMemoryBackend(store.User{ID: "u1", Username: "carol", PasswordHash: digest})
	lenient := testConfig()
	lenient.Password.AcceptLegacyArgon2 = true
	engine, err := New().WithConfig(lenient).WithBackend(backend).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Login(context.Background(), "carol", "password123", ""); err != nil {
		t.Fatalf("expected legacy digest to verify: %v", err)
	}

	strict, err := New().WithConfig(testConfig()).WithBackend(backend).Build()
	if err != nil {
		t.Fatalf("build strict: %v", err)
	}
	defer strict.Close()
	if _, err := strict.Login(context.Background(), "carol", "password123", ""); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword with the default config, got %v", err)
	}
}

func TestLoginTOTPRequiredDistinctFromWrongCode(t *testing.T) {
	te := newTestEngine(t, nil)
	te.register(t, "alice", "password123")
	res := te.login(t, "alice", "password123", "")
	setup, err := te.SetupTwoFactor(context.Background(), res.Session.Handle)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err = te.Login(context.Background(), "alice", "password123", "")
	if !errors.Is(err, ErrTOTPRequired) {
		t.Fatalf("expected ErrTOTPRequired, got %v", err)
	}
	_, err = te.Login(context.Background(), "alice", "password123", "   ")
	if !errors.Is(err, ErrTOTPRequired) {
		t.Fatalf("blank code must count as absent, got %v", err)
	}

	wrong := te.code(t, setup.Secret)
	if wrong == "000000" {
		wrong = "000001"
	} else {
		wrong = "000000"
	}
	_, err = te.Login(context.Background(), "alice", "password123", wrong)
	if !errors.Is(err, ErrWrongTOTPCode) {
		t.Fatalf("expected ErrWrongTOTPCode, got %v", err)
	}
	if errors.Is(err, ErrTOTPRequired) {
		t.Fatal("wrong code must not match ErrTOTPRequired")
	}

	if _, err := te.Login(context.Background(), "alice", "password123", te.code(t, setup.Secret)); err != nil {
		t.Fatalf("expected valid code to pass: %v", err)
	}
}

func TestLoginWrongPasswordCheckedBeforeTOTP(t *testing.T) {
	te := newTestEngine(t, nil)
	te.register(t, "alice", "password123")
	res := te.login(t, "alice", "password123", "")
	if _, err := te.SetupTwoFactor(context.Background(), res.Session.Handle); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := te.Login(context.Background(), "alice", "wrong", "")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	te := newTestEngine(t, nil)
	te.register(t, "alice", "password123")
	te.nextEvent(t)
	res := te.login(t, "alice", "password123", "")
	te.nextEvent(t)

	if err := te.Logout(context.Background(), res.Session.Handle); err != nil {
		t.Fatalf("logout: %v", err)
	}
	ev := te.nextEvent(t)
	if ev.Type != AuditLogout || ev.Username != "alice" || !ev.Success {
		t.Fatalf("unexpected audit event %+v", ev)
	}

	if err := te.Logout(context.Background(), res.Session.Handle); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := te.Logout(context.Background(), ""); err != nil {
		t.Fatalf("anonymous logout: %v", err)
	}
	te.expectNoEvent(t)

	if _, err := te.Touch(context.Background(), res.Session.Handle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("destroyed session must be not-found, got %v", err)
	}
	if te.metrics.Value(MetricLogout) != 1 || te.metrics.Value(MetricSessionDestroyed) != 1 {
		t.Fatal("expected exactly one logout")
	}
}

func TestLoginLatencyHistogram(t *testing.T) {
	te := newTestEngine(t, func(c *Config) { c.Metrics.EnableLatencyHistograms = true })
	te.register(t, "alice", "password123")
	te.login(t, "alice", "password123", "")

	var total uint64
	for _, v := range te.MetricsSnapshot().Histograms[MetricLoginLatency] {
		total += v
	}
	if total != 1 {
		t.Fatalf("expected one latency observation, got %d", total)
	}
}
