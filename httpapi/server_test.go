package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/store"
	"github.com/MrEthical07/credauth/totp"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t       *testing.T
	engine  *credauth.Engine
	clock   *fakeClock
	handler http.Handler
	cookie  *http.Cookie
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	cfg := credauth.DefaultConfig()
	cfg.Session.Secret = []byte("httpapi-test-secret-0123456789abcdef")
	cfg.Session.SweepInterval = 0
	cfg.Session.CookieTTL = time.Hour
	cfg.Password.BcryptCost = password.MinBcryptCost
	cfg.Audit.Enabled = false

	clock := &fakeClock{now: time.Now()}
	engine, err := credauth.New().
		WithConfig(cfg).
		WithBackend(store.NewMemoryBackend()).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	opts := Options{Engine: engine}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := New(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &harness{t: t, engine: engine, clock: clock, handler: srv.Handler()}
}

// do sends a request carrying the current cookie and keeps whatever cookie
// the response sets.
func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			h.cookie = nil
			continue
		}
		h.cookie = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return rec
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if got, _ := body["message"].(string); got != message {
		t.Fatalf("message = %q, want %q", got, message)
	}
	if success, _ := body["success"].(bool); success != (status == http.StatusOK) {
		t.Fatalf("success = %v for status %d", success, status)
	}
	return body
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	engine, err := totp.New(totp.DefaultConfig())
	if err != nil {
		t.Fatalf("totp: %v", err)
	}
	code, err := engine.Code(secret, time.Now())
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	return code
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t, nil)

	expect(t, h.do(http.MethodPost, "/register", CredentialsRequest{Username: "al", Password: "password123"}), 400, "Invalid input")
	expect(t, h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "pw"}), 400, "Invalid input")
	expect(t, h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"}), 200, "Registration successful")
	expect(t, h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "other-password"}), 400, "User already exists")
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	expect(t, rec, 400, "Invalid input")
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})

	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice"}), 400, "Invalid input")
	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "bob", Password: "password123"}), 401, "User not found")
	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "wrong"}), 401, "Wrong password")
	if h.cookie != nil {
		t.Fatal("failed login must not set a session cookie")
	}
}

func TestTwoFactorScenario(t *testing.T) {
	h := newHarness(t, nil)

	expect(t, h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"}), 200, "Registration successful")
	body := expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"}), 200, "Login successful")
	if user, _ := body["user"].(map[string]any); user["username"] != "alice" {
		t.Fatalf("unexpected user %v", body["user"])
	}
	if h.cookie == nil {
		t.Fatal("login did not set a session cookie")
	}

	body = expect(t, h.do(http.MethodGet, "/session", nil), 200, "OK")
	if user, _ := body["user"].(map[string]any); user["username"] != "alice" {
		t.Fatalf("unexpected session user %v", body["user"])
	}

	body = expect(t, h.do(http.MethodPost, "/2fa/setup", nil), 200, "2FA set up")
	qr, _ := body["qrCodeDataUrl"].(string)
	if !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Fatalf("unexpected qr data url %.40q", qr)
	}
	uri, _ := body["otpauthUrl"].(string)
	if !strings.Contains(uri, "alice") {
		t.Fatalf("provisioning uri %q does not name the account", uri)
	}
	secret, _ := body["secret"].(string)

	expect(t, h.do(http.MethodPost, "/2fa/verify", CodeRequest{}), 400, "2FA code missing")
	expect(t, h.do(http.MethodPost, "/2fa/verify", CodeRequest{Token: currentCode(t, secret)}), 200, "2FA code correct")

	expect(t, h.do(http.MethodGet, "/logout", nil), 200, "Logout successful")
	if h.cookie != nil {
		t.Fatal("logout did not clear the cookie")
	}
	expect(t, h.do(http.MethodGet, "/session", nil), 401, "Not logged in")

	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"}), 401, "2FA code required")
	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123", Token: "000000x"}), 401, "Wrong 2FA code")
	expect(t, h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123", Token: currentCode(t, secret)}), 200, "Login successful")
}

func TestSessionRoutesRequireLogin(t *testing.T) {
	h := newHarness(t, nil)

	expect(t, h.do(http.MethodPost, "/2fa/setup", nil), 401, "Not logged in")
	expect(t, h.do(http.MethodPost, "/2fa/verify", CodeRequest{Token: "123456"}), 401, "Not logged in")
	expect(t, h.do(http.MethodGet, "/session", nil), 401, "Not logged in")
	expect(t, h.do(http.MethodPost, "/logout", nil), 200, "Logout successful")
}

func TestVerifyNotEnrolled(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"})

	expect(t, h.do(http.MethodPost, "/2fa/verify", CodeRequest{Token: "123456"}), 400, "2FA not enabled")
}

func TestIdleExpiry(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"})
	expect(t, h.do(http.MethodGet, "/session", nil), 200, "OK")

	h.clock.Advance(5*time.Minute + time.Second)
	expect(t, h.do(http.MethodGet, "/session", nil), credauth.StatusSessionExpired, "Session expired (idle)")
	if h.cookie != nil {
		t.Fatal("expired session cookie was not cleared")
	}
}

func TestIdleExpiryCountsFromLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"})

	h.clock.Advance(20 * time.Minute)
	expect(t, h.do(http.MethodGet, "/session", nil), credauth.StatusSessionExpired, "Session expired (idle)")
}

func TestSessionCreatedAtIsLoginTime(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	loginAt := h.clock.Now()
	h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"})

	h.clock.Advance(2 * time.Minute)
	body := expect(t, h.do(http.MethodGet, "/session", nil), 200, "OK")
	raw, _ := body["createdAt"].(string)
	createdAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.Fatalf("parse createdAt %q: %v", raw, err)
	}
	if !createdAt.Equal(loginAt) {
		t.Fatalf("createdAt = %v, want login time %v", createdAt, loginAt)
	}
}

func TestSetupRenderFailure(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.RenderQR = func(string, int) (string, error) { return "", errors.New("encoder broke") }
	})
	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	h.do(http.MethodPost, "/login", CredentialsRequest{Username: "alice", Password: "password123"})

	expect(t, h.do(http.MethodPost, "/2fa/setup", nil), 500, "Internal server error")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	expect(t, h.do(http.MethodGet, "/healthz", nil), 200, "OK")

	h.do(http.MethodPost, "/register", CredentialsRequest{Username: "alice", Password: "password123"})
	rec := h.do(http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "credauth_register_success_total 1") {
		t.Fatalf("metrics output missing register counter:\n%s", rec.Body.String())
	}

	h.engine.Close()
	rec = h.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", rec.Code)
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>login</h1>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newHarness(t, func(o *Options) { o.StaticDir = dir })

	rec := h.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "login") {
		t.Fatalf("static index not served: %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewRequiresEngine(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without engine")
	}
}
