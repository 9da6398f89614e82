package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/internal/logging"
	"github.com/MrEthical07/credauth/metrics/export/prometheus"
	"github.com/MrEthical07/credauth/middleware"
	"github.com/MrEthical07/credauth/totp"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Engine is required.
type Options struct {
	Engine *credauth.Engine
	Logger *slog.Logger

	// Metrics serves /metrics. Nil selects the Prometheus exporter over Engine.
	Metrics http.Handler

	// StaticDir, when set, is served at / for the browser frontend.
	StaticDir string

	// RenderQR turns a provisioning URI into an image data URL. Nil selects
	// totp.RenderQRDataURL.
	RenderQR func(uri string, size int) (string, error)
}

// Server routes HTTP requests to the Engine.
type Server struct {
	engine   *credauth.Engine
	session  credauth.SessionConfig
	qrSize   int
	logger   logging.Logger
	renderQR func(string, int) (string, error)
	mux      *http.ServeMux
}

// New builds a Server with every route mounted.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("httpapi: engine required")
	}

	cfg := opts.Engine.Config()
	s := &Server{
		engine:   opts.Engine,
		session:  cfg.Session,
		qrSize:   cfg.TOTP.QRCodeSize,
		logger:   logging.NewSlogLogger(opts.Logger),
		renderQR: opts.RenderQR,
		mux:      http.NewServeMux(),
	}
	if s.renderQR == nil {
		s.renderQR = totp.RenderQRDataURL
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.NewPrometheusExporter(opts.Engine).Handler()
	}

	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /logout", s.handleLogout)
	s.mux.Handle("POST /2fa/setup", middleware.RequireSession(http.HandlerFunc(s.handleSetup)))
	s.mux.Handle("POST /2fa/verify", middleware.RequireSession(http.HandlerFunc(s.handleVerify)))
	s.mux.Handle("GET /session", middleware.RequireSession(http.HandlerFunc(s.handleSession)))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics)
	if opts.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return s, nil
}

// Handler returns the routes wrapped in the session timeout guard.
func (s *Server) Handler() http.Handler {
	return middleware.Guard(s.engine)(s.mux)
}
