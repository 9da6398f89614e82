// Command credauthd serves registration, login, sessions and TOTP over HTTP.
//
// Configuration comes from defaults, an optional TOML file (-config or
// CREDAUTH_CONFIG), CREDAUTH_* environment variables and flags, in that
// order. CREDAUTH_SESSION_SECRET has no default and must be set.
//
//	credauthd -store sqlite -dsn file:credauth.db -audit-file audit.log
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/httpapi"
	"github.com/MrEthical07/credauth/internal/config"
	"github.com/MrEthical07/credauth/internal/logging"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "credauthd: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "credauthd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.Info("starting", cfg.Describe()...)

	backend, closeBackend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	sink, closeSink, err := newAuditSink(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Warn("close audit sink", "error", err)
		}
	}()

	engine, err := credauth.New().
		WithConfig(cfg.Auth).
		WithBackend(backend).
		WithAuditSink(sink).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	// Runs before closeSink so queued audit events are flushed into an open sink.
	defer engine.Close()

	if err := engine.Ready(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}

	api, err := httpapi.New(httpapi.Options{
		Engine:    engine,
		Logger:    logger,
		StaticDir: cfg.StaticDir,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped", "active_sessions_dropped", engine.ActiveSessions())
	return nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	handler, err := logging.NewHandler(os.Stderr, cfg.LogFormat, level)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// newAuditSink writes audit events to the configured file, or to the
// operational log when no file is set.
func newAuditSink(cfg config.Config, logger *slog.Logger) (credauth.AuditSink, func() error, error) {
	if cfg.AuditFile == "" {
		return credauth.NewSlogSink(logger.With("component", "audit")), func() error { return nil }, nil
	}

	file, err := credauth.OpenFileSink(cfg.AuditFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit file: %w", err)
	}
	return file, file.Close, nil
}
