package credauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/session"
	"github.com/MrEthical07/credauth/store"
)

// Login verifies username and password and, when the user is enrolled in 2FA,
// the submitted TOTP code. On success it creates a session bound to
// {id, username} and returns it with a signed cookie token.
//
// A missing code for an enrolled user is ErrTOTPRequired; a wrong one is
// ErrWrongTOTPCode. Every failure after input validation emits a failed LOGIN
// event.
func (e *Engine) Login(ctx context.Context, username, plaintext, totpCode string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	if username == "" || plaintext == "" {
		return LoginResult{}, ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricLoginLatency, time.Since(start))
		}
	}()

	rec, err := e.store.FindByUsername(ctx, username)
	if err != nil {
		err = e.storeError(ctx, "login", err)
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginUserNotFound)
			e.loginFailed(ctx, username, "", err)
		}
		return LoginResult{}, err
	}

	if err := e.verifyPassword(ctx, rec, plaintext); err != nil {
		e.loginFailed(ctx, rec.Username, rec.ID, err)
		return LoginResult{}, err
	}

	if rec.TOTPEnabled {
		code := strings.TrimSpace(totpCode)
		if code == "" {
			e.metricInc(MetricTOTPRequired)
			e.loginFailed(ctx, rec.Username, rec.ID, ErrTOTPRequired)
			return LoginResult{}, ErrTOTPRequired
		}
		if !e.otp.Verify(rec.TOTPSecret, code, e.now()) {
			e.metricInc(MetricTOTPFailure)
			e.loginFailed(ctx, rec.Username, rec.ID, ErrWrongTOTPCode)
			return LoginResult{}, ErrWrongTOTPCode
		}
		e.metricInc(MetricTOTPSuccess)
	}

	sess, err := e.sessions.Create(session.Principal{UserID: rec.ID, Username: rec.Username})
	if err != nil {
		return LoginResult{}, e.infraError(ctx, "login", ErrSessionCreationFailed, err)
	}
	token, expires, err := e.tokens.Issue(sess.Handle)
	if err != nil {
		e.sessions.Destroy(sess.Handle)
		return LoginResult{}, e.infraError(ctx, "login", ErrSessionCreationFailed, err)
	}
	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)

	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindLogin,
		success:     true,
		username:    rec.Username,
		userID:      rec.ID,
		handle:      sess.Handle,
		description: "login succeeded",
		metadata: func() map[string]string {
			if rec.TOTPEnabled {
				return map[string]string{"second_factor": "totp"}
			}
			return nil
		},
	})

	return LoginResult{
		User:           userFromRecord(rec),
		Session:        sessionInfo(sess),
		Token:          token,
		TokenExpiresAt: expires,
	}, nil
}

// verifyPassword maps digest problems to ErrWrongPassword so callers cannot
// distinguish them; the operator sees a warning instead.
func (e *Engine) verifyPassword(ctx context.Context, rec store.User, plaintext string) error {
	ok, err := e.hasher.Verify(plaintext, rec.PasswordHash)
	if err != nil {
		e.metricInc(MetricLoginMalformedDigest)
		e.logger.Warn(ctx, "stored password digest unusable", "user_id", rec.ID, "error", err)
		return ErrWrongPassword
	}
	if !ok {
		e.metricInc(MetricLoginWrongPassword)
		return ErrWrongPassword
	}

	if upgrade, err := e.hasher.NeedsUpgrade(rec.PasswordHash); err == nil && upgrade {
		e.logger.Info(ctx, "password digest uses outdated parameters", "user_id", rec.ID)
	}
	return nil
}

func (e *Engine) loginFailed(ctx context.Context, username, userID string, err error) {
	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindLogin,
		username:    username,
		userID:      userID,
		description: "login failed",
		err:         err,
	})
}

// Logout destroys the session behind handle and emits LOGOUT with the
// username from the session snapshot. Unknown handles are a no-op, so Logout
// is idempotent.
func (e *Engine) Logout(ctx context.Context, handle string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if handle == "" {
		return nil
	}

	sess, ok := e.sessions.Destroy(handle)
	if !ok {
		return nil
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindLogout,
		success:     true,
		username:    sess.Principal.Username,
		userID:      sess.Principal.UserID,
		handle:      handle,
		description: "logout",
	})
	return nil
}
