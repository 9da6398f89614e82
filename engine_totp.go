package credauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/session"
	"github.com/MrEthical07/credauth/store"
)

// SetupTwoFactor generates a fresh secret for the session's user, enables 2FA
// (overwriting any previous secret), persists it and returns the provisioning
// URI labelled with the username.
func (e *Engine) SetupTwoFactor(ctx context.Context, handle string) (TwoFactorSetup, error) {
	if err := e.ready(); err != nil {
		return TwoFactorSetup{}, err
	}
	sess, err := e.authenticated(handle)
	if err != nil {
		return TwoFactorSetup{}, err
	}

	rec, err := e.principalRecord(ctx, sess, "2fa setup")
	if err != nil {
		return TwoFactorSetup{}, err
	}

	secret, err := e.otp.GenerateSecret()
	if err != nil {
		return TwoFactorSetup{}, e.infraError(ctx, "2fa setup", ErrTOTPUnavailable, err)
	}
	uri, err := e.otp.ProvisioningURI(secret, rec.Username)
	if err != nil {
		return TwoFactorSetup{}, e.infraError(ctx, "2fa setup", ErrTOTPUnavailable, err)
	}

	rec.EnableTOTP(secret)
	if err := e.store.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return TwoFactorSetup{}, principalGone()
		}
		return TwoFactorSetup{}, e.infraError(ctx, "2fa setup", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricTOTPSetup)
	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindTOTPSetup,
		success:     true,
		username:    rec.Username,
		userID:      rec.ID,
		handle:      handle,
		description: "2fa enabled",
	})

	return TwoFactorSetup{ProvisioningURI: uri, Secret: secret}, nil
}

// VerifyTwoFactor checks code against the enrolled secret of the session's
// user. It is independent of Login and does not change the session.
//
// Checks run in order: live session, non-empty code, user exists, enrolled,
// code valid.
func (e *Engine) VerifyTwoFactor(ctx context.Context, handle, code string) error {
	if err := e.ready(); err != nil {
		return err
	}
	sess, err := e.authenticated(handle)
	if err != nil {
		return err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingCode
	}

	rec, err := e.principalRecord(ctx, sess, "2fa verify")
	if err != nil {
		return err
	}
	if !rec.TOTPEnabled {
		return ErrNotEnrolled
	}

	if !e.otp.Verify(rec.TOTPSecret, code, e.now()) {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditRecord{
			kind:        audit.KindTOTPVerify,
			username:    rec.Username,
			userID:      rec.ID,
			handle:      handle,
			description: "2fa verification failed",
			err:         ErrWrongTOTPCode,
		})
		return ErrWrongTOTPCode
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindTOTPVerify,
		success:     true,
		username:    rec.Username,
		userID:      rec.ID,
		handle:      handle,
		description: "2fa code verified",
	})
	return nil
}

func (e *Engine) authenticated(handle string) (session.Session, error) {
	if handle == "" {
		return session.Session{}, ErrNotAuthenticated
	}
	sess, err := e.sessions.Lookup(handle)
	if err != nil {
		return session.Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

func (e *Engine) principalRecord(ctx context.Context, sess session.Session, op string) (store.User, error) {
	rec, err := e.store.FindByID(ctx, sess.Principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return store.User{}, principalGone()
		}
		return store.User{}, e.infraError(ctx, op, ErrStoreUnavailable, err)
	}
	return rec, nil
}

func principalGone() error {
	return fmt.Errorf("%w: %w", ErrPrincipalGone, ErrUserNotFound)
}
