package credauth

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/store"
)

// Register validates the input, hashes the password and persists a new user
// with 2FA disabled.
//
// Input errors are returned before the store is touched and are not audited.
// A taken username yields ErrDuplicateUser and a failed REGISTER event.
func (e *Engine) Register(ctx context.Context, username, plaintext string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	if err := e.validateCredentials(username, plaintext); err != nil {
		e.metricInc(MetricRegisterInvalid)
		return User{}, err
	}

	digest, err := e.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			e.metricInc(MetricRegisterInvalid)
			return User{}, fmt.Errorf("%w: password too long", ErrInvalidInput)
		}
		return User{}, e.infraError(ctx, "register", ErrHashFailure, err)
	}

	rec, err := e.store.Create(ctx, username, digest)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditRecord{
				kind:        audit.KindRegister,
				username:    username,
				description: "registration rejected",
				err:         ErrDuplicateUser,
			})
			return User{}, ErrDuplicateUser
		}
		return User{}, e.infraError(ctx, "register", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditRecord{
		kind:        audit.KindRegister,
		success:     true,
		username:    rec.Username,
		userID:      rec.ID,
		description: "user registered",
	})
	return userFromRecord(rec), nil
}

// LookupUser returns the public view of the user with the given id.
func (e *Engine) LookupUser(ctx context.Context, id string) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}
	rec, err := e.store.FindByID(ctx, id)
	if err != nil {
		return User{}, e.storeError(ctx, "lookup user", err)
	}
	return userFromRecord(rec), nil
}

func (e *Engine) validateCredentials(username, plaintext string) error {
	acc := e.config.Account
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	case n < acc.MinUsernameLength:
		return fmt.Errorf("%w: username must be at least %d characters", ErrInvalidInput, acc.MinUsernameLength)
	case n > acc.MaxUsernameLength:
		return fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, acc.MaxUsernameLength)
	case !utf8.ValidString(username):
		return fmt.Errorf("%w: username is not valid UTF-8", ErrInvalidInput)
	}

	p := utf8.RuneCountInString(plaintext)
	switch {
	case p == 0:
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case p < acc.MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, acc.MinPasswordLength)
	}
	return nil
}
