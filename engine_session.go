package credauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credauth/session"
)

// Touch applies the idle and absolute timers to handle and, when both pass,
// records activity. Every request bound to a session goes through Touch before
// any other operation.
//
// Both timers run from login. An expired session is removed
// and reported once as ErrSessionExpiredIdle or ErrSessionExpiredAbsolute;
// afterwards the handle is ErrSessionNotFound.
func (e *Engine) Touch(ctx context.Context, handle string) (SessionInfo, error) {
	if err := e.ready(); err != nil {
		return SessionInfo{}, err
	}
	if handle == "" {
		return SessionInfo{}, ErrSessionNotFound
	}

	sess, err := e.sessions.Touch(handle, e.now())
	switch {
	case err == nil:
		return sessionInfo(sess), nil
	case errors.Is(err, session.ErrExpiredIdle):
		e.logger.Info(ctx, "session expired", "reason", "idle", "user_id", sess.Principal.UserID)
		return sessionInfo(sess), ErrSessionExpiredIdle
	case errors.Is(err, session.ErrExpiredAbsolute):
		e.logger.Info(ctx, "session expired", "reason", "absolute", "user_id", sess.Principal.UserID)
		return sessionInfo(sess), ErrSessionExpiredAbsolute
	default:
		return SessionInfo{}, ErrSessionNotFound
	}
}

// CurrentSession returns the session behind handle without refreshing it.
func (e *Engine) CurrentSession(handle string) (SessionInfo, error) {
	if err := e.ready(); err != nil {
		return SessionInfo{}, err
	}
	sess, err := e.sessions.Lookup(handle)
	if err != nil {
		return SessionInfo{}, ErrSessionNotFound
	}
	return sessionInfo(sess), nil
}

// SweepSessions evicts every expired session now and returns how many were
// removed. The background sweeper calls the same logic on its interval.
func (e *Engine) SweepSessions() int {
	if e.ready() != nil {
		return 0
	}
	return e.sessions.Sweep(e.now())
}

// IssueToken signs a fresh cookie token for a live session.
func (e *Engine) IssueToken(handle string) (string, time.Time, error) {
	if err := e.ready(); err != nil {
		return "", time.Time{}, err
	}
	if _, err := e.sessions.Lookup(handle); err != nil {
		return "", time.Time{}, ErrSessionNotFound
	}
	return e.tokens.Issue(handle)
}

// HandleFromToken verifies a cookie token and returns the session handle it
// carries. It does not check that the session still exists.
func (e *Engine) HandleFromToken(token string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	handle, err := e.tokens.Parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return handle, nil
}

// sessionEnded runs for every session leaving the table, whether through
// Touch, Destroy or the sweeper.
func (e *Engine) sessionEnded(s session.Session) {
	switch s.State {
	case session.StateExpiredIdle:
		e.metricInc(MetricSessionExpiredIdle)
	case session.StateExpiredAbsolute:
		e.metricInc(MetricSessionExpiredAbsolute)
	case session.StateTerminated:
		e.metricInc(MetricSessionDestroyed)
	}
}
