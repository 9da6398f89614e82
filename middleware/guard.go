package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/credauth"
)

type sessionContextKey struct{}

// SessionFromContext returns the session Guard attached to the request.
func SessionFromContext(ctx context.Context) (credauth.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(credauth.SessionInfo)
	return info, ok
}

// WithSession attaches info to ctx the way Guard does.
func WithSession(ctx context.Context, info credauth.SessionInfo) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, info)
}

// Guard checks the session timers on every request before next runs.
func Guard(engine *credauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if engine == nil {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				WriteError(w, credauth.ErrEngineNotReady)
			})
		}
		cfg := engine.Config().Session

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := credauth.WithClientIP(r.Context(), clientIP(r))

			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			handle, err := engine.HandleFromToken(cookie.Value)
			if err != nil {
				if errors.Is(err, credauth.ErrEngineNotReady) {
					WriteError(w, err)
					return
				}
				ClearSessionCookie(w, cfg)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			info, err := engine.Touch(ctx, handle)
			switch {
			case err == nil:
				ctx = WithSession(ctx, info)
			case credauth.Classify(err) == credauth.ClassSessionExpiry:
				ClearSessionCookie(w, cfg)
				WriteError(w, err)
				return
			case errors.Is(err, credauth.ErrSessionNotFound):
				ClearSessionCookie(w, cfg)
			default:
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
