package middleware

import (
	"net/http"
	"time"

	"github.com/MrEthical07/credauth"
)

// SetSessionCookie stores token in the session cookie described by cfg.
func SetSessionCookie(w http.ResponseWriter, cfg credauth.SessionConfig, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Expires:  expires,
		HttpOnly: true,
		SameSite: cfg.CookieSameSite,
		Secure:   cfg.CookieSecure,
	})
}

// ClearSessionCookie tells the client to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg credauth.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     cfg.CookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: cfg.CookieSameSite,
		Secure:   cfg.CookieSecure,
	})
}
