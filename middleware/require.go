package middleware

import (
	"net/http"

	"github.com/MrEthical07/credauth"
)

// RequireSession answers 401 unless Guard attached a session to the request.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			WriteError(w, credauth.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
