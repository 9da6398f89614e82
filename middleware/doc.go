// Package middleware adapts credauth session checks to net/http.
//
// [Guard] runs in front of every route. It reads the session cookie, verifies
// the signed token, and calls Engine.Touch so both expiry timers are checked
// and activity is recorded before any handler runs. An expired session gets its
// cookie cleared and a 440 JSON answer. A request without a cookie, or with a
// token that does not verify, continues unauthenticated.
//
// [RequireSession] rejects requests that reached it without a session.
//
// Authentication decisions stay in the Engine; this package only translates
// between HTTP and Engine calls.
package middleware
