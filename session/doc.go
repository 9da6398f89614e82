// Package session owns the in-memory session table and the dual-timer expiry rules.
//
// Every session carries two independent clocks. The idle timer measures time since
// the last accepted request and is reset by each successful [Manager.Touch]. The
// absolute timer measures time since the session became active and is never reset.
// Whichever fires first moves the session to a terminal state and removes it from
// the table; there is no reactivation.
//
//	ACTIVE -> EXPIRED_IDLE | EXPIRED_ABSOLUTE | TERMINATED
//
// [Manager.Create] is the first observation: both clocks start there, and
// CreatedAt never moves afterwards.
//
// # Architecture boundaries
//
// This package owns the handle-to-session map and all timestamp arithmetic. It does
// not read cookies, sign tokens or load users; the Engine maps a transport token to a
// handle before calling in, and the principal stored here is a snapshot.
//
// # What this package must NOT do
//
//   - Persist sessions anywhere. The table lives for the process lifetime only.
//   - Import credauth or any transport package.
//   - Hold its lock while invoking caller-supplied callbacks.
package session
