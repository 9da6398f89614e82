// Package credauth is a credential and session authority: it registers users,
// authenticates them against bcrypt password digests with an optional TOTP
// second factor, and tracks in-memory sessions that expire on two independent
// timers (idle and absolute).
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// credauth is the public surface. It exposes [Engine], [Builder], [Config] and
// value types (User, SessionInfo, TwoFactorSetup, MetricsSnapshot). Storage
// backends live under store/, primitives under password/, totp/, session/ and
// jwt/; HTTP concerns live under httpapi/ and middleware/.
//
// Core operations take an opaque session handle. Only [Engine.HandleFromToken]
// and [Engine.IssueToken] know about the signed cookie token.
//
// # What this package must NOT do
//
//   - Log or audit plaintext passwords, TOTP secrets, codes or cookie tokens.
//   - Persist sessions; they live and die with the process.
//   - Import httpapi or middleware (they import credauth).
package credauth
