// Package jwt signs and verifies the session cookie token.
//
// The token is an HS256 JWT whose only application claim is the opaque session
// handle (sid). It carries no identity: the session table remains the source of
// truth, and a valid token for a destroyed session resolves to nothing.
package jwt
