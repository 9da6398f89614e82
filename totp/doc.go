// Package totp implements RFC 6238 time-based one-time passwords on top of
// github.com/pquerna/otp.
//
// Secrets are base32 (no padding) throughout. Verification accepts the code for the
// current 30-second step and exactly one step either side; a code two steps away is
// rejected. Provisioning URIs use the otpauth://totp/ scheme understood by
// authenticator apps, and [RenderQRDataURL] turns one into a PNG data URI for clients
// that cannot render QR codes themselves.
//
// # Architecture boundaries
//
// The package knows nothing about users or sessions. Secret storage and the decision
// of when a second factor is required belong to the Engine.
package totp
