package credauth

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput is returned for missing, empty or too-short fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingCode is returned by VerifyTwoFactor when no code was submitted.
	ErrMissingCode = errors.New("2fa code missing")

	// ErrUserNotFound is returned when no user matches the username or the session principal.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword is returned when the password does not match the stored digest.
	ErrWrongPassword = errors.New("wrong password")
	// ErrTOTPRequired is returned by Login when the user is enrolled and no code was submitted.
	ErrTOTPRequired = errors.New("2fa code required")
	// ErrWrongTOTPCode is returned when a submitted code is outside the acceptance window.
	ErrWrongTOTPCode = errors.New("wrong 2fa code")

	// ErrDuplicateUser is returned by Register when the username is taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrNotEnrolled is returned by VerifyTwoFactor when 2FA was never set up.
	ErrNotEnrolled = errors.New("2fa not enabled")
	// ErrNotAuthenticated is returned by session-bound operations without a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPrincipalGone marks a live session whose user record no longer exists.
	// It is always joined with ErrUserNotFound.
	ErrPrincipalGone = errors.New("session principal missing from store")

	// ErrSessionExpiredIdle is returned by Touch when the idle timer fired.
	ErrSessionExpiredIdle = errors.New("session expired (idle)")
	// ErrSessionExpiredAbsolute is returned by Touch when the absolute timer fired.
	ErrSessionExpiredAbsolute = errors.New("session expired (absolute)")
	// ErrSessionNotFound is returned by Touch and CurrentSession for unknown handles.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidToken is returned by HandleFromToken for any rejected cookie token.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrStoreUnavailable wraps credential store I/O failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrHashFailure wraps password hashing failures.
	ErrHashFailure = errors.New("password hashing failed")
	// ErrTOTPUnavailable wraps secret generation and URI construction failures.
	ErrTOTPUnavailable = errors.New("totp provisioning unavailable")
	// ErrSessionCreationFailed wraps session table and token signing failures.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// ErrorClass groups errors by who caused them and how the transport reports them.
type ErrorClass uint8

const (
	ClassNone ErrorClass = iota
	ClassInput
	ClassAuth
	ClassState
	ClassSessionExpiry
	ClassInfrastructure
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInput:
		return "input"
	case ClassAuth:
		return "auth"
	case ClassState:
		return "state"
	case ClassSessionExpiry:
		return "session_expiry"
	default:
		return "infrastructure"
	}
}

// StatusSessionExpired is the non-standard status used for both expiry kinds.
const StatusSessionExpired = 440

// Classify maps err onto the error taxonomy. Unknown errors are infrastructure.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingCode):
		return ClassInput
	case errors.Is(err, ErrDuplicateUser),
		errors.Is(err, ErrNotEnrolled),
		errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrPrincipalGone):
		return ClassState
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrTOTPRequired),
		errors.Is(err, ErrWrongTOTPCode):
		return ClassAuth
	case errors.Is(err, ErrSessionExpiredIdle), errors.Is(err, ErrSessionExpiredAbsolute):
		return ClassSessionExpiry
	default:
		return ClassInfrastructure
	}
}

// HTTPStatus returns the response status for err.
//
// ErrNotEnrolled and ErrDuplicateUser answer 400; a session whose user vanished
// answers 404, while an unknown user at login answers 401.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPrincipalGone):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrMissingCode),
		errors.Is(err, ErrDuplicateUser),
		errors.Is(err, ErrNotEnrolled):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionExpiredIdle), errors.Is(err, ErrSessionExpiredAbsolute):
		return StatusSessionExpired
	}

	switch Classify(err) {
	case ClassAuth, ClassState:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Infrastructure details are
// never included.
func Message(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrMissingCode):
		return "2FA code missing"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input"
	case errors.Is(err, ErrDuplicateUser):
		return "User already exists"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrWrongPassword):
		return "Wrong password"
	case errors.Is(err, ErrTOTPRequired):
		return "2FA code required"
	case errors.Is(err, ErrWrongTOTPCode):
		return "Wrong 2FA code"
	case errors.Is(err, ErrNotEnrolled):
		return "2FA not enabled"
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrInvalidToken):
		return "Not logged in"
	case errors.Is(err, ErrSessionExpiredIdle):
		return "Session expired (idle)"
	case errors.Is(err, ErrSessionExpiredAbsolute):
		return "Session expired (absolute)"
	default:
		return "Internal server error"
	}
}
