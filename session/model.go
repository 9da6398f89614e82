package session

import "time"

// State is the lifecycle position of a session.
type State uint8

const (
	StateActive State = iota
	StateExpiredIdle
	StateExpiredAbsolute
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateExpiredIdle:
		return "EXPIRED_IDLE"
	case StateExpiredAbsolute:
		return "EXPIRED_ABSOLUTE"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s != StateActive
}

// Principal is the identity snapshot bound to a session at creation. It is never
// refreshed from the credential store.
type Principal struct {
	UserID   string
	Username string
}

// Session is a copy of a table entry. Mutating it has no effect on the Manager.
type Session struct {
	Handle    string
	Principal Principal
	State     State

	// CreatedAt anchors the absolute timer and never changes.
	CreatedAt      time.Time
	LastActivityAt time.Time
}
