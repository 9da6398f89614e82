package credauth

import (
	"time"

	"github.com/MrEthical07/credauth/session"
	"github.com/MrEthical07/credauth/store"
)

// User is the public view of a credential record. The password digest and TOTP
// secret never leave the Engine through it.
type User struct {
	ID          string
	Username    string
	TOTPEnabled bool
	CreatedAt   time.Time
}

func userFromRecord(u store.User) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		TOTPEnabled: u.TOTPEnabled,
		CreatedAt:   u.CreatedAt,
	}
}

// SessionInfo is a snapshot of a live or just-ended session.
type SessionInfo struct {
	Handle         string
	UserID         string
	Username       string
	State          string
	CreatedAt      time.Time
	LastActivityAt time.Time
}

func sessionInfo(s session.Session) SessionInfo {
	return SessionInfo{
		Handle:         s.Handle,
		UserID:         s.Principal.UserID,
		Username:       s.Principal.Username,
		State:          s.State.String(),
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
	}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User    User
	Session SessionInfo
	// Token is the signed cookie value carrying the session handle.
	Token          string
	TokenExpiresAt time.Time
}

// TwoFactorSetup is returned by SetupTwoFactor. ProvisioningURI is meant for
// QR rendering; Secret is shown for manual entry.
type TwoFactorSetup struct {
	ProvisioningURI string
	Secret          string
}
