package httpapi

import (
	"time"

	"github.com/MrEthical07/credauth/middleware"
)

// CredentialsRequest is the body of /register and /login. Token is the TOTP
// code and is only read by /login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
}

// CodeRequest is the body of /2fa/verify.
type CodeRequest struct {
	Token string `json:"token"`
}

// PublicUser is the principal as shown to clients.
type PublicUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	TOTPEnabled bool   `json:"totpEnabled,omitempty"`
}

type LoginResponse struct {
	middleware.Response
	User      PublicUser `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type SetupResponse struct {
	middleware.Response
	QRCodeDataURL string `json:"qrCodeDataUrl"`
	OTPAuthURL    string `json:"otpauthUrl"`
	Secret        string `json:"secret"`
}

type SessionResponse struct {
	middleware.Response
	User           PublicUser `json:"user"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
}
