package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/middleware"
)

func ok(message string) middleware.Response {
	return middleware.Response{Success: true, Message: message}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, fmt.Errorf("%w: malformed body", credauth.ErrInvalidInput))
		return false
	}
	return true
}

func sessionHandle(r *http.Request) string {
	info, _ := middleware.SessionFromContext(r.Context())
	return info.Handle
}

// POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := s.engine.Register(r.Context(), req.Username, req.Password); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ok("Registration successful"))
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.Login(r.Context(), req.Username, req.Password, req.Token)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.SetSessionCookie(w, s.session, res.Token, res.TokenExpiresAt)
	middleware.WriteJSON(w, http.StatusOK, LoginResponse{
		Response: ok("Login successful"),
		User: PublicUser{
			ID:          res.User.ID,
			Username:    res.User.Username,
			TOTPEnabled: res.User.TOTPEnabled,
		},
		ExpiresAt: res.TokenExpiresAt,
	})
}

// GET|POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if handle := sessionHandle(r); handle != "" {
		if err := s.engine.Logout(r.Context(), handle); err != nil {
			middleware.WriteError(w, err)
			return
		}
	}
	middleware.ClearSessionCookie(w, s.session)
	middleware.WriteJSON(w, http.StatusOK, ok("Logout successful"))
}

// POST /2fa/setup
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	setup, err := s.engine.SetupTwoFactor(r.Context(), sessionHandle(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	dataURL, err := s.renderQR(setup.ProvisioningURI, s.qrSize)
	if err != nil {
		s.logger.Error(r.Context(), "qr render failed", "error", err)
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, SetupResponse{
		Response:      ok("2FA set up"),
		QRCodeDataURL: dataURL,
		OTPAuthURL:    setup.ProvisioningURI,
		Secret:        setup.Secret,
	})
}

// POST /2fa/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.VerifyTwoFactor(r.Context(), sessionHandle(r), req.Token); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ok("2FA code correct"))
}

// GET /session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	info, _ := middleware.SessionFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, SessionResponse{
		Response:       ok("OK"),
		User:           PublicUser{ID: info.UserID, Username: info.Username},
		CreatedAt:      info.CreatedAt,
		LastActivityAt: info.LastActivityAt,
	})
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ready(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "readiness check failed", "error", err)
		middleware.WriteJSON(w, http.StatusServiceUnavailable, middleware.Response{Success: false, Message: "Unavailable"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ok("OK"))
}
