package credauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/MrEthical07/credauth/internal/audit"
)

// AuditErrorCode is the stable failure code written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrDuplicate        AuditErrorCode = "duplicate"
	auditErrUserNotFound     AuditErrorCode = "user_not_found"
	auditErrWrongPassword    AuditErrorCode = "wrong_password"
	auditErrTOTPRequired     AuditErrorCode = "totp_required"
	auditErrTOTPInvalid      AuditErrorCode = "totp_invalid"
	auditErrNotEnrolled      AuditErrorCode = "not_enrolled"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

type auditRecord struct {
	kind        string
	success     bool
	username    string
	userID      string
	handle      string
	description string
	err         error
	metadata    func() map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, rec auditRecord) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if rec.metadata != nil {
		metadata = rec.metadata()
	}

	event := audit.Event{
		Timestamp:   e.now().UTC(),
		Type:        rec.kind,
		Username:    rec.username,
		UserID:      rec.userID,
		SessionID:   sessionRef(rec.handle),
		IP:          clientIPFromContext(ctx),
		Success:     rec.success,
		Description: rec.description,
		Metadata:    metadata,
	}
	if code := auditErrorCode(rec.err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// sessionRef is a short digest of the handle so audit records can be correlated
// without storing the handle itself.
func sessionRef(handle string) string {
	if handle == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(handle))
	return hex.EncodeToString(sum[:6])
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrDuplicateUser):
		return auditErrDuplicate
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrWrongPassword):
		return auditErrWrongPassword
	case errors.Is(err, ErrTOTPRequired):
		return auditErrTOTPRequired
	case errors.Is(err, ErrWrongTOTPCode):
		return auditErrTOTPInvalid
	case errors.Is(err, ErrNotEnrolled):
		return auditErrNotEnrolled
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}
