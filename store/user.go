package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// User is a persisted credential record. JSON tags follow the on-disk layout of
// the users file.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	TOTPSecret   string    `json:"twoFactorSecret,omitempty"`
	TOTPEnabled  bool      `json:"isTwoFactorEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts the id as a string or as an integer, the form written by
// millisecond-timestamp ids in older users files. Numeric ids are kept as their
// decimal text.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		u.ID = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &u.ID)
	default:
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("user id %s: %w", raw, err)
		}
		u.ID = strconv.FormatInt(id, 10)
	}
	return nil
}

// ErrInvalidRecord is returned when a user violates a record invariant.
var ErrInvalidRecord = errors.New("invalid user record")

// Validate checks record invariants: identity fields are present and
// TOTPEnabled implies a secret.
func (u User) Validate() error {
	if u.ID == "" || u.Username == "" || u.PasswordHash == "" {
		return ErrInvalidRecord
	}
	if u.TOTPEnabled && u.TOTPSecret == "" {
		return ErrInvalidRecord
	}
	return nil
}

// EnableTOTP sets the secret and the enabled flag together.
func (u *User) EnableTOTP(secret string) {
	u.TOTPSecret = secret
	u.TOTPEnabled = secret != ""
}
