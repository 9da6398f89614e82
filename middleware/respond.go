package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/credauth"
)

// Response is the JSON envelope every endpoint answers with. Extra fields are
// added by embedding it.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes v with status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the status and message mapped from err.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, credauth.HTTPStatus(err), Response{Success: false, Message: credauth.Message(err)})
}
