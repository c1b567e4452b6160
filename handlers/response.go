package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// writeJSON encodes before writing the header so an unencodable payload can
// still become a 500.
func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(resp); err != nil {
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

// Error writes err with the status and user-safe message the engine assigns
// to it.
func Error(w http.ResponseWriter, err error) {
	writeJSON(w, goSession.HTTPStatus(err), APIResponse{Error: goSession.PublicMessage(err)})
}

// ErrorWithMessage writes a failure envelope with a fixed message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Error: message})
}
