package api

import (
	"encoding/json"
	"strings"
)

// StatusSuccess is the envelope status the backend uses for successful calls.
const StatusSuccess = "success"

// Envelope is the wrapper every backend response uses.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	// Error is set by some error paths instead of Message.
	Error string `json:"error,omitempty"`
}

// OK reports whether the envelope signals success. An empty status is
// accepted so bare JSON bodies still decode.
func (e Envelope) OK() bool {
	status := strings.ToLower(strings.TrimSpace(e.Status))
	return status == "" || status == StatusSuccess || status == "ok"
}

// Reason returns the backend-provided explanation, if any.
func (e Envelope) Reason() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Error)
}
