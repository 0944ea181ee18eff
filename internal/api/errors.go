package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnauthorized matches any *StatusError carrying HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("transport error")
)

// StatusError is returned for non-2xx responses and for envelopes that do
// not report success.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Status is the envelope status field, when the body had one.
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Reason returns the backend message, or the HTTP status text when the body
// carried none.
func (e *StatusError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// AsStatusError extracts a *StatusError from err.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		se.Status = env.Status
		se.Message = env.Reason()
	}
	return se
}
