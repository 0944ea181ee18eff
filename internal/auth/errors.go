package auth

import (
	"errors"
	"fmt"

	"github.com/five82/rollcall/internal/api"
)

var (
	// ErrAuthFailed is returned when the backend rejects a login.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRegistrationFailed is returned when the backend rejects a new account.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrRenewalFailed is returned when the credential cannot be refreshed.
	ErrRenewalFailed = errors.New("renewal failed")
)

// Error reports a failed auth operation together with the reason the
// backend gave.
type Error struct {
	Op     string
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason extracts the backend-reported reason from err, if any.
func Reason(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	if se, ok := api.AsStatusError(err); ok {
		return se.Reason()
	}
	return ""
}

// rejection converts a backend refusal into an *Error of the given kind.
// Errors that are not backend responses are returned wrapped but keep their
// own identity.
func rejection(op string, kind error, err error) error {
	if se, ok := api.AsStatusError(err); ok {
		return &Error{Op: op, Kind: kind, Reason: se.Reason(), Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
