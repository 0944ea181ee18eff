package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/session"
)

// Registration holds the fields for a new account.
type Registration struct {
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	Password      string       `json:"password"`
	Role          session.Role `json:"role,omitempty"`
	FirstName     string       `json:"first_name,omitempty"`
	LastName      string       `json:"last_name,omitempty"`
	PersonnelType string       `json:"personnel_type,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	Token string            `json:"token"`
	User  *session.Identity `json:"user"`
}

// Lifecycle runs the operations that change the session. Login and
// registration go through public, which must not carry a Gatekeeper; the
// identity lookup goes through authed, which should.
type Lifecycle struct {
	*Session

	public *api.Client
	authed *api.Client
}

// NewLifecycle builds a Lifecycle over s.
func NewLifecycle(s *Session, public, authed *api.Client) *Lifecycle {
	return &Lifecycle{Session: s, public: public, authed: authed}
}

// Login authenticates and stores the credential and identity. Nothing is
// stored when the backend refuses; the error then matches ErrAuthFailed and
// carries the backend's reason.
func (l *Lifecycle) Login(ctx context.Context, username, password string) (*session.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &Error{Op: "login", Kind: ErrAuthFailed, Reason: "username and password are required"}
	}

	var data loginData
	if err := l.public.Post(ctx, LoginPath, loginRequest{Username: username, Password: password}, &data); err != nil {
		return nil, rejection("login", ErrAuthFailed, err)
	}
	if data.Token == "" {
		return nil, &Error{Op: "login", Kind: ErrAuthFailed, Reason: "response missing token"}
	}
	if data.User == nil {
		return nil, &Error{Op: "login", Kind: ErrAuthFailed, Reason: "response missing user"}
	}
	if err := l.save(ctx, data.Token, *data.User); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	l.log.Info("logged in", "user", data.User.Username, "role", data.User.Role)
	return data.User, nil
}

// Register creates an account. It does not log in.
func (l *Lifecycle) Register(ctx context.Context, reg Registration) (*session.Identity, error) {
	if strings.TrimSpace(reg.Username) == "" || reg.Password == "" {
		return nil, &Error{Op: "register", Kind: ErrRegistrationFailed, Reason: "username and password are required"}
	}

	var raw json.RawMessage
	if err := l.public.Post(ctx, RegisterPath, reg, &raw); err != nil {
		return nil, rejection("register", ErrRegistrationFailed, err)
	}
	user, err := decodeIdentity(raw)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if user == nil {
		// Some deployments answer with only a message.
		user = &session.Identity{
			Username:      reg.Username,
			Email:         reg.Email,
			Role:          reg.Role,
			FirstName:     reg.FirstName,
			LastName:      reg.LastName,
			PersonnelType: reg.PersonnelType,
		}
	}
	return user, nil
}

// FetchCurrentIdentity asks the backend who the held credential belongs to.
// The store is only touched by the Gatekeeper, if at all. A rejected
// credential yields an error matching api.ErrUnauthorized.
func (l *Lifecycle) FetchCurrentIdentity(ctx context.Context) (*session.Identity, error) {
	var raw json.RawMessage
	if err := l.authed.Get(ctx, MePath, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch current identity: %w", err)
	}
	user, err := decodeIdentity(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch current identity: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("fetch current identity: response missing user")
	}
	return user, nil
}

// decodeIdentity accepts either {"user": {...}} or a bare identity. It
// returns nil for empty payloads.
func decodeIdentity(raw json.RawMessage) (*session.Identity, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var wrapped struct {
		User *session.Identity `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}
	var user session.Identity
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if user.ID == 0 && user.Username == "" {
		return nil, nil
	}
	return &user, nil
}
