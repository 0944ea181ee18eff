package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/five82/rollcall/internal/metrics"
	"github.com/five82/rollcall/internal/session"
)

// Session is the process-wide view of the stored credential and identity.
// Reads are derived from the store on every call, so a renewal or logout
// performed elsewhere is visible immediately.
type Session struct {
	// mu serializes writes so a renewal cannot land after a logout or a
	// newer login.
	mu      sync.Mutex
	store   *session.Store
	log     *slog.Logger
	metrics *metrics.Recorder
}

// NewSession wraps store. A nil logger discards output.
func NewSession(store *session.Store, logger *slog.Logger, rec *metrics.Recorder) *Session {
	if store == nil {
		store = session.NewStore(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{store: store, log: logger, metrics: rec}
}

// Store returns the underlying session store.
func (s *Session) Store() *session.Store {
	return s.store
}

// Token returns the held credential, or "" when there is none. Storage
// errors are logged and read as "no credential".
func (s *Session) Token(ctx context.Context) string {
	token, err := s.store.Token(ctx)
	if err != nil {
		s.log.Warn("read credential failed", "error", err)
		return ""
	}
	return token
}

// StoredIdentity returns the stored identity. It is nil when no credential
// is held, even if an identity record lingers in storage.
func (s *Session) StoredIdentity(ctx context.Context) *session.Identity {
	if s.Token(ctx) == "" {
		return nil
	}
	user, err := s.store.Identity(ctx)
	if err != nil {
		s.log.Warn("read identity failed", "error", err)
		return nil
	}
	return user
}

// IsAuthenticated reports whether a credential is held.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// HasRole reports whether the stored identity holds r. It is false when no
// identity is stored.
func (s *Session) HasRole(ctx context.Context, r session.Role) bool {
	user := s.StoredIdentity(ctx)
	return user != nil && user.HasRole(r)
}

// IsAdmin is HasRole(RoleAdmin).
func (s *Session) IsAdmin(ctx context.Context) bool {
	return s.HasRole(ctx, session.RoleAdmin)
}

// Logout clears the credential and identity. It never fails and is safe to
// call without a session.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("clear session failed", "error", err)
	}
}

// drop is the forced logout used when renewal is impossible.
func (s *Session) drop(ctx context.Context, reason string, err error) {
	s.Logout(ctx)
	s.metrics.SessionDropped()
	attrs := []any{"event", "auth.session_dropped", "reason", reason}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.log.Warn("session dropped", attrs...)
}

// errSessionChanged means the credential being renewed is no longer the one
// held, because of a logout or another login.
var errSessionChanged = errors.New("session changed during renewal")

// save stores a fresh login.
func (s *Session) save(ctx context.Context, token string, user session.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save(ctx, token, user)
}

// replaceToken stores fresh only while current is still the held credential.
func (s *Session) replaceToken(ctx context.Context, current, fresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, err := s.store.Token(ctx)
	if err != nil {
		return err
	}
	if held != current {
		return errSessionChanged
	}
	return s.store.SetToken(ctx, fresh)
}
