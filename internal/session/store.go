package session

import (
	"context"
	"encoding/json"
	"fmt"
)

// Slot names. Both are written together on login and removed together on
// Clear.
const (
	TokenSlot = "token"
	UserSlot  = "user"
)

// Store persists the current credential and identity. It performs no
// validation; callers decide what a consistent session looks like.
type Store struct {
	slots Slots
}

// NewStore wraps slots. A nil slots value falls back to memory.
func NewStore(slots Slots) *Store {
	if slots == nil {
		slots = NewMemorySlots()
	}
	return &Store{slots: slots}
}

// Save writes the credential and the JSON-encoded identity together.
func (s *Store) Save(ctx context.Context, token string, user Identity) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.slots.Set(ctx, map[string]string{
		TokenSlot: token,
		UserSlot:  string(encoded),
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SetToken replaces the credential and leaves the identity as is.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.slots.Set(ctx, map[string]string{TokenSlot: token}); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes both slots. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.slots.Delete(ctx, TokenSlot, UserSlot); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Token returns the stored credential, or "" when none is held.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, _, err := s.slots.Get(ctx, TokenSlot)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Identity returns the stored identity, or nil when none is held.
func (s *Store) Identity(ctx context.Context) (*Identity, error) {
	raw, ok, err := s.slots.Get(ctx, UserSlot)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var user Identity
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &user, nil
}
