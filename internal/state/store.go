package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/session"
)

// Snapshot represents the latest data available to the watch view.
type Snapshot struct {
	Identity            *session.Identity
	Records             []attendance.Record
	HasRecords          bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// SignedOut reports whether the last poll failed because the session could
// not be renewed.
func (s Snapshot) SignedOut() bool {
	return errors.Is(s.LastError, api.ErrUnauthorized)
}

// Summary tallies the current records by status.
func (s Snapshot) Summary() attendance.Summary {
	return attendance.Summarize(s.Records)
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(user *session.Identity, records []attendance.Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Records = cloneRecords(records)
	s.snapshot.HasRecords = true
	if user != nil {
		dup := *user
		s.snapshot.Identity = &dup
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Records = cloneRecords(s.snapshot.Records)
	if s.snapshot.Identity != nil {
		dup := *s.snapshot.Identity
		snap.Identity = &dup
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneRecords(items []attendance.Record) []attendance.Record {
	if len(items) == 0 {
		return nil
	}
	dup := make([]attendance.Record, len(items))
	copy(dup, items)
	return dup
}
