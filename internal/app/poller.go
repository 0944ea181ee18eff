package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/session"
	"github.com/five82/rollcall/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// IdentityFetcher returns the signed-in user from the backend.
type IdentityFetcher interface {
	FetchCurrentIdentity(ctx context.Context) (*session.Identity, error)
}

// Sources are what the poller reads on each pass.
type Sources struct {
	Identity IdentityFetcher
	Records  attendance.Lister
	Filter   attendance.Filter
}

// StartPoller launches a background goroutine that refreshes the store,
// backing off while polls fail. It stops when ctx is done or the session
// can no longer be renewed; the returned channel is closed on exit.
func StartPoller(ctx context.Context, store *state.Store, src Sources, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			refresh(ctx, store, src, logger)
			snap := store.Snapshot()
			if snap.SignedOut() {
				logger.Warn("watch stopped, session ended", "event", "poll.signed_out")
				return
			}
			timer.Reset(calculateBackoff(snap.ConsecutiveFailures, interval))
		}
	}()
	return done
}

func refresh(ctx context.Context, store *state.Store, src Sources, logger *slog.Logger) {
	var user *session.Identity
	if src.Identity != nil && store.Snapshot().Identity == nil {
		u, err := src.Identity.FetchCurrentIdentity(ctx)
		if err != nil {
			store.Update(nil, nil, err)
			logger.Warn("identity poll failed", "event", "poll.failed", "error", err)
			return
		}
		user = u
	}
	records, err := src.Records.List(ctx, src.Filter)
	if err != nil {
		store.Update(nil, nil, err)
		logger.Warn("attendance poll failed", "event", "poll.failed", "error", err)
		return
	}
	store.Update(user, records, nil)
	logger.Debug("attendance polled", "event", "poll.ok", "records", len(records))
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
