package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/metrics"
)

// Backend endpoints, relative to the API base URL.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	MePath       = "/auth/me"
	RefreshPath  = "/auth/refresh"
)

// Renewer exchanges a credential for a fresh one.
type Renewer struct {
	// client must not route through a Gatekeeper.
	client  *api.Client
	session *Session
	group   singleflight.Group
	log     *slog.Logger
	metrics *metrics.Recorder
}

type tokenData struct {
	Token string `json:"token"`
}

// NewRenewer returns a Renewer that calls RefreshPath through client and
// stores the result in s.
func NewRenewer(client *api.Client, s *Session) *Renewer {
	return &Renewer{client: client, session: s, log: s.log, metrics: s.metrics}
}

// Renew exchanges current for a new credential and persists it. Callers
// renewing the same credential at the same time share one request. Every
// failure matches ErrRenewalFailed; nothing is retried.
func (r *Renewer) Renew(ctx context.Context, current string) (string, error) {
	if current == "" {
		r.metrics.Renewal(metrics.RenewalFailed)
		return "", &Error{Op: "refresh", Kind: ErrRenewalFailed, Reason: "no credential held"}
	}

	// The shared call outlives any single waiter's cancellation; the HTTP
	// client timeout bounds it.
	ch := r.group.DoChan(current, func() (any, error) {
		return r.renew(context.WithoutCancel(ctx), current)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			r.metrics.Renewal(metrics.RenewalCoalesced)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &Error{Op: "refresh", Kind: ErrRenewalFailed, Reason: "canceled", Err: ctx.Err()}
	}
}

func (r *Renewer) renew(ctx context.Context, current string) (string, error) {
	var data tokenData
	err := r.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   RefreshPath,
		Header: http.Header{"Authorization": {"Bearer " + current}},
	}, &data)
	if err != nil {
		r.metrics.Renewal(metrics.RenewalFailed)
		reason := Reason(err)
		if reason == "" {
			reason = "refresh request failed"
		}
		return "", &Error{Op: "refresh", Kind: ErrRenewalFailed, Reason: reason, Err: err}
	}
	if data.Token == "" {
		r.metrics.Renewal(metrics.RenewalFailed)
		return "", &Error{Op: "refresh", Kind: ErrRenewalFailed, Reason: "response missing token"}
	}
	if err := r.session.replaceToken(ctx, current, data.Token); err != nil {
		r.metrics.Renewal(metrics.RenewalFailed)
		reason := "store credential"
		if errors.Is(err, errSessionChanged) {
			reason = "session changed"
			r.log.Debug("discarding renewed credential", "reason", reason)
		}
		return "", &Error{Op: "refresh", Kind: ErrRenewalFailed, Reason: reason, Err: err}
	}
	r.metrics.Renewal(metrics.RenewalOK)
	r.log.Info("credential renewed")
	return data.Token, nil
}
