package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/metrics"
)

// Attempt is the per-request retry state.
type Attempt int32

const (
	AttemptInitial Attempt = iota
	AttemptRetried
)

func (a Attempt) String() string {
	if a == AttemptRetried {
		return "retried"
	}
	return "initial"
}

// attempt is shared by one request and its replay. It moves from Initial to
// Retried once and never back.
type attempt struct {
	state atomic.Int32
}

// markRetried reports whether this call performed the transition.
func (a *attempt) markRetried() bool {
	return a.state.CompareAndSwap(int32(AttemptInitial), int32(AttemptRetried))
}

type attemptKey struct{}

// WithAttempt returns a context whose requests start in state a. Passing
// AttemptRetried disables renewal for requests made with the context.
func WithAttempt(ctx context.Context, a Attempt) context.Context {
	return context.WithValue(ctx, attemptKey{}, a)
}

// AttemptOf returns the starting attempt state recorded in ctx.
func AttemptOf(ctx context.Context) Attempt {
	if a, ok := ctx.Value(attemptKey{}).(Attempt); ok {
		return a
	}
	return AttemptInitial
}

// Gatekeeper attaches the held credential, and on 401 renews it once and
// replays the request once.
type Gatekeeper struct {
	next     http.RoundTripper
	session  *Session
	attacher *Attacher
	renewer  *Renewer
}

var _ http.RoundTripper = (*Gatekeeper)(nil)

// NewGatekeeper wraps next. Renewal goes through r, which must not route
// back through the returned Gatekeeper.
func NewGatekeeper(next http.RoundTripper, s *Session, r *Renewer) *Gatekeeper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Gatekeeper{next: next, session: s, attacher: NewAttacher(s), renewer: r}
}

// RoundTrip implements http.RoundTripper.
func (g *Gatekeeper) RoundTrip(req *http.Request) (*http.Response, error) {
	st := &attempt{}
	st.state.Store(int32(AttemptOf(req.Context())))
	return g.send(req, st, g.attacher)
}

func (g *Gatekeeper) send(req *http.Request, st *attempt, attach api.Decorator) (*http.Response, error) {
	resp, err := g.next.RoundTrip(attach.Decorate(req))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	// Claim the single retry before renewing. A request that already holds
	// it gets its 401 back as is.
	if !st.markRetried() {
		return resp, nil
	}

	ctx := req.Context()
	current := g.session.Token(ctx)
	if current == "" {
		g.session.drop(ctx, "no credential held", nil)
		return resp, nil
	}
	fresh, err := g.renewer.Renew(ctx, current)
	if err != nil {
		// The caller gave up; the session is left as it is.
		if ctxErr := ctx.Err(); ctxErr != nil {
			discard(resp)
			return nil, ctxErr
		}
		// A logout or login replaced the credential mid-renewal.
		if errors.Is(err, errSessionChanged) {
			return resp, nil
		}
		g.session.drop(ctx, Reason(err), err)
		return resp, nil
	}

	replay, ok := rewind(req)
	if !ok {
		g.session.log.Debug("request body not replayable", "method", req.Method, "path", req.URL.Path)
		g.session.metrics.Replay(metrics.ReplaySkipped)
		return resp, nil
	}
	discard(resp)

	g.session.log.Debug("replaying request", "method", req.Method, "path", req.URL.Path)
	out, err := g.send(replay, st, api.DecoratorFunc(func(r *http.Request) *http.Request {
		return DecorateWith(r, fresh)
	}))
	switch {
	case err != nil:
		g.session.metrics.Replay(metrics.ReplayError)
	case out.StatusCode == http.StatusUnauthorized:
		g.session.metrics.Replay(metrics.ReplayUnauthorized)
	default:
		g.session.metrics.Replay(metrics.ReplayOK)
	}
	return out, err
}

// rewind returns a copy of req with a fresh body, or false when the body
// cannot be read again.
func rewind(req *http.Request) (*http.Request, bool) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	out.Body = body
	return out, true
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
