// Package metrics counts what the auth layer does to requests: credential
// renewals, replays, and sessions dropped after a failed renewal.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Renewal results.
const (
	RenewalOK        = "ok"
	RenewalFailed    = "failed"
	RenewalCoalesced = "coalesced"
)

// Replay outcomes.
const (
	ReplayOK           = "ok"
	ReplayUnauthorized = "unauthorized"
	ReplayError        = "error"
	ReplaySkipped      = "skipped"
)

// Recorder holds the auth counters.
type Recorder struct {
	gatherer prometheus.Gatherer

	renewals *prometheus.CounterVec
	replays  *prometheus.CounterVec
	dropped  prometheus.Counter
}

// New registers the auth counters on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r, err := NewWith(reg)
	if err != nil {
		// A fresh registry cannot hold conflicting collectors.
		panic(err)
	}
	r.gatherer = reg
	return r
}

// NewWith registers the auth counters on reg.
func NewWith(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollcall",
			Subsystem: "auth",
			Name:      "renewals_total",
			Help:      "Credential renewals by result.",
		}, []string{"result"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollcall",
			Subsystem: "auth",
			Name:      "replays_total",
			Help:      "Requests resubmitted after renewal, by outcome.",
		}, []string{"outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollcall",
			Subsystem: "auth",
			Name:      "session_dropped_total",
			Help:      "Sessions cleared because renewal was impossible.",
		}),
	}
	for _, c := range []prometheus.Collector{r.renewals, r.replays, r.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r, nil
}

// Renewal counts one renewal attempt.
func (r *Recorder) Renewal(result string) {
	if r == nil {
		return
	}
	r.renewals.WithLabelValues(result).Inc()
}

// Replay counts one replayed (or skipped) request.
func (r *Recorder) Replay(outcome string) {
	if r == nil {
		return
	}
	r.replays.WithLabelValues(outcome).Inc()
}

// SessionDropped counts a forced logout.
func (r *Recorder) SessionDropped() {
	if r == nil {
		return
	}
	r.dropped.Inc()
}

// RenewalCounter returns the renewal counter for result.
func (r *Recorder) RenewalCounter(result string) prometheus.Counter {
	return r.renewals.WithLabelValues(result)
}

// ReplayCounter returns the replay counter for outcome.
func (r *Recorder) ReplayCounter(outcome string) prometheus.Counter {
	return r.replays.WithLabelValues(outcome)
}

// DroppedCounter returns the forced-logout counter.
func (r *Recorder) DroppedCounter() prometheus.Counter {
	return r.dropped
}

// WriteText writes every non-zero counter as "name{labels} value" lines,
// sorted by name.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil || r.gatherer == nil {
		return nil
	}
	families, err := r.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
