package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/metrics"
	"github.com/five82/rollcall/internal/session"
)

var alice = session.Identity{
	ID:            1,
	Username:      "alice",
	Email:         "alice@example.test",
	Role:          session.RoleAdmin,
	FirstName:     "Alice",
	LastName:      "Martin",
	PersonnelType: "staff",
}

// backend is a fake attendance API. Credentials are "tokN" strings; only
// those in valid are accepted by protected routes.
type backend struct {
	mu sync.Mutex

	issued       int
	valid        map[string]bool
	refreshFail  bool
	refreshEmpty bool
	refreshGate  chan struct{}

	refreshAuth []string
	hits        map[string]int
	auth        map[string][]string
	bodies      map[string][]string
}

func newBackend() *backend {
	return &backend{
		valid:  map[string]bool{},
		hits:   map[string]int{},
		auth:   map[string][]string{},
		bodies: map[string][]string{},
	}
}

func (b *backend) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)
		r.Post("/auth/refresh", b.refresh)
		r.Get("/auth/me", b.protected(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"user": alice}})
		}))
		r.Get("/resource", b.protected(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]string{"value": "ok"}})
		}))
		r.Post("/echo", b.protected(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": payload})
		}))
		r.Get("/always401", func(w http.ResponseWriter, r *http.Request) {
			b.record(r, "")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "account disabled"})
		})
	})
	return r
}

func (b *backend) issue() string {
	b.issued++
	tok := "tok" + strconv.Itoa(b.issued)
	b.valid[tok] = true
	return tok
}

func (b *backend) record(r *http.Request, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[r.URL.Path]++
	b.auth[r.URL.Path] = append(b.auth[r.URL.Path], strings.Join(r.Header.Values("Authorization"), ","))
	if body != "" {
		b.bodies[r.URL.Path] = append(b.bodies[r.URL.Path], body)
	}
}

func (b *backend) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		b.record(r, string(raw))
		r.Body = io.NopCloser(bytes.NewReader(raw))

		b.mu.Lock()
		ok := b.valid[bearerToken(r.Header.Get("Authorization"))]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "token expired"})
			return
		}
		next(w, r)
	}
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Username != "alice" || req.Password != "pw" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "invalid credentials"})
		return
	}
	b.mu.Lock()
	tok := b.issue()
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"token": tok, "user": alice},
	})
}

func (b *backend) register(w http.ResponseWriter, r *http.Request) {
	var reg Registration
	_ = json.NewDecoder(r.Body).Decode(&reg)
	if reg.Username == "alice" {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "error", "message": "username already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "account created",
		"data": map[string]any{"user": session.Identity{
			ID:        2,
			Username:  reg.Username,
			Email:     reg.Email,
			Role:      reg.Role,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
		}},
	})
}

func (b *backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshAuth = append(b.refreshAuth, r.Header.Get("Authorization"))
	switch {
	case b.refreshFail:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "refresh token expired"})
	case b.refreshEmpty:
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]string{}})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]string{"token": b.issue()}})
	}
}

func (b *backend) refreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.refreshAuth)
}

func (b *backend) refreshHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.refreshAuth...)
}

func (b *backend) bodiesFor(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies[path]...)
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) authHeaders(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth[path]...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type harness struct {
	backend    *backend
	server     *httptest.Server
	store      *session.Store
	session    *Session
	renewer    *Renewer
	gatekeeper *Gatekeeper
	lifecycle  *Lifecycle
	authed     *api.Client
	http       *http.Client
	metrics    *metrics.Recorder
	logs       *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	b := newBackend()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := metrics.New()
	store := session.NewStore(session.NewMemorySlots())
	sess := NewSession(store, logger, rec)

	base := api.Chain(server.Client().Transport, api.UserAgent(""), api.AcceptJSON())
	public, err := api.NewClient(server.URL+"/api", &http.Client{Transport: base})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	renewer := NewRenewer(public, sess)
	gk := NewGatekeeper(base, sess, renewer)
	httpClient := &http.Client{Transport: api.Chain(gk, api.RequestID())}
	authed, err := api.NewClient(server.URL+"/api", httpClient)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	return &harness{
		backend:    b,
		server:     server,
		store:      store,
		session:    sess,
		renewer:    renewer,
		gatekeeper: gk,
		lifecycle:  NewLifecycle(sess, public, authed),
		authed:     authed,
		http:       httpClient,
		metrics:    rec,
		logs:       logs,
	}
}

// staleSession stores tok1 as if it had been issued and has since expired.
func (h *harness) staleSession(t *testing.T) {
	t.Helper()
	h.backend.set(func(b *backend) { b.issued = 1 })
	if err := h.store.Save(context.Background(), "tok1", alice); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	tok, err := h.store.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	return tok
}
