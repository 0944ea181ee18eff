package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/config"
	"github.com/five82/rollcall/internal/prefs"
	"github.com/five82/rollcall/internal/session"
)

var bob = session.Identity{ID: 2, Username: "bob", Role: session.RoleTeacher, FirstName: "Bob"}

type fakeBackend struct {
	mu        sync.Mutex
	loginHdrs []http.Header
}

func (f *fakeBackend) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.loginHdrs = append(f.loginHdrs, r.Header.Clone())
			f.mu.Unlock()

			var body struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Username != "bob" || body.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "success",
				"data":   map[string]any{"token": "good", "user": bob},
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.Header.Get("Authorization") != "Bearer good" {
						writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "token expired"})
						return
					}
					next.ServeHTTP(w, r)
				})
			})
			r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"user": bob}})
			})
			r.Get("/attendances", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"status": "success",
					"data": []attendance.Record{
						{ID: 1, PersonnelID: 2, Date: "2026-03-02", CheckIn: "08:01:00", Status: attendance.StatusPresent},
					},
				})
			})
		})
	})
	return r
}

func (f *fakeBackend) headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.loginHdrs...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type testEnv struct {
	server  *httptest.Server
	backend *fakeBackend
	dir     string
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{
		config.EnvAPIURL, config.EnvSessionBackend, config.EnvSessionPath,
		config.EnvRedisAddr, config.EnvRedisPassword, config.EnvRedisPrefix,
		config.EnvRequestTimeout, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	b := &fakeBackend{}
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)
	return &testEnv{server: server, backend: b, dir: dir, logs: &bytes.Buffer{}}
}

func (e *testEnv) options(backend string) Options {
	return Options{
		ConfigPath:     filepath.Join(e.dir, "config.toml"),
		EnvFile:        filepath.Join(e.dir, "missing.env"),
		PrefsPath:      filepath.Join(e.dir, "prefs.toml"),
		APIURL:         e.server.URL + "/api",
		SessionBackend: backend,
		LogLevel:       "debug",
		LogOutput:      e.logs,
	}
}

func newApp(t *testing.T, opts Options) *App {
	t.Helper()
	a, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_MemoryBackendLoginListLogout(t *testing.T) {
	env := newTestEnv(t)
	a := newApp(t, env.options(config.BackendMemory))
	ctx := context.Background()

	user, err := a.Login(ctx, "bob", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.Username != "bob" || !a.Session.IsAuthenticated(ctx) {
		t.Fatalf("user = %#v, authenticated = %v", user, a.Session.IsAuthenticated(ctx))
	}

	hdrs := env.backend.headers()
	if len(hdrs) != 1 || hdrs[0].Get("User-Agent") != api.DefaultUserAgent || hdrs[0].Get(api.RequestIDHeader) == "" {
		t.Fatalf("login headers = %v, want user agent and request id", hdrs)
	}
	if hdrs[0].Get("Authorization") != "" {
		t.Fatalf("login carried Authorization %q", hdrs[0].Get("Authorization"))
	}

	records, err := a.Attendance.List(ctx, attendance.Filter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 1 || records[0].Status != attendance.StatusPresent {
		t.Fatalf("records = %#v, want one present record", records)
	}

	p, _ := prefs.Load(a.PrefsPath)
	if p.LastUsername != "bob" {
		t.Fatalf("LastUsername = %q, want bob", p.LastUsername)
	}

	a.Session.Logout(ctx)
	if a.Session.IsAuthenticated(ctx) {
		t.Fatalf("still authenticated after Logout")
	}
}

func TestNew_FileBackendSurvivesRestart(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv(config.EnvSessionPath, filepath.Join(env.dir, "state", "session.toml"))
	ctx := context.Background()

	first := newApp(t, env.options(config.BackendFile))
	if _, err := first.Login(ctx, "bob", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	second := newApp(t, env.options(""))
	if second.Config.SessionBackend != config.BackendFile {
		t.Fatalf("SessionBackend = %q, want file default", second.Config.SessionBackend)
	}
	user := second.Session.StoredIdentity(ctx)
	if user == nil || user.Username != "bob" {
		t.Fatalf("StoredIdentity = %#v, want bob", user)
	}
	me, err := second.Auth.FetchCurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("FetchCurrentIdentity returned error: %v", err)
	}
	if me.ID != bob.ID {
		t.Fatalf("me = %#v, want id %d", me, bob.ID)
	}
}

func TestNew_RedisBackendSharesSession(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv(config.EnvRedisAddr, mr.Addr())
	t.Setenv(config.EnvRedisPrefix, "kiosk")
	ctx := context.Background()

	first := newApp(t, env.options(config.BackendRedis))
	if _, err := first.Login(ctx, "bob", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got, err := mr.Get("kiosk:" + session.TokenSlot); err != nil || got != "good" {
		t.Fatalf("redis token = %q (%v), want good", got, err)
	}

	second := newApp(t, env.options(config.BackendRedis))
	if !second.Session.IsAuthenticated(ctx) {
		t.Fatalf("second app does not see the shared session")
	}
	second.Session.Logout(ctx)
	if first.Session.IsAuthenticated(ctx) {
		t.Fatalf("first app still authenticated after shared logout")
	}
}

func TestNew_RedisUnavailableFails(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv(config.EnvRedisAddr, addr)

	_, err := New(context.Background(), env.options(config.BackendRedis))
	if err == nil || !strings.Contains(err.Error(), "connect redis") {
		t.Fatalf("New error = %v, want connect redis failure", err)
	}
}

func TestNew_InvalidBackendFails(t *testing.T) {
	env := newTestEnv(t)

	_, err := New(context.Background(), env.options("carrier-pigeon"))
	if err == nil || !strings.Contains(err.Error(), "session_backend") {
		t.Fatalf("New error = %v, want session_backend error", err)
	}
}

func TestApp_WatchPollsIdentityAndRecords(t *testing.T) {
	env := newTestEnv(t)
	a := newApp(t, env.options(config.BackendMemory))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if _, err := a.Login(ctx, "bob", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	store, done := a.Watch(ctx, attendance.Filter{}, 10*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := store.Snapshot()
		if snap.HasRecords && snap.Identity != nil {
			if snap.Identity.Username != "bob" || len(snap.Records) != 1 {
				t.Fatalf("snapshot = %#v, want bob with one record", snap)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watch did not populate the store: %#v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestApp_WatchStopsWhenSignedOut(t *testing.T) {
	env := newTestEnv(t)
	a := newApp(t, env.options(config.BackendMemory))

	store, done := a.Watch(context.Background(), attendance.Filter{}, 10*time.Millisecond)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watch kept polling without a session")
	}
	if !store.Snapshot().SignedOut() {
		t.Fatalf("snapshot = %#v, want signed out", store.Snapshot())
	}
}
