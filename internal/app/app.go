package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/auth"
	"github.com/five82/rollcall/internal/config"
	"github.com/five82/rollcall/internal/metrics"
	"github.com/five82/rollcall/internal/prefs"
	"github.com/five82/rollcall/internal/session"
	"github.com/five82/rollcall/internal/state"
)

const redisPingTimeout = 3 * time.Second

// Options configure the rollcall application. Non-empty override fields take
// precedence over the environment and the config file.
type Options struct {
	ConfigPath string
	EnvFile    string // empty loads ./.env when present
	PrefsPath  string // empty uses default ~/.config/rollcall/prefs.toml

	APIURL         string
	SessionBackend string
	LogLevel       string

	// LogOutput receives log lines; nil means stderr.
	LogOutput io.Writer
	// Transport is the innermost round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// App holds the wired client stack.
type App struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string

	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Session    *auth.Session
	Auth       *auth.Lifecycle
	Attendance *attendance.Service

	closers []func() error
}

// New loads configuration and builds the session store, the public and
// authenticated API clients, and the services on top of them.
func New(ctx context.Context, opts Options) (*App, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.ToLower(strings.TrimSpace(opts.SessionBackend)); v != "" {
		cfg.SessionBackend = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if strings.TrimSpace(prefsPath) == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)
	logger := NewLogger(cfg.LogLevel, opts.LogOutput)

	a := &App{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    logger,
		Metrics:   metrics.New(),
	}

	slots, err := a.openSlots(ctx)
	if err != nil {
		return nil, err
	}
	a.Session = auth.NewSession(session.NewStore(slots), logger, a.Metrics)

	base := api.Chain(opts.Transport, api.UserAgent(""), api.AcceptJSON())
	public, err := api.NewClient(cfg.APIURL, &http.Client{
		Transport: api.Chain(base, api.RequestID()),
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	gatekeeper := auth.NewGatekeeper(base, a.Session, auth.NewRenewer(public, a.Session))
	authed, err := api.NewClient(cfg.APIURL, &http.Client{
		Transport: api.Chain(gatekeeper, api.RequestID()),
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	a.Auth = auth.NewLifecycle(a.Session, public, authed)
	a.Attendance = attendance.NewService(authed)

	logger.Debug("app initialized",
		"event", "app.ready",
		"api_url", cfg.APIURL,
		"session_backend", cfg.SessionBackend,
	)
	return a, nil
}

func (a *App) openSlots(ctx context.Context) (session.Slots, error) {
	switch a.Config.SessionBackend {
	case config.BackendMemory:
		return session.NewMemorySlots(), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", a.Config.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisSlots(rdb, a.Config.RedisPrefix), nil
	default:
		slots, err := session.NewFileSlots(a.Config.SessionPath)
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
		return slots, nil
	}
}

// Login authenticates and remembers the username for the next prompt.
func (a *App) Login(ctx context.Context, username, password string) (*session.Identity, error) {
	user, err := a.Auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := prefs.RememberUsername(a.PrefsPath, username); err != nil {
		a.Logger.Warn("remember username failed", "event", "prefs.save_failed", "error", err)
	} else {
		a.Prefs.LastUsername = strings.TrimSpace(username)
	}
	return user, nil
}

// Watch starts polling the identity and the records matching filter into a
// new state.Store. The returned channel closes when polling stops.
func (a *App) Watch(ctx context.Context, filter attendance.Filter, interval time.Duration) (*state.Store, <-chan struct{}) {
	if interval <= 0 {
		interval = a.Prefs.Interval()
	}
	store := &state.Store{}
	done := StartPoller(ctx, store, Sources{
		Identity: a.Auth,
		Records:  a.Attendance,
		Filter:   filter,
	}, interval, a.Logger)
	return store, done
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
