package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Session backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Environment variables that override the config file.
const (
	EnvAPIURL         = "ROLLCALL_API_URL"
	EnvSessionBackend = "ROLLCALL_SESSION_BACKEND"
	EnvSessionPath    = "ROLLCALL_SESSION_PATH"
	EnvRedisAddr      = "ROLLCALL_REDIS_ADDR"
	EnvRedisPassword  = "ROLLCALL_REDIS_PASSWORD"
	EnvRedisPrefix    = "ROLLCALL_REDIS_PREFIX"
	EnvRequestTimeout = "ROLLCALL_REQUEST_TIMEOUT"
	EnvLogLevel       = "ROLLCALL_LOG_LEVEL"
)

const (
	defaultConfigPath     = "~/.config/rollcall/config.toml"
	defaultAPIURL         = "http://localhost:8080/api"
	defaultSessionPath    = "~/.config/rollcall/session.toml"
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisPrefix    = "rollcall"
	defaultRequestTimeout = 10 * time.Second
	defaultLogLevel       = "warn"
)

// Config holds client settings after defaults, file and environment have
// been applied.
type Config struct {
	APIURL         string
	SessionBackend string
	SessionPath    string
	RedisAddr      string
	RedisPassword  string
	RedisPrefix    string
	RequestTimeout time.Duration
	LogLevel       string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		SessionBackend: BackendFile,
		SessionPath:    mustExpand(defaultSessionPath),
		RedisAddr:      defaultRedisAddr,
		RedisPrefix:    defaultRedisPrefix,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       defaultLogLevel,
	}
}

type fileConfig struct {
	APIURL         string `toml:"api_url"`
	SessionBackend string `toml:"session_backend"`
	SessionPath    string `toml:"session_path"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisPrefix    string `toml:"redis_prefix"`
	RequestTimeout string `toml:"request_timeout"`
	LogLevel       string `toml:"log_level"`
}

// Load reads the config file at path (the default location when empty),
// then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	raw.overlay(fileConfig{
		APIURL:         os.Getenv(EnvAPIURL),
		SessionBackend: os.Getenv(EnvSessionBackend),
		SessionPath:    os.Getenv(EnvSessionPath),
		RedisAddr:      os.Getenv(EnvRedisAddr),
		RedisPassword:  os.Getenv(EnvRedisPassword),
		RedisPrefix:    os.Getenv(EnvRedisPrefix),
		RequestTimeout: os.Getenv(EnvRequestTimeout),
		LogLevel:       os.Getenv(EnvLogLevel),
	})

	cfg := Default()
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.SessionBackend)); v != "" {
		cfg.SessionBackend = v
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return Config{}, fmt.Errorf("session_path: %w", err)
		}
		cfg.SessionPath = expanded
	}
	if v := strings.TrimSpace(raw.RedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	cfg.RedisPassword = raw.RedisPassword
	if v := strings.TrimSpace(raw.RedisPrefix); v != "" {
		cfg.RedisPrefix = v
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.SessionBackend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("session_backend %q: want %s, %s or %s", c.SessionBackend, BackendFile, BackendRedis, BackendMemory)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path means
// ".env" in the working directory; a missing file is ignored.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config: %w", err)
	}
	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

// overlay replaces fields with the non-empty values of o.
func (f *fileConfig) overlay(o fileConfig) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&f.APIURL, o.APIURL)
	set(&f.SessionBackend, o.SessionBackend)
	set(&f.SessionPath, o.SessionPath)
	set(&f.RedisAddr, o.RedisAddr)
	set(&f.RedisPassword, o.RedisPassword)
	set(&f.RedisPrefix, o.RedisPrefix)
	set(&f.RequestTimeout, o.RequestTimeout)
	set(&f.LogLevel, o.LogLevel)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
