// Package prefs handles rollcall user preferences persistence.
// Preferences are stored in ~/.config/rollcall/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for rollcall.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastUsername pre-fills the login prompt.
	LastUsername string `toml:"last_username"`
	// WatchInterval is how often `rollcall watch` refreshes, e.g. "5s".
	WatchInterval string `toml:"watch_interval"`
}

const (
	defaultPrefsPath     = "~/.config/rollcall/prefs.toml"
	defaultTheme         = "Dracula"
	defaultWatchInterval = 5 * time.Second
	minWatchInterval     = time.Second
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), nil
	}

	prefs := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return defaults(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.LastUsername = strings.TrimSpace(prefs.LastUsername)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// RememberUsername stores username as LastUsername when it changed.
func RememberUsername(path, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}
	p, _ := Load(path)
	if p.LastUsername == username {
		return nil
	}
	p.LastUsername = username
	return Save(path, p)
}

// Interval returns WatchInterval as a duration. Unset or unparseable values
// give the default; values under a second are raised to one second.
func (p Prefs) Interval() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(p.WatchInterval))
	if err != nil || d <= 0 {
		return defaultWatchInterval
	}
	if d < minWatchInterval {
		return minWatchInterval
	}
	return d
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
