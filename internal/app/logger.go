package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a text logger at the named level writing to w (stderr
// when nil) and installs it as the slog default.
func NewLogger(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
