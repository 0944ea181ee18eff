package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestFileSlots_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.toml")

	slots, err := NewFileSlots(path)
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	if err := NewStore(slots).Save(ctx, "tok1", testIdentity()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	// A second instance stands in for a restarted process.
	reopened, err := NewFileSlots(path)
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	s := NewStore(reopened)
	token, err := s.Token(ctx)
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if token != "tok1" {
		t.Fatalf("Token = %q, want tok1", token)
	}
	user, err := s.Identity(ctx)
	if err != nil {
		t.Fatalf("Identity returned error: %v", err)
	}
	if user == nil || *user != testIdentity() {
		t.Fatalf("Identity = %#v, want %#v", user, testIdentity())
	}
}

func TestFileSlots_WritesPrivateFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	path := filepath.Join(t.TempDir(), "session.toml")
	slots, err := NewFileSlots(path)
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	if err := slots.Set(context.Background(), map[string]string{TokenSlot: "tok1"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFileSlots_ClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.toml")
	slots, err := NewFileSlots(path)
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	s := NewStore(slots)
	if err := s.Save(ctx, "tok1", testIdentity()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("session file still present after Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear returned error: %v", err)
	}
}

func TestFileSlots_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	slots, err := NewFileSlots("")
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	if !strings.HasPrefix(slots.Path(), home) {
		t.Fatalf("Path = %q, want it under HOME %q", slots.Path(), home)
	}
	if filepath.Base(slots.Path()) != "session.toml" {
		t.Fatalf("Path = %q, want session.toml", slots.Path())
	}
}

func TestFileSlots_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	if err := os.WriteFile(path, []byte(`token = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	slots, err := NewFileSlots(path)
	if err != nil {
		t.Fatalf("NewFileSlots returned error: %v", err)
	}
	_, _, err = slots.Get(context.Background(), TokenSlot)
	if err == nil || !strings.Contains(err.Error(), "parse session file") {
		t.Fatalf("Get error = %v, want parse session file error", err)
	}
}
