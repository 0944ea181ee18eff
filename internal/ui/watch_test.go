package ui

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rollcall/internal/api"
	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/prefs"
	"github.com/five82/rollcall/internal/session"
	"github.com/five82/rollcall/internal/state"
)

func TestWatch_RendersSnapshot(t *testing.T) {
	store := &state.Store{}
	store.Update(&session.Identity{Username: "bob", FirstName: "Bob", LastName: "Ross"}, []attendance.Record{
		{ID: 1, PersonnelID: 2, Date: "2026-03-02", CheckIn: "08:00:00", Status: attendance.StatusPresent},
	}, nil)

	m := NewWatch(WatchOptions{Store: store, Title: "Today"})
	m.now = func() time.Time { return store.Snapshot().LastUpdated.Add(3 * time.Second) }

	view := m.View()
	for _, want := range []string{"Today", "Bob Ross", "updated 3s ago", "1 records", "present"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestWatch_LoadingAndErrors(t *testing.T) {
	store := &state.Store{}
	m := NewWatch(WatchOptions{Store: store})
	if !strings.Contains(m.View(), "Loading...") {
		t.Fatalf("empty view = %q, want Loading...", m.View())
	}

	store.Update(nil, nil, errors.New("dial tcp: refused"))
	store.Update(nil, nil, errors.New("dial tcp: refused"))
	next, _ := m.Update(snapshotMsg(store.Snapshot()))
	if view := next.View(); !strings.Contains(view, "Offline: 2 failed polls") {
		t.Fatalf("offline view:\n%s", view)
	}

	expired := fmt.Errorf("list attendances: %w", &api.StatusError{Path: "/attendances", StatusCode: http.StatusUnauthorized})
	store.Update(nil, nil, expired)
	next, _ = next.Update(snapshotMsg(store.Snapshot()))
	next, _ = next.Update(stoppedMsg{})
	view := next.View()
	if !strings.Contains(view, "Session ended") {
		t.Fatalf("signed out view:\n%s", view)
	}
	if strings.Contains(view, "Polling stopped.") {
		t.Fatalf("signed out view repeats stop notice:\n%s", view)
	}
}

func TestWatch_TickRefreshesFromStore(t *testing.T) {
	store := &state.Store{}
	m := NewWatch(WatchOptions{Store: store, Redraw: time.Hour})

	store.Update(nil, []attendance.Record{{ID: 5, Status: attendance.StatusLeave}}, nil)
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick returned no command")
	}

	snap := fetchSnapshotCmd(store)()
	next, _ := m.Update(snap)
	if !strings.Contains(next.View(), "leave") {
		t.Fatalf("view after refresh:\n%s", next.View())
	}
}

func TestWatch_ThemeToggleIsSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := prefs.Save(path, prefs.Prefs{Theme: "Dracula", LastUsername: "bob"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	m := NewWatch(WatchOptions{ThemeName: "Dracula", PrefsPath: path})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if got := next.(WatchModel).theme.Name; got != "Slate" {
		t.Fatalf("theme = %q, want Slate", got)
	}

	p, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" || p.LastUsername != "bob" {
		t.Fatalf("prefs = %#v, want Slate theme and username kept", p)
	}
}

func TestWatch_QuitKeys(t *testing.T) {
	m := NewWatch(WatchOptions{})
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s returned no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s did not quit", key)
		}
	}
}

func TestWatch_StoppedNotice(t *testing.T) {
	done := make(chan struct{})
	close(done)
	m := NewWatch(WatchOptions{Done: done})

	msg := waitStoppedCmd(done)()
	next, _ := m.Update(msg)
	if !strings.Contains(next.View(), "Polling stopped.") {
		t.Fatalf("view missing stop notice:\n%s", next.View())
	}
}
