package ui

import (
	"testing"

	"github.com/five82/rollcall/internal/attendance"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 {
		t.Fatalf("ThemeNames() returned %d names, want 2", len(names))
	}
	if names[0] != "Dracula" || names[1] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate]", names)
	}
	names[0] = "changed"
	if ThemeNames()[0] != "Dracula" {
		t.Fatalf("ThemeNames() exposes internal slice")
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	if got := NextTheme("unknown"); got != "Dracula" {
		t.Fatalf("NextTheme(unknown) = %q, want Dracula", got)
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme(" slate ").Name; got != "Slate" {
		t.Fatalf("GetTheme(slate) = %q, want Slate", got)
	}
	if got := GetTheme("Nightfox").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Nightfox) = %q, want Dracula fallback", got)
	}
}

func TestThemesColorEveryStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range attendance.Statuses() {
			if th.StatusColors[status] == "" {
				t.Fatalf("theme %s has no color for %s", name, status)
			}
		}
	}
}

func TestStatusStyle_NormalizesAndFallsBack(t *testing.T) {
	th := GetTheme("Dracula")
	st := th.Styles()

	if got, want := st.StatusStyle(" LATE ").GetBackground(), st.StatusStyle(attendance.StatusLate).GetBackground(); got != want {
		t.Fatalf("StatusStyle(LATE) background = %v, want %v", got, want)
	}
	if got := st.StatusStyle("sabbatical").GetBackground(); got != st.MutedText.GetForeground() {
		t.Fatalf("StatusStyle(unknown) background = %v, want muted %v", got, st.MutedText.GetForeground())
	}
}
