package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rollcall/internal/prefs"
	"github.com/five82/rollcall/internal/state"
)

// WatchOptions configure the watch view.
type WatchOptions struct {
	Store *state.Store
	// Done closes when the poller stops.
	Done      <-chan struct{}
	Title     string
	ThemeName string
	PrefsPath string
	// Redraw is how often the view re-reads the store (default 1s).
	Redraw time.Duration
}

// WatchModel renders the latest attendance snapshot until the user quits.
type WatchModel struct {
	store     *state.Store
	done      <-chan struct{}
	title     string
	prefsPath string
	redraw    time.Duration
	theme     Theme
	now       func() time.Time

	snapshot state.Snapshot
	stopped  bool
	width    int
}

// NewWatch builds the watch model.
func NewWatch(opts WatchOptions) WatchModel {
	redraw := opts.Redraw
	if redraw <= 0 {
		redraw = time.Second
	}
	title := opts.Title
	if title == "" {
		title = "Attendance"
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	return WatchModel{
		store:     store,
		done:      opts.Done,
		title:     title,
		prefsPath: opts.PrefsPath,
		redraw:    redraw,
		theme:     GetTheme(opts.ThemeName),
		now:       time.Now,
		snapshot:  store.Snapshot(),
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.redraw), fetchSnapshotCmd(m.store)}
	if m.done != nil {
		cmds = append(cmds, waitStoppedCmd(m.done))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.theme = GetTheme(NextTheme(m.theme.Name))
			if m.prefsPath != "" {
				p, _ := prefs.Load(m.prefsPath)
				p.Theme = m.theme.Name
				_ = prefs.Save(m.prefsPath, p)
			}
		case "r":
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.redraw))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case stoppedMsg:
		m.stopped = true
		return m, fetchSnapshotCmd(m.store)
	}
	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	st := m.theme.Styles()
	snap := m.snapshot

	header := m.title
	if snap.Identity != nil {
		header += " · " + snap.Identity.DisplayName()
	}
	if !snap.LastUpdated.IsZero() {
		header += " · updated " + ago(m.now().Sub(snap.LastUpdated))
	}

	headerStyle := st.Header
	if m.width > 0 {
		headerStyle = headerStyle.Width(m.width)
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(header) + "\n\n")

	switch {
	case !snap.HasRecords && snap.LastError == nil:
		b.WriteString(st.MutedText.Render("Loading..."))
	case snap.HasRecords:
		b.WriteString(RenderSummary(m.theme, snap.Summary()) + "\n\n")
		b.WriteString(RenderRecords(m.theme, snap.Records))
	}
	b.WriteString("\n")

	switch {
	case snap.SignedOut():
		b.WriteString("\n" + st.DangerText.Render("Session ended. Run `rollcall login` and start watch again.") + "\n")
	case snap.IsOffline():
		b.WriteString("\n" + st.WarningText.Render(fmt.Sprintf("Offline: %d failed polls, last error: %v", snap.ConsecutiveFailures, snap.LastError)) + "\n")
	case snap.LastError != nil:
		b.WriteString("\n" + st.WarningText.Render(fmt.Sprintf("Last poll failed: %v", snap.LastError)) + "\n")
	}
	if m.stopped && !snap.SignedOut() {
		b.WriteString("\n" + st.MutedText.Render("Polling stopped.") + "\n")
	}

	b.WriteString("\n" + st.Footer.Render(fmt.Sprintf("q quit · r redraw · t theme (%s)", m.theme.Name)))
	return b.String()
}

func ago(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	return humanizeDuration(d) + " ago"
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type stoppedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitStoppedCmd(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return stoppedMsg{}
	}
}

// RunWatch starts the watch view in the alternate screen.
func RunWatch(opts WatchOptions) error {
	p := tea.NewProgram(NewWatch(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
