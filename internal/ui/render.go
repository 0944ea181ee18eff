package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/auth"
	"github.com/five82/rollcall/internal/session"
)

// StatusView is the input to RenderStatus.
type StatusView struct {
	Authenticated bool
	Admin         bool
	Identity      *session.Identity
	Token         auth.TokenInfo
	Now           time.Time
}

// RenderIdentity renders a user card. A nil user renders "Not signed in".
func RenderIdentity(th Theme, user *session.Identity) string {
	st := th.Styles()
	if user == nil {
		return st.MutedText.Render("Not signed in")
	}
	role := titleCase(string(user.Role))
	if role == "" {
		role = "-"
	}
	lines := []string{
		st.AccentText.Bold(true).Render(user.DisplayName()),
		field(st, "Username", user.Username),
		field(st, "User ID", strconv.FormatInt(user.ID, 10)),
		field(st, "Role", role),
	}
	if user.Email != "" {
		lines = append(lines, field(st, "Email", user.Email))
	}
	if user.PersonnelType != "" {
		lines = append(lines, field(st, "Personnel", titleCase(user.PersonnelType)))
	}
	return st.Panel.Render(strings.Join(lines, "\n"))
}

// RenderStatus reports whether a session is held and when its credential
// expires.
func RenderStatus(th Theme, v StatusView) string {
	st := th.Styles()
	if !v.Authenticated {
		return st.WarningText.Render("Not signed in") + "\n" +
			st.MutedText.Render("Run `rollcall login` to start a session.")
	}
	now := v.Now
	if now.IsZero() {
		now = time.Now()
	}

	lines := []string{st.SuccessText.Render("Signed in")}
	if v.Identity != nil {
		lines = append(lines,
			field(st, "User", fmt.Sprintf("%s (%s)", v.Identity.DisplayName(), v.Identity.Username)),
			field(st, "Role", titleCase(string(v.Identity.Role))),
		)
	}
	if v.Admin {
		lines = append(lines, field(st, "Access", "administrator"))
	}
	lines = append(lines, field(st, "Expires", expiryText(st, v.Token, now)))
	return strings.Join(lines, "\n")
}

func expiryText(st Styles, info auth.TokenInfo, now time.Time) string {
	if info.Opaque {
		return st.MutedText.Render("unknown expiry")
	}
	left, ok := info.ExpiresIn(now)
	switch {
	case !ok:
		return st.MutedText.Render("no expiry claim")
	case left <= 0:
		return st.WarningText.Render(fmt.Sprintf("expired %s ago (renews on next request)", humanizeDuration(-left)))
	default:
		return st.Text.Render(fmt.Sprintf("in %s (%s)", humanizeDuration(left), info.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
}

func field(st Styles, label, value string) string {
	return st.Label.Render(label) + " " + st.Text.Render(value)
}

type column struct {
	title string
	width int
}

var recordColumns = []column{
	{"ID", 6},
	{"PERSONNEL", 20},
	{"DATE", 10},
	{"IN", 5},
	{"OUT", 5},
	{"WORKED", 7},
	{"STATUS", 9},
	{"NOTES", 0},
}

// RenderRecords renders records as a table, one row per record.
func RenderRecords(th Theme, records []attendance.Record) string {
	st := th.Styles()
	if len(records) == 0 {
		return st.MutedText.Render("No attendance records.")
	}

	header := make([]string, 0, len(recordColumns))
	for _, c := range recordColumns {
		header = append(header, st.Column.Render(padRight(c.title, c.width)))
	}
	rows := []string{strings.Join(header, "  ")}
	for _, r := range records {
		rows = append(rows, renderRow(st, r))
	}
	return strings.Join(rows, "\n")
}

func renderRow(st Styles, r attendance.Record) string {
	name := r.PersonnelName
	if name == "" {
		name = "#" + strconv.FormatInt(r.PersonnelID, 10)
	}
	cells := []string{
		st.MutedText.Render(padRight(strconv.FormatInt(r.ID, 10), recordColumns[0].width)),
		st.Text.Render(padRight(truncate(name, recordColumns[1].width), recordColumns[1].width)),
		st.Text.Render(padRight(r.Date, recordColumns[2].width)),
		st.Text.Render(padRight(clockTime(r.CheckIn, r.ParsedCheckIn()), recordColumns[3].width)),
		st.Text.Render(padRight(clockTime(r.CheckOut, r.ParsedCheckOut()), recordColumns[4].width)),
		st.Text.Render(padRight(worked(r), recordColumns[5].width)),
		st.StatusStyle(r.Status).Render(padRight(string(r.Status), recordColumns[6].width-2)),
		st.MutedText.Render(truncate(r.Notes, 40)),
	}
	return strings.Join(cells, "  ")
}

func worked(r attendance.Record) string {
	if r.Open() {
		return "open"
	}
	d := r.Worked()
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

// RenderRecord renders one record as a detail card.
func RenderRecord(th Theme, r attendance.Record) string {
	st := th.Styles()
	name := r.PersonnelName
	if name == "" {
		name = "#" + strconv.FormatInt(r.PersonnelID, 10)
	}
	lines := []string{
		st.AccentText.Bold(true).Render(fmt.Sprintf("Attendance #%d", r.ID)),
		field(st, "Personnel", name),
		field(st, "Date", r.Date),
		field(st, "Check-in", clockTime(r.CheckIn, r.ParsedCheckIn())),
		field(st, "Check-out", clockTime(r.CheckOut, r.ParsedCheckOut())),
		field(st, "Worked", worked(r)),
		st.Label.Render("Status") + " " + st.StatusStyle(r.Status).Render(string(r.Status)),
	}
	if r.Notes != "" {
		lines = append(lines, field(st, "Notes", r.Notes))
	}
	return st.Panel.Render(strings.Join(lines, "\n"))
}

// RenderSummary renders per-status counts in display order, skipping zeros.
func RenderSummary(th Theme, s attendance.Summary) string {
	st := th.Styles()
	var parts []string
	total := 0
	for _, status := range attendance.Statuses() {
		n := s[status]
		total += n
		if n == 0 {
			continue
		}
		parts = append(parts, st.StatusStyle(status).Render(fmt.Sprintf("%s %d", status, n)))
	}
	for status, n := range s {
		if _, known := attendance.ParseStatus(string(status)); !known {
			total += n
		}
	}
	parts = append([]string{st.Text.Render(fmt.Sprintf("%d records", total))}, parts...)
	return strings.Join(parts, " ")
}
