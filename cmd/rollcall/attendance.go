package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/rollcall/internal/attendance"
	"github.com/five82/rollcall/internal/ui"
)

func runAttendance(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		return usageError("missing attendance subcommand")
	}
	if !c.app.Session.IsAuthenticated(ctx) {
		return errNotSignedIn
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return attendanceList(ctx, c, rest)
	case "get":
		id, err := recordID(rest)
		if err != nil {
			return err
		}
		rec, err := c.app.Attendance.Get(ctx, id)
		if err != nil {
			return err
		}
		c.println(ui.RenderRecord(c.theme, *rec))
		return nil
	case "create":
		return attendanceCreate(ctx, c, rest)
	case "update":
		return attendanceUpdate(ctx, c, rest)
	case "delete":
		id, err := recordID(rest)
		if err != nil {
			return err
		}
		if err := c.app.Attendance.Delete(ctx, id); err != nil {
			return err
		}
		c.println(fmt.Sprintf("Deleted attendance #%d.", id))
		return nil
	case "checkin", "checkout":
		return attendanceCheck(ctx, c, sub, rest)
	default:
		return usageError("unknown attendance subcommand %q", sub)
	}
}

func attendanceList(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("attendance list", c)
	var filter attendance.Filter
	var status string
	today := fs.Bool("today", false, "only today's records")
	fs.StringVar(&filter.Date, "date", "", "exact date (YYYY-MM-DD)")
	fs.StringVar(&filter.From, "from", "", "first date (YYYY-MM-DD)")
	fs.StringVar(&filter.To, "to", "", "last date (YYYY-MM-DD)")
	fs.Int64Var(&filter.PersonnelID, "personnel", 0, "personnel id")
	fs.StringVar(&status, "status", "", "status filter")
	fs.IntVar(&filter.Limit, "limit", 0, "page size")
	fs.IntVar(&filter.Page, "page", 0, "page number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *today {
		filter.Date = time.Now().Format(attendance.DateLayout)
	}
	if status != "" {
		s, err := parseStatus(status)
		if err != nil {
			return err
		}
		filter.Status = s
	}

	records, err := c.app.Attendance.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		c.println(ui.RenderSummary(c.theme, attendance.Summarize(records)))
	}
	c.println(ui.RenderRecords(c.theme, records))
	return nil
}

type inputFlags struct {
	personnel int64
	date      string
	checkIn   string
	checkOut  string
	status    string
	notes     string
}

func (in *inputFlags) register(fs *flag.FlagSet) {
	fs.Int64Var(&in.personnel, "personnel", 0, "personnel id (default: signed-in user)")
	fs.StringVar(&in.date, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&in.checkIn, "in", "", "check-in time (HH:MM:SS)")
	fs.StringVar(&in.checkOut, "out", "", "check-out time (HH:MM:SS)")
	fs.StringVar(&in.status, "status", "", "status: present, absent, late, excused or leave")
	fs.StringVar(&in.notes, "notes", "", "free-form notes")
}

func (in *inputFlags) input() (attendance.Input, error) {
	out := attendance.Input{
		PersonnelID: in.personnel,
		Date:        strings.TrimSpace(in.date),
		CheckIn:     strings.TrimSpace(in.checkIn),
		CheckOut:    strings.TrimSpace(in.checkOut),
		Notes:       in.notes,
	}
	if in.status != "" {
		s, err := parseStatus(in.status)
		if err != nil {
			return attendance.Input{}, err
		}
		out.Status = s
	}
	return out, nil
}

func attendanceCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("attendance create", c)
	var flags inputFlags
	flags.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	in, err := flags.input()
	if err != nil {
		return err
	}
	if in.PersonnelID == 0 {
		in.PersonnelID = c.selfID(ctx)
	}
	if in.Date == "" {
		in.Date = time.Now().Format(attendance.DateLayout)
	}

	rec, err := c.app.Attendance.Create(ctx, in)
	if err != nil {
		return err
	}
	c.println(ui.RenderRecord(c.theme, *rec))
	return nil
}

func attendanceUpdate(ctx context.Context, c *cli, args []string) error {
	id, err := recordID(args[:min(1, len(args))])
	if err != nil {
		return err
	}
	fs := newFlags("attendance update", c)
	var flags inputFlags
	flags.register(fs)
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}
	in, err := flags.input()
	if err != nil {
		return err
	}
	if in == (attendance.Input{}) {
		return usageError("nothing to update")
	}

	rec, err := c.app.Attendance.Update(ctx, id, in)
	if err != nil {
		return err
	}
	c.println(ui.RenderRecord(c.theme, *rec))
	return nil
}

func attendanceCheck(ctx context.Context, c *cli, sub string, args []string) error {
	fs := newFlags("attendance "+sub, c)
	personnel := fs.Int64("personnel", 0, "personnel id (default: signed-in user)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id := *personnel
	if id == 0 {
		id = c.selfID(ctx)
	}
	if id == 0 {
		return usageError("-personnel is required")
	}

	var rec *attendance.Record
	var err error
	if sub == "checkin" {
		rec, err = c.app.Attendance.CheckIn(ctx, id)
	} else {
		rec, err = c.app.Attendance.CheckOut(ctx, id)
	}
	if err != nil {
		return err
	}
	c.println(ui.RenderRecord(c.theme, *rec))
	return nil
}

func runWatch(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("watch", c)
	interval := fs.Duration("interval", 0, "poll interval (default from prefs, 5s)")
	var filter attendance.Filter
	fs.StringVar(&filter.Date, "date", time.Now().Format(attendance.DateLayout), "date to watch (YYYY-MM-DD)")
	fs.Int64Var(&filter.PersonnelID, "personnel", 0, "personnel id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !c.app.Session.IsAuthenticated(ctx) {
		return errNotSignedIn
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	store, done := c.app.Watch(ctx, filter, *interval)
	return ui.RunWatch(ui.WatchOptions{
		Store:     store,
		Done:      done,
		Title:     "Attendance " + filter.Date,
		ThemeName: c.app.Prefs.Theme,
		PrefsPath: c.app.PrefsPath,
	})
}

// selfID is the signed-in user's id, or 0.
func (c *cli) selfID(ctx context.Context) int64 {
	if user := c.app.Session.StoredIdentity(ctx); user != nil {
		return user.ID
	}
	return 0
}

func recordID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, usageError("expected one record id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid record id %q", args[0])
	}
	return id, nil
}

func parseStatus(value string) (attendance.Status, error) {
	s, ok := attendance.ParseStatus(value)
	if !ok {
		return "", usageError("unknown status %q", value)
	}
	return s, nil
}
