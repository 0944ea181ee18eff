package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/five82/rollcall/internal/app"
	"github.com/five82/rollcall/internal/ui"
)

// errUsage marks errors caused by bad arguments; they exit with status 2.
var errUsage = errors.New("usage")

type cli struct {
	app    *app.App
	theme  ui.Theme
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"login":      {"login [-u username] [-password-stdin]", runLogin},
	"logout":     {"logout", runLogout},
	"register":   {"register -u username -email addr -role role [-first name] [-last name] [-type personnel] [-password-stdin]", runRegister},
	"whoami":     {"whoami [-role name]", runWhoami},
	"me":         {"me", runMe},
	"status":     {"status", runStatus},
	"attendance": {"attendance list|get|create|update|delete|checkin|checkout [flags]", runAttendance},
	"watch":      {"watch [-interval 5s] [-date YYYY-MM-DD] [-personnel id]", runWatch},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, transport http.RoundTripper) int {
	fs := flag.NewFlagSet("rollcall", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path (default ~/.config/rollcall/config.toml)")
	envFile := fs.String("env-file", "", "dotenv file to load (default ./.env)")
	prefsPath := fs.String("prefs", "", "preferences file path (default ~/.config/rollcall/prefs.toml)")
	apiURL := fs.String("api", "", "attendance API base URL")
	backend := fs.String("session-backend", "", "session store: file, redis or memory")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	showMetrics := fs.Bool("metrics", false, "print auth counters to stderr on exit")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(fs)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "rollcall: unknown command %q\n", name)
		printUsage(fs)
		return 2
	}

	a, err := app.New(ctx, app.Options{
		ConfigPath:     *configPath,
		EnvFile:        *envFile,
		PrefsPath:      *prefsPath,
		APIURL:         *apiURL,
		SessionBackend: *backend,
		LogLevel:       *logLevel,
		LogOutput:      stderr,
		Transport:      transport,
	})
	if err != nil {
		fmt.Fprintf(stderr, "rollcall: %v\n", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	c := &cli{app: a, theme: ui.GetTheme(a.Prefs.Theme), stdin: stdin, stdout: stdout, stderr: stderr}
	err = cmd.run(ctx, c, fs.Args()[1:])
	if *showMetrics {
		_ = a.Metrics.WriteText(stderr)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "rollcall: %v\nusage: rollcall %s\n", err, cmd.usage)
		return 2
	case errors.Is(err, ui.ErrCanceled):
		return 130
	default:
		fmt.Fprintf(stderr, "rollcall %s: %v\n", name, err)
		return 1
	}
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: rollcall [flags] <command> [args]")
	fmt.Fprintln(out, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(out, "\nflags:")
	fs.PrintDefaults()
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func newFlags(name string, c *cli) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (c *cli) println(s string) {
	fmt.Fprintln(c.stdout, strings.TrimRight(s, "\n"))
}
