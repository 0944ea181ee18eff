package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/five82/rollcall/internal/auth"
	"github.com/five82/rollcall/internal/session"
	"github.com/five82/rollcall/internal/ui"
)

var errNotSignedIn = errors.New("not signed in; run `rollcall login`")

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("login", c)
	username := fs.String("u", c.app.Prefs.LastUsername, "username")
	pwStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	creds, err := c.credentials(*username, *pwStdin)
	if err != nil {
		return err
	}
	user, err := c.app.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return err
	}
	c.println(ui.RenderIdentity(c.theme, user))
	return nil
}

func runLogout(ctx context.Context, c *cli, args []string) error {
	if len(args) > 0 {
		return usageError("logout takes no arguments")
	}
	c.app.Session.Logout(ctx)
	c.println("Signed out.")
	return nil
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("register", c)
	username := fs.String("u", "", "username")
	email := fs.String("email", "", "email address")
	roleName := fs.String("role", "", "role: "+roleList()+" (default: backend decides)")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	personnelType := fs.String("type", "", "personnel type")
	pwStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" {
		return usageError("-u and -email are required")
	}
	var role session.Role
	if strings.TrimSpace(*roleName) != "" {
		parsed, ok := session.ParseRole(*roleName)
		if !ok {
			return usageError("-role must be one of %s", roleList())
		}
		role = parsed
	}

	creds, err := c.credentials(*username, *pwStdin)
	if err != nil {
		return err
	}
	user, err := c.app.Auth.Register(ctx, auth.Registration{
		Username:      creds.Username,
		Email:         strings.TrimSpace(*email),
		Password:      creds.Password,
		Role:          role,
		FirstName:     strings.TrimSpace(*first),
		LastName:      strings.TrimSpace(*last),
		PersonnelType: strings.TrimSpace(*personnelType),
	})
	if err != nil {
		return err
	}
	c.println(ui.RenderIdentity(c.theme, user))
	c.println(fmt.Sprintf("Registered %s. Run `rollcall login` to sign in.", user.Username))
	return nil
}

func runWhoami(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("whoami", c)
	roleName := fs.String("role", "", "exit non-zero unless the stored user has this role")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	user := c.app.Session.StoredIdentity(ctx)
	if user == nil {
		return errNotSignedIn
	}
	if *roleName != "" {
		role, ok := session.ParseRole(*roleName)
		if !ok {
			return usageError("-role must be one of %s", roleList())
		}
		if !c.app.Session.HasRole(ctx, role) {
			return fmt.Errorf("%s does not have role %s", user.Username, role)
		}
	}
	c.println(ui.RenderIdentity(c.theme, user))
	return nil
}

func runMe(ctx context.Context, c *cli, args []string) error {
	if len(args) > 0 {
		return usageError("me takes no arguments")
	}
	if !c.app.Session.IsAuthenticated(ctx) {
		return errNotSignedIn
	}
	user, err := c.app.Auth.FetchCurrentIdentity(ctx)
	if err != nil {
		return err
	}
	c.println(ui.RenderIdentity(c.theme, user))
	return nil
}

func runStatus(ctx context.Context, c *cli, args []string) error {
	if len(args) > 0 {
		return usageError("status takes no arguments")
	}
	s := c.app.Session
	c.println(ui.RenderStatus(c.theme, ui.StatusView{
		Authenticated: s.IsAuthenticated(ctx),
		Admin:         s.IsAdmin(ctx),
		Identity:      s.StoredIdentity(ctx),
		Token:         auth.Inspect(s.Token(ctx)),
	}))
	return nil
}

// credentials reads the password from stdin when asked to, and otherwise
// prompts on the terminal.
func (c *cli) credentials(username string, fromStdin bool) (ui.Credentials, error) {
	username = strings.TrimSpace(username)
	if fromStdin {
		if username == "" {
			return ui.Credentials{}, usageError("-u is required with -password-stdin")
		}
		password, err := readPassword(c.stdin)
		if err != nil {
			return ui.Credentials{}, err
		}
		return ui.Credentials{Username: username, Password: password}, nil
	}
	if !isTerminal(c.stdin) {
		return ui.Credentials{}, usageError("stdin is not a terminal; use -password-stdin")
	}
	return ui.PromptLogin(c.theme, username, c.stdin, c.stdout)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", usageError("empty password on stdin")
	}
	return line, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func roleList() string {
	roles := session.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
