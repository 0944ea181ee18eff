package ui

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when a prompt is left without submitting.
var ErrCanceled = errors.New("canceled")

const (
	fieldUsername = iota
	fieldPassword
)

// Credentials are what the login prompt collects.
type Credentials struct {
	Username string
	Password string
}

// LoginForm is a two-field Bubble Tea prompt. The password is never echoed.
type LoginForm struct {
	theme    Theme
	inputs   [2]textinput.Model
	focus    int
	errText  string
	done     bool
	canceled bool
}

// NewLoginForm builds the prompt. A non-empty username is pre-filled and
// focus starts on the password.
func NewLoginForm(th Theme, username string) LoginForm {
	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "username"
	user.CharLimit = 64
	user.SetValue(strings.TrimSpace(username))

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	f := LoginForm{theme: th, inputs: [2]textinput.Model{user, pass}}
	if user.Value() != "" {
		f.focus = fieldPassword
	}
	f.inputs[f.focus].Focus()
	return f
}

// Init implements tea.Model.
func (f LoginForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (f LoginForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		f.canceled = true
		return f, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return f.setFocus((f.focus + 1) % len(f.inputs))
	case tea.KeyShiftTab, tea.KeyUp:
		return f.setFocus((f.focus + len(f.inputs) - 1) % len(f.inputs))
	case tea.KeyEnter:
		return f.submit()
	}

	f.errText = ""
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f LoginForm) setFocus(i int) (tea.Model, tea.Cmd) {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f, f.inputs[f.focus].Focus()
}

func (f LoginForm) submit() (tea.Model, tea.Cmd) {
	creds := f.values()
	switch {
	case creds.Username == "":
		f.errText = "username is required"
		if f.focus != fieldUsername {
			return f.setFocus(fieldUsername)
		}
		return f, nil
	case f.focus == fieldUsername:
		return f.setFocus(fieldPassword)
	case creds.Password == "":
		f.errText = "password is required"
		return f, nil
	}
	f.done = true
	return f, tea.Quit
}

func (f LoginForm) values() Credentials {
	return Credentials{
		Username: strings.TrimSpace(f.inputs[fieldUsername].Value()),
		Password: f.inputs[fieldPassword].Value(),
	}
}

// Credentials returns the submitted values. ok is false until the form has
// been submitted.
func (f LoginForm) Credentials() (Credentials, bool) {
	if !f.done || f.canceled {
		return Credentials{}, false
	}
	return f.values(), true
}

// View implements tea.Model.
func (f LoginForm) View() string {
	if f.done || f.canceled {
		return ""
	}
	st := f.theme.Styles()
	labels := [2]string{"Username", "Password"}

	var b strings.Builder
	b.WriteString(st.AccentText.Bold(true).Render("Sign in to rollcall"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := st.Label
		if i == f.focus {
			label = label.Foreground(st.AccentText.GetForeground())
		}
		b.WriteString(label.Render(labels[i]) + " " + in.View() + "\n")
	}
	if f.errText != "" {
		b.WriteString("\n" + st.DangerText.Render(f.errText) + "\n")
	}
	b.WriteString("\n" + st.Footer.Render("enter submit · tab switch · esc cancel") + "\n")
	return b.String()
}

// PromptLogin runs the login form on in/out and returns the credentials.
// It returns ErrCanceled when the user backs out.
func PromptLogin(th Theme, username string, in io.Reader, out io.Writer) (Credentials, error) {
	p := tea.NewProgram(NewLoginForm(th, username), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return Credentials{}, err
	}
	form, ok := final.(LoginForm)
	if !ok {
		return Credentials{}, ErrCanceled
	}
	creds, ok := form.Credentials()
	if !ok {
		return Credentials{}, ErrCanceled
	}
	return creds, nil
}
