// Package ui renders rollcall output in the terminal.
//
// # Overview
//
// Everything here is presentation. The package reads identities,
// attendance records and state snapshots and turns them into styled text;
// it never talks to the backend.
//
//   - theme.go: Lipgloss themes (Dracula, Slate) with a color per
//     attendance status
//   - render.go: identity card, session status, record table and detail,
//     status summary
//   - login.go: LoginForm, a Bubble Tea prompt built from two bubbles
//     textinputs; the password field uses EchoPassword
//   - watch.go: WatchModel, a full-screen view that redraws a state.Store
//     snapshot once per second
//
// # Keys
//
// Login: enter submits (or moves from username to password), tab and
// shift+tab switch fields, esc or ctrl+c cancels.
//
// Watch: q, esc or ctrl+c quits, r redraws now, t cycles the theme and
// saves the choice to prefs.toml.
//
// # Themes
//
// Theme names match prefs.Prefs.Theme. GetTheme ignores case and falls
// back to Dracula for unknown names.
package ui
