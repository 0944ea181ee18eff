// Package app is the composition root for rollcall.
//
// # Overview
//
// New loads configuration (flag overrides, environment, .env, config file,
// defaults), opens the session backend, and builds two API clients over
// one base transport:
//
//	public: UserAgent -> AcceptJSON -> RequestID -> transport
//	authed: RequestID -> Gatekeeper(Attacher, Renewer) -> UserAgent -> AcceptJSON -> transport
//
// Login, registration and credential renewal use the public client so a
// rejected login never triggers renewal. Everything else goes through the
// authed client, which is where the bearer header is attached and where a
// 401 is renewed and replayed once.
//
// # Components
//
//   - app.go: Options, New, App.Login, App.Watch, Close
//   - logger.go: NewLogger, a slog text handler on stderr
//   - poller.go: StartPoller, the background refresh loop behind `rollcall watch`
//
// # Session backends
//
//   - file: TOML file at session_path (default ~/.config/rollcall/session.toml)
//   - redis: two keys under redis_prefix, shared by every client using the
//     same server (kiosk setups)
//   - memory: process lifetime only, useful for scripting and tests
//
// # Polling Behavior
//
// The poller fetches the current identity on its first successful pass and
// the attendance list on every pass. Failures are recorded in the
// state.Store and the next pass is delayed by doubling the interval per
// consecutive failure, capped at 30 seconds. Once a poll fails with
// api.ErrUnauthorized the session has already been cleared by the
// Gatekeeper, so the poller stops and closes its done channel.
package app
