// Package session persists the client's credential and identity.
//
// # Overview
//
// A session is two string slots: "token" holds the bearer credential and
// "user" holds the JSON-encoded Identity. Store reads and writes those slots
// through a Slots backend and has no opinion about their contents; the auth
// package owns the rules about when a session is valid.
//
// # Backends
//
//   - FileSlots: a TOML file, by default ~/.config/rollcall/session.toml.
//     Written with mode 0600 through a temp file and rename, re-read on every
//     Get so a login from another terminal is picked up.
//   - RedisSlots: keys "<prefix>:token" and "<prefix>:user", for terminals
//     that share one session.
//   - MemorySlots: process-local, used in tests and with session_backend =
//     "memory".
//
// # Consistency
//
// Writes are visible to the next read in the same process. There is no
// transaction across Token and Identity reads; a renewal that lands between
// the two is harmless because renewal only replaces the token.
package session
