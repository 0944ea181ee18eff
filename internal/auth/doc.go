// Package auth owns the client side of the backend's bearer-token protocol.
//
// # Components
//
//   - Session: local view of the stored credential and identity, plus
//     Logout. It never touches the network.
//   - Attacher: request decorator that adds "Authorization: Bearer <token>"
//     when a credential is held.
//   - Renewer: exchanges the held credential at POST /auth/refresh and
//     persists the result. Concurrent renewals of one credential share a
//     single call.
//   - Gatekeeper: http.RoundTripper that reacts to 401 by renewing once and
//     replaying the request once.
//   - Lifecycle: login, registration and /auth/me on top of Session.
//
// # Retry bound
//
// RoundTrip creates an attempt state, Initial or Retried, for each request
// and shares it with that request's replay. The context only supplies the
// starting value (see WithAttempt). The state is set to Retried before
// renewal starts and never returns to Initial, so one logical request
// triggers at most one renewal and one replay. When renewal is not possible
// the session is dropped and the caller receives the original 401; the
// renewal failure itself is only logged.
//
// A caller whose context ends during renewal gets its context error back
// and the session is kept. A renewal that completes after a logout or a
// new login is discarded rather than stored.
//
// # Errors
//
// Failures that the backend explains come back as *Error, which matches
// both its Kind (ErrAuthFailed, ErrRegistrationFailed, ErrRenewalFailed)
// and its cause under errors.Is. Transport failures keep api.ErrTransport
// and 401 responses keep api.ErrUnauthorized.
package auth
