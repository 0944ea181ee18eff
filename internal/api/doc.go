// Package api provides the HTTP client and request pipeline for the
// attendance backend.
//
// # Overview
//
// Client resolves paths against a base URL (default
// http://localhost:8080/api), JSON-encodes request bodies, and unwraps the
// backend's response envelope:
//
//	{"status": "success", "message": "...", "data": {...}}
//
// Only the data member is decoded into the caller's destination.
//
// # Pipeline
//
// Requests travel through an explicit chain of Decorators composed with
// Chain. Each decorator receives a request and returns it unchanged or as a
// clone with headers added; the chain ends at the underlying transport. The
// stock decorators are UserAgent, AcceptJSON and RequestID. Response
// handling (credential renewal and replay) is a RoundTripper in the auth
// package that sits inside the chain, so callers of Client never see it.
//
// # Errors
//
//   - *StatusError for non-2xx responses, and for 2xx responses whose
//     envelope status is not "success". errors.Is(err, ErrUnauthorized) is
//     true for 401.
//   - ErrTransport (wrapped) when no response was received.
//   - "decode response" errors for malformed bodies.
//
// Example messages:
//   - "api /auth/me returned status 401: token expired"
//   - "transport error: execute request: dial tcp: connection refused"
package api
