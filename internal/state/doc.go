// Package state provides thread-safe state sharing between the watch poller
// and its view.
//
// The poller fetches the attendance list (and, on its first pass, the
// current identity) and calls Store.Update. The view reads Store.Snapshot on
// its own schedule. Snapshots are copies: the records slice, the identity and
// the error are duplicated so the view never shares memory with the poller.
//
// # Update Semantics
//
//	// Success: replace records, reset the failure counter
//	store.Update(user, records, nil)
//
//	// Failure: keep the last good data, record the error
//	store.Update(nil, nil, err)
//
// A nil identity on success keeps the identity already stored.
//
// # Derived State
//
//   - IsOffline: two or more consecutive failures
//   - SignedOut: the last error matches api.ErrUnauthorized, meaning the
//     credential was rejected and could not be renewed
//   - Summary: record counts per attendance status
//
// The zero Store is ready to use.
package state
