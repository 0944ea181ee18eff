// Package attendance is a typed client for the backend's /attendances
// collection.
//
// Service issues plain GET/POST/PUT/DELETE calls through an api.Client and
// applies no auth logic of its own: credentials, renewal and replay are
// handled by the transport the client was built with. Required fields
// (personnel and date on create, id elsewhere) are checked locally; all
// other validation is left to the backend.
//
// CheckIn and CheckOut are conveniences over Create and Update that stamp
// the current date and time of day.
package attendance
