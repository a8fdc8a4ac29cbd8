// Package session manages game-session records: which room a session was
// started for, when it started and ended, and how many players are expected
// and currently connected.
//
// A session is active while EndTime is nil. At most one active session exists
// per room. The websocket layer refers to sessions by the decimal string form
// of their ID; by default it trusts the caller and does not consult this
// package, but the server can be started in strict mode where joins are
// checked against active session records.
package session
