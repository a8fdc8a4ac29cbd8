// Package engine contains the game rules of the escape room: the catalog of
// interactive elements with their default states, the action resolver that maps
// a requested action to an element's next state, and the per-session element
// state store.
//
// Everything in this package is deterministic and free of I/O. The state store
// is deliberately unsynchronized: it is owned by the websocket hub's event loop,
// which is the only writer (see transport/websocket).
package engine
