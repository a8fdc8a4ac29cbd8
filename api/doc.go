// Package api exposes the REST surface of the escape-room server: room
// catalog CRUD, game-session lifecycle, server stats, and the /ws websocket
// endpoint that hands connections to the hub.
//
// The API is deliberately thin: handlers decode, call the GameService, and
// translate its sentinel errors to HTTP status codes. All live-session
// behavior lives in transport/websocket.
package api
