// Package service defines the GameService interface and its implementation.
//
// GameService is the facade the REST API, the MCP transport, and the websocket
// hub share: room catalog CRUD, game-session lifecycle, and the live-session
// hooks (player counters, strict-join validation) the hub calls with the
// string session identifier announced on the wire.
package service
