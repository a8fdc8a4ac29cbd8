// Package mcp provides a Model Context Protocol interface to the escape-room
// server, so AI agents and MCP-capable tools can operate the room catalog and
// game-session lifecycle.
//
// The implementation is a thin client that proxies every tool call to the
// REST API; it holds no state of its own.
//
// MCP Tools:
//   - list_rooms / get_room / create_room: room catalog
//   - list_sessions / get_session / active_session: session inspection
//   - start_session / end_session: session lifecycle
//   - notify_session: push a message to a session's live players
//   - server_stats: rooms, sessions, and live connection counts
//
// Transport Modes:
//   - Stdio for local MCP clients
//   - The /mcp HTTP endpoint mounted by the server mode
package mcp
