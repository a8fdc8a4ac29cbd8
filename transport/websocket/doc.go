// Package websocket implements the real-time coordination layer of the
// escape-room server.
//
// A single Hub owns all live-session state: which connections exist, what
// session/room/player each connection announced, and the element states of
// every session. All of it is mutated exclusively by the hub's run loop, which
// consumes one inbound event at a time to completion, so no locking is needed
// on the shared maps and every join/action/disconnect transition is atomic
// with respect to the others.
//
// Message Protocol:
//
// Every frame in both directions is a JSON envelope {"event": ..., "data": ...}.
//   - Inbound: join {sessionId, roomName, playerName} and
//     action {sessionId, roomName, playerName, action, target}.
//   - Outbound: sessionState, playerJoined, playerLeft, actionSuccess,
//     globalStateUpdate, globalNotification, errorMessage.
//
// Delivery is fire-and-forget: outbound frames go into a buffered per-client
// channel with a non-blocking send, and a client whose buffer is full is
// dropped. There is no acknowledgement, retry, or replay; a player who
// reconnects receives only the current element state snapshot.
//
// Connection Lifecycle:
//
//  1. Client connects, hub registers the bare connection
//  2. Client announces a join, receives the session's element states
//  3. Actions update states and fan out to the rest of the session
//  4. Transport disconnect removes membership and notifies the session
package websocket
