package websocket

import (
	"encoding/json"

	"github.com/escapelab/roomserver/game/engine"
)

// Inbound event names.
const (
	EventJoin   = "join"
	EventAction = "action"
)

// Outbound event names.
const (
	EventSessionState       = "sessionState"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventActionSuccess      = "actionSuccess"
	EventGlobalStateUpdate  = "globalStateUpdate"
	EventGlobalNotification = "globalNotification"
	EventError              = "errorMessage"
)

// Envelope frames every message on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound pairs an event name with its payload for marshalling.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// JoinPayload announces a connection's intent to join a session.
// PlayerName defaults to "Guest" when missing.
type JoinPayload struct {
	SessionID  string `json:"sessionId"`
	Room       string `json:"roomName"`
	PlayerName string `json:"playerName,omitempty"`
}

// ActionPayload requests an action on a target element.
type ActionPayload struct {
	SessionID  string `json:"sessionId"`
	Room       string `json:"roomName"`
	PlayerName string `json:"playerName,omitempty"`
	Action     string `json:"action"`
	Target     string `json:"target"`
}

// SessionState is the private reply to a join: the session's current element
// states. Completed and CurrentPuzzle are carried for client compatibility;
// puzzle progress is not tracked by this layer.
type SessionState struct {
	ObjectStates  engine.ObjectStates `json:"objectStates"`
	Completed     []string            `json:"completed"`
	CurrentPuzzle *string             `json:"currentPuzzle"`
}

// PresenceNotice announces a player joining or leaving a session.
type PresenceNotice struct {
	PlayerName string `json:"playerName"`
	Room       string `json:"room"`
}

// StateDelta carries a single-element state change.
type StateDelta struct {
	ObjectStates map[string]string `json:"objectStates"`
}

// ActionSuccess is the private confirmation sent to the acting connection.
type ActionSuccess struct {
	Message      string     `json:"message"`
	SessionState StateDelta `json:"sessionState"`
}

// GlobalStateUpdate fans an element state change out to the rest of the session.
type GlobalStateUpdate struct {
	ObjectStates map[string]string `json:"objectStates"`
	UpdatedBy    string            `json:"updatedBy"`
	Room         string            `json:"room"`
}

// Notification is a free-form message, used for globalNotification and
// errorMessage events.
type Notification struct {
	Message string `json:"message"`
}
