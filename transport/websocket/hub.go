package websocket

import (
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/escapelab/roomserver/game/engine"
)

// Announcement is what a connection declared on join: which session it
// belongs to, which room it is playing, and under what name.
type Announcement struct {
	SessionID  string
	Room       string
	PlayerName string
}

// SessionHooks is what the hub needs from the session-records layer. All
// methods take the session identifier string announced on the wire;
// identifiers that do not name a known session record must be tolerated.
type SessionHooks interface {
	IsSessionActive(sessionID string) bool
	PlayerConnected(sessionID string)
	PlayerDisconnected(sessionID string)
}

type joinRequest struct {
	client  *Client
	payload JoinPayload
}

type actionRequest struct {
	client  *Client
	payload ActionPayload
}

type notifyRequest struct {
	sessionID string
	event     string
	data      any
}

// Hub coordinates all live connections. Its run loop is the sole owner of
// clients, announcements, members, and states; everything reaches them
// through the hub's channels.
type Hub struct {
	// Live connections.
	clients map[*Client]bool

	// Last announcement per connection.
	announcements map[*Client]*Announcement

	// Session identifier to its current member set.
	members map[string]map[*Client]bool

	// Per-session element states.
	states *engine.StateStore

	register   chan *Client
	unregister chan *Client
	joins      chan joinRequest
	actions    chan actionRequest
	notify     chan notifyRequest

	// Optional link to session records; may be nil.
	hooks SessionHooks

	// When true, joins for session identifiers without an active session
	// record are rejected with an errorMessage event.
	strictJoins bool

	connCount atomic.Int64
}

// NewHub creates a new hub. hooks may be nil; strictJoins requires hooks.
func NewHub(hooks SessionHooks, strictJoins bool) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		announcements: make(map[*Client]*Announcement),
		members:       make(map[string]map[*Client]bool),
		states:        engine.NewStateStore(),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		joins:         make(chan joinRequest),
		actions:       make(chan actionRequest),
		notify:        make(chan notifyRequest, 16),
		hooks:         hooks,
		strictJoins:   strictJoins && hooks != nil,
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unregister:
			h.handleDisconnect(c)

		case jr := <-h.joins:
			h.handleJoin(jr.client, jr.payload)

		case ar := <-h.actions:
			h.handleAction(ar.client, ar.payload)

		case nr := <-h.notify:
			h.sendToSession(nr.sessionID, nr.event, nr.data)
		}
	}
}

// NotifySession fans a globalNotification out to every member of a session.
// Safe to call from any goroutine.
func (h *Hub) NotifySession(sessionID, message string) {
	h.notify <- notifyRequest{
		sessionID: sessionID,
		event:     EventGlobalNotification,
		data:      Notification{Message: message},
	}
}

// BroadcastToSession delivers an arbitrary event to every member of a session.
// Safe to call from any goroutine.
func (h *Hub) BroadcastToSession(sessionID, event string, data any) {
	h.notify <- notifyRequest{sessionID: sessionID, event: event, data: data}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	return int(h.connCount.Load())
}

// handleRegister records the bare connection. Nothing else is known about it
// until it announces a join.
func (h *Hub) handleRegister(c *Client) {
	h.clients[c] = true
	h.connCount.Store(int64(len(h.clients)))
	log.Printf("connection %s established (total: %d)", c.id, len(h.clients))
}

// handleDisconnect tears a connection down. Safe to call more than once per
// connection: the second call finds nothing to do.
func (h *Hub) handleDisconnect(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	h.connCount.Store(int64(len(h.clients)))
	close(c.send)

	ann, ok := h.announcements[c]
	if !ok {
		// Disconnect before join is a valid no-op path.
		log.Printf("connection %s closed before joining", c.id)
		return
	}
	delete(h.announcements, c)

	h.removeMember(ann.SessionID, c)
	if h.hooks != nil {
		h.hooks.PlayerDisconnected(ann.SessionID)
	}

	log.Printf("player %q left session %s (room %s)", ann.PlayerName, ann.SessionID, ann.Room)

	// The departing connection is already out of the member set, so the
	// full-session broadcast can never reach it.
	h.sendToSession(ann.SessionID, EventPlayerLeft, PresenceNotice{
		PlayerName: ann.PlayerName,
		Room:       ann.Room,
	})
}

// handleJoin processes a join announcement. There is no error path in the
// default configuration: the caller's session identifier is trusted.
func (h *Hub) handleJoin(c *Client, payload JoinPayload) {
	if !h.clients[c] {
		return
	}

	playerName := payload.PlayerName
	if playerName == "" {
		playerName = "Guest"
	}

	if h.strictJoins && !h.hooks.IsSessionActive(payload.SessionID) {
		log.Printf("rejected join from %s: no active session %q", c.id, payload.SessionID)
		h.sendToCaller(c, EventError, Notification{
			Message: "no active session with id " + payload.SessionID,
		})
		return
	}

	// A connection belongs to at most one session. Re-announcing moves it:
	// the previous session sees an ordinary departure first.
	if prev, ok := h.announcements[c]; ok {
		h.removeMember(prev.SessionID, c)
		if h.hooks != nil {
			h.hooks.PlayerDisconnected(prev.SessionID)
		}
		h.sendToSession(prev.SessionID, EventPlayerLeft, PresenceNotice{
			PlayerName: prev.PlayerName,
			Room:       prev.Room,
		})
	}

	ann := &Announcement{
		SessionID:  payload.SessionID,
		Room:       payload.Room,
		PlayerName: playerName,
	}
	h.announcements[c] = ann

	if h.members[ann.SessionID] == nil {
		h.members[ann.SessionID] = make(map[*Client]bool)
	}
	h.members[ann.SessionID][c] = true

	if h.hooks != nil {
		h.hooks.PlayerConnected(ann.SessionID)
	}

	log.Printf("player %q joined session %s (room %s)", playerName, ann.SessionID, ann.Room)

	states := h.states.EnsureSeeded(ann.SessionID)
	h.sendToCaller(c, EventSessionState, SessionState{
		ObjectStates: states,
		Completed:    []string{},
	})

	h.sendToSessionExcluding(ann.SessionID, c, EventPlayerJoined, PresenceNotice{
		PlayerName: playerName,
		Room:       ann.Room,
	})
}

// handleAction resolves and applies an element action. Always succeeds:
// unknown targets create their key, unknown action tokens resolve to closed.
func (h *Hub) handleAction(c *Client, payload ActionPayload) {
	if !h.clients[c] {
		return
	}

	playerName := payload.PlayerName
	if playerName == "" {
		playerName = "Guest"
	}

	newState := engine.ResolveAction(payload.Action)
	h.states.Apply(payload.SessionID, payload.Target, newState)

	log.Printf("player %q action %q on %q in session %s", playerName, payload.Action, payload.Target, payload.SessionID)

	delta := map[string]string{payload.Target: newState}

	h.sendToCaller(c, EventActionSuccess, ActionSuccess{
		Message:      payload.Target + " " + payload.Action,
		SessionState: StateDelta{ObjectStates: delta},
	})

	h.sendToSessionExcluding(payload.SessionID, c, EventGlobalStateUpdate, GlobalStateUpdate{
		ObjectStates: delta,
		UpdatedBy:    playerName,
		Room:         payload.Room,
	})
}

// removeMember drops a connection from a session's member set, pruning the
// set when it empties.
func (h *Hub) removeMember(sessionID string, c *Client) {
	if set, ok := h.members[sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.members, sessionID)
		}
	}
}

// sendToCaller delivers an event to exactly one connection.
func (h *Hub) sendToCaller(c *Client, event string, data any) {
	msg, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", event, err)
		return
	}
	h.deliver(c, msg)
}

// sendToSessionExcluding delivers an event to every member of a session other
// than the excluded connection. Deliveries are logically concurrent; there is
// no ordering between recipients.
func (h *Hub) sendToSessionExcluding(sessionID string, exclude *Client, event string, data any) {
	set, ok := h.members[sessionID]
	if !ok {
		return
	}
	msg, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", event, err)
		return
	}
	for c := range set {
		if c == exclude {
			continue
		}
		h.deliver(c, msg)
	}
}

// sendToSession delivers an event to every current member of a session.
func (h *Hub) sendToSession(sessionID, event string, data any) {
	h.sendToSessionExcluding(sessionID, nil, event, data)
}

// deliver performs the fire-and-forget send. A client that cannot keep up is
// dropped rather than ever blocking the loop.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		log.Printf("connection %s send buffer full, dropping client", c.id)
		h.dropClient(c)
	}
}

// dropClient removes a client without the departure broadcast; used when the
// hub itself abandons a connection mid-delivery. No playerLeft is emitted
// because the drop can happen while a broadcast is iterating the same member
// set.
func (h *Hub) dropClient(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	h.connCount.Store(int64(len(h.clients)))
	close(c.send)

	if ann, ok := h.announcements[c]; ok {
		delete(h.announcements, c)
		h.removeMember(ann.SessionID, c)
		if h.hooks != nil {
			h.hooks.PlayerDisconnected(ann.SessionID)
		}
	}
}
