package websocket

import (
	"encoding/json"
	"testing"
)

// fakeHooks records the session hook calls the hub makes.
type fakeHooks struct {
	active       map[string]bool
	connected    []string
	disconnected []string
}

func (f *fakeHooks) IsSessionActive(sessionID string) bool { return f.active[sessionID] }
func (f *fakeHooks) PlayerConnected(sessionID string)      { f.connected = append(f.connected, sessionID) }
func (f *fakeHooks) PlayerDisconnected(sessionID string) {
	f.disconnected = append(f.disconnected, sessionID)
}

// newTestClient registers a client without a real network connection. The
// unit tests drive the hub's handlers synchronously, mirroring the run loop's
// one-event-at-a-time execution.
func newTestClient(h *Hub, id string) *Client {
	c := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		id:   id,
	}
	h.handleRegister(c)
	return c
}

// recvEvent pops the next outbound frame for a client, failing the test if
// none is pending or the event name differs.
func recvEvent(t *testing.T, c *Client, want string) json.RawMessage {
	t.Helper()

	select {
	case raw := <-c.send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("malformed outbound frame: %v", err)
		}
		if env.Event != want {
			t.Fatalf("expected %s event, got %s", want, env.Event)
		}
		return env.Data
	default:
		t.Fatalf("expected a pending %s event, got none", want)
		return nil
	}
}

// expectSilence fails the test if the client has a pending frame.
func expectSilence(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.send:
		t.Fatalf("expected no pending frames, got %s", raw)
	default:
	}
}

func TestJoinSeedsDefaultState(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})

	data := recvEvent(t, x, EventSessionState)

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("failed to unmarshal sessionState: %v", err)
	}

	want := map[string]string{
		"oven":      "off",
		"fridge":    "off",
		"drawer":    "chiuso",
		"gas_valve": "chiusa",
		"window":    "chiusa",
	}
	if len(state.ObjectStates) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(state.ObjectStates))
	}
	for k, v := range want {
		if state.ObjectStates[k] != v {
			t.Errorf("objectStates[%s] = %q, want %q", k, state.ObjectStates[k], v)
		}
	}
	if state.Completed == nil || len(state.Completed) != 0 {
		t.Errorf("completed should be an empty list, got %v", state.Completed)
	}

	expectSilence(t, x)
}

func TestSecondJoinBroadcastsPresence(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)

	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})

	// Y gets its own snapshot, unmutated, and never its own join notice.
	var state SessionState
	json.Unmarshal(recvEvent(t, y, EventSessionState), &state)
	if state.ObjectStates["oven"] != "off" {
		t.Errorf("second join saw mutated snapshot: oven = %q", state.ObjectStates["oven"])
	}
	expectSilence(t, y)

	// X is told about Bob.
	var notice PresenceNotice
	json.Unmarshal(recvEvent(t, x, EventPlayerJoined), &notice)
	if notice.PlayerName != "Bob" || notice.Room != "kitchen" {
		t.Errorf("unexpected playerJoined notice: %+v", notice)
	}
}

func TestActionFlow(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, x, EventSessionState)
	recvEvent(t, x, EventPlayerJoined)
	recvEvent(t, y, EventSessionState)

	h.handleAction(x, ActionPayload{
		SessionID: "S1", Room: "kitchen", PlayerName: "Alice",
		Action: "on", Target: "oven",
	})

	var success ActionSuccess
	json.Unmarshal(recvEvent(t, x, EventActionSuccess), &success)
	if success.Message != "oven on" {
		t.Errorf("unexpected confirmation message: %q", success.Message)
	}
	if success.SessionState.ObjectStates["oven"] != "on" {
		t.Errorf("confirmation delta oven = %q, want on", success.SessionState.ObjectStates["oven"])
	}
	expectSilence(t, x) // the acting connection never sees the broadcast

	var update GlobalStateUpdate
	json.Unmarshal(recvEvent(t, y, EventGlobalStateUpdate), &update)
	if update.ObjectStates["oven"] != "on" || update.UpdatedBy != "Alice" || update.Room != "kitchen" {
		t.Errorf("unexpected globalStateUpdate: %+v", update)
	}
}

func TestRejoinSeesCurrentState(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)
	h.handleAction(x, ActionPayload{SessionID: "S1", Room: "kitchen", Action: "open", Target: "window"})
	recvEvent(t, x, EventActionSuccess)

	y := newTestClient(h, "y")
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})

	var state SessionState
	json.Unmarshal(recvEvent(t, y, EventSessionState), &state)
	if state.ObjectStates["window"] != "aperto" {
		t.Errorf("late joiner saw window = %q, want aperto", state.ObjectStates["window"])
	}
	// No re-seed: the other elements are still present.
	if len(state.ObjectStates) != 5 {
		t.Errorf("expected 5 element keys, got %d", len(state.ObjectStates))
	}
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, x, EventSessionState)
	recvEvent(t, x, EventPlayerJoined)
	recvEvent(t, y, EventSessionState)

	h.handleDisconnect(x)

	var notice PresenceNotice
	json.Unmarshal(recvEvent(t, y, EventPlayerLeft), &notice)
	if notice.PlayerName != "Alice" || notice.Room != "kitchen" {
		t.Errorf("unexpected playerLeft notice: %+v", notice)
	}

	if len(h.members["S1"]) != 1 || !h.members["S1"][y] {
		t.Errorf("expected only Bob to remain in S1, got %d members", len(h.members["S1"]))
	}
	if _, ok := h.announcements[x]; ok {
		t.Error("announcement for disconnected client not removed")
	}
}

func TestDisconnectBeforeJoin(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, y, EventSessionState)

	h.handleDisconnect(x)

	// Nobody announced anything for x, so nobody hears about it.
	expectSilence(t, y)
	if h.ConnectionCount() != 1 {
		t.Errorf("expected 1 remaining connection, got %d", h.ConnectionCount())
	}
}

func TestDoubleDisconnectIsNoOp(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, y, EventSessionState)

	h.handleDisconnect(x)
	h.handleDisconnect(x) // transport double-fire

	recvEvent(t, y, EventPlayerLeft)
	expectSilence(t, y) // exactly one departure notice
}

func TestRejoinLeavesPriorSession(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, x, EventSessionState)
	recvEvent(t, x, EventPlayerJoined)
	recvEvent(t, y, EventSessionState)

	// X moves to a different session: S1 must not keep a ghost member.
	h.handleJoin(x, JoinPayload{SessionID: "S2", Room: "cellar", PlayerName: "Alice"})

	var notice PresenceNotice
	json.Unmarshal(recvEvent(t, y, EventPlayerLeft), &notice)
	if notice.PlayerName != "Alice" {
		t.Errorf("expected S1 to see Alice leave, got %+v", notice)
	}

	if h.members["S1"][x] {
		t.Error("ghost membership: x still in S1 after joining S2")
	}
	if !h.members["S2"][x] {
		t.Error("x not a member of S2 after re-join")
	}

	// X gets a fresh snapshot for S2.
	var state SessionState
	json.Unmarshal(recvEvent(t, x, EventSessionState), &state)
	if state.ObjectStates["oven"] != "off" {
		t.Errorf("S2 snapshot not freshly seeded: oven = %q", state.ObjectStates["oven"])
	}
}

func TestUnknownActionTokenClosesTarget(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen"})
	recvEvent(t, x, EventSessionState)

	for _, action := range []string{"fiddle", ""} {
		h.handleAction(x, ActionPayload{SessionID: "S1", Room: "kitchen", Action: action, Target: "drawer"})

		var success ActionSuccess
		json.Unmarshal(recvEvent(t, x, EventActionSuccess), &success)
		if success.SessionState.ObjectStates["drawer"] != "chiuso" {
			t.Errorf("action %q resolved to %q, want chiuso", action, success.SessionState.ObjectStates["drawer"])
		}
	}
}

func TestActionOnUnknownTargetCreatesKey(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)

	h.handleAction(x, ActionPayload{SessionID: "S1", Room: "kitchen", Action: "open", Target: "trapdoor"})
	recvEvent(t, x, EventActionSuccess)

	if got := h.states.Get("S1")["trapdoor"]; got != "aperto" {
		t.Errorf("trapdoor state = %q, want aperto", got)
	}
}

func TestActionWithoutJoinDoesNotSeed(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")

	h.handleAction(x, ActionPayload{SessionID: "S9", Room: "kitchen", Action: "on", Target: "oven"})

	// The caller still gets its confirmation; the store stays untouched.
	recvEvent(t, x, EventActionSuccess)
	if h.states.Seeded("S9") {
		t.Error("action without a join must not seed the session store")
	}
}

func TestPlayerNameDefaultsToGuest(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)

	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen"})
	recvEvent(t, y, EventSessionState)

	var notice PresenceNotice
	json.Unmarshal(recvEvent(t, x, EventPlayerJoined), &notice)
	if notice.PlayerName != "Guest" {
		t.Errorf("expected Guest, got %q", notice.PlayerName)
	}
}

func TestStrictJoinsRejectUnknownSession(t *testing.T) {
	hooks := &fakeHooks{active: map[string]bool{"1": true}}
	h := NewHub(hooks, true)
	x := newTestClient(h, "x")

	h.handleJoin(x, JoinPayload{SessionID: "2", Room: "kitchen", PlayerName: "Alice"})

	recvEvent(t, x, EventError)
	if len(h.members) != 0 {
		t.Error("rejected join still created membership")
	}
	if len(hooks.connected) != 0 {
		t.Error("rejected join incremented the player counter")
	}

	h.handleJoin(x, JoinPayload{SessionID: "1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)
	if !h.members["1"][x] {
		t.Error("join to the active session failed")
	}
}

func TestSessionHookCounters(t *testing.T) {
	hooks := &fakeHooks{active: map[string]bool{}}
	h := NewHub(hooks, false)
	x := newTestClient(h, "x")

	h.handleJoin(x, JoinPayload{SessionID: "1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)

	// Moving sessions decrements the old one and increments the new one.
	h.handleJoin(x, JoinPayload{SessionID: "2", Room: "cellar", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)

	h.handleDisconnect(x)

	if len(hooks.connected) != 2 || hooks.connected[0] != "1" || hooks.connected[1] != "2" {
		t.Errorf("unexpected connected hook calls: %v", hooks.connected)
	}
	if len(hooks.disconnected) != 2 || hooks.disconnected[0] != "1" || hooks.disconnected[1] != "2" {
		t.Errorf("unexpected disconnected hook calls: %v", hooks.disconnected)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	slow := &Client{hub: h, send: make(chan []byte, 1), id: "slow"}
	h.handleRegister(slow)

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	recvEvent(t, x, EventSessionState)
	h.handleJoin(slow, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, x, EventPlayerJoined)

	// The slow client's single-slot buffer is already full with its own
	// sessionState; the next broadcasts overflow it.
	h.handleAction(x, ActionPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice", Action: "on", Target: "oven"})
	h.handleAction(x, ActionPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice", Action: "off", Target: "oven"})

	if h.clients[slow] {
		t.Error("slow client was not dropped")
	}
	if h.members["S1"][slow] {
		t.Error("slow client still a session member")
	}
	if !h.members["S1"][x] {
		t.Error("healthy client was dropped too")
	}
}

func TestNotifyReachesWholeSession(t *testing.T) {
	h := NewHub(nil, false)
	x := newTestClient(h, "x")
	y := newTestClient(h, "y")

	h.handleJoin(x, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Alice"})
	h.handleJoin(y, JoinPayload{SessionID: "S1", Room: "kitchen", PlayerName: "Bob"})
	recvEvent(t, x, EventSessionState)
	recvEvent(t, x, EventPlayerJoined)
	recvEvent(t, y, EventSessionState)

	h.sendToSession("S1", EventGlobalNotification, Notification{Message: "session is ending"})

	for _, c := range []*Client{x, y} {
		var n Notification
		json.Unmarshal(recvEvent(t, c, EventGlobalNotification), &n)
		if n.Message != "session is ending" {
			t.Errorf("unexpected notification: %+v", n)
		}
	}
}
