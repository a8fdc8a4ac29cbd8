package engine

// StateStore keeps the element states of every live session, keyed by the
// session identifier announced on join. Sessions are seeded lazily on first
// join and never deleted; the store lives for the lifetime of the process.
//
// StateStore is not safe for concurrent use. The websocket hub's run loop is
// its single owner.
type StateStore struct {
	sessions map[string]ObjectStates
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{
		sessions: make(map[string]ObjectStates),
	}
}

// EnsureSeeded returns the session's current states, creating the default
// snapshot if this is the first join for that session identifier.
func (s *StateStore) EnsureSeeded(sessionID string) ObjectStates {
	states, ok := s.sessions[sessionID]
	if !ok {
		states = DefaultObjectStates()
		s.sessions[sessionID] = states
	}
	return states.Clone()
}

// Apply overwrites a single element's state. Applying to a session that was
// never seeded is a no-op; the coordinator always seeds on join, so this only
// happens for actions from connections that never joined.
func (s *StateStore) Apply(sessionID, element, newState string) {
	states, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	states[element] = newState
}

// Get returns a copy of the session's states, or nil if never seeded.
func (s *StateStore) Get(sessionID string) ObjectStates {
	states, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return states.Clone()
}

// Seeded reports whether the session has been seeded.
func (s *StateStore) Seeded(sessionID string) bool {
	_, ok := s.sessions[sessionID]
	return ok
}
