package session

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionActive   = errors.New("an active session already exists for this room")
	ErrSessionEnded    = errors.New("session already ended")
	ErrNoActiveSession = errors.New("no active session found")
)

// GameSession is one play-through of a room.
type GameSession struct {
	ID               int        `json:"id"`
	RoomID           int        `json:"room_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	ExpectedPlayers  int        `json:"expected_players"`
	ConnectedPlayers int        `json:"connected_players"`
}

// Active reports whether the session has not ended yet.
func (s *GameSession) Active() bool {
	return s.EndTime == nil
}

// Manager handles game-session lifecycle.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int]*GameSession
	nextID   int
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int]*GameSession),
		nextID:   1,
	}
}

// Start creates a session for a room. Fails if the room already has an
// active session.
func (m *Manager) Start(roomID, expectedPlayers int) (*GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.RoomID == roomID && s.Active() {
			return nil, ErrSessionActive
		}
	}

	if expectedPlayers < 1 {
		expectedPlayers = 1
	}

	session := &GameSession{
		ID:              m.nextID,
		RoomID:          roomID,
		StartTime:       time.Now(),
		ExpectedPlayers: expectedPlayers,
	}
	m.sessions[session.ID] = session
	m.nextID++

	return copySession(session), nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(id int) (*GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(session), nil
}

// GetActive returns the first active session, if any.
func (m *Manager) GetActive() (*GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var oldest *GameSession
	for _, s := range m.sessions {
		if !s.Active() {
			continue
		}
		if oldest == nil || s.ID < oldest.ID {
			oldest = s
		}
	}
	if oldest == nil {
		return nil, ErrNoActiveSession
	}
	return copySession(oldest), nil
}

// GetActiveByRoom returns the active session for a room, if any.
func (m *Manager) GetActiveByRoom(roomID int) (*GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions {
		if s.RoomID == roomID && s.Active() {
			return copySession(s), nil
		}
	}
	return nil, ErrNoActiveSession
}

// List returns all sessions ordered by ID.
func (m *Manager) List() []*GameSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*GameSession, 0, len(m.sessions))
	for id := 1; id < m.nextID; id++ {
		if s, ok := m.sessions[id]; ok {
			result = append(result, copySession(s))
		}
	}
	return result
}

// End marks a session as ended. Ending an already-ended session fails.
func (m *Manager) End(id int) (*GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !session.Active() {
		return nil, ErrSessionEnded
	}

	now := time.Now()
	session.EndTime = &now

	return copySession(session), nil
}

// SetExpectedPlayers updates the expected player count.
func (m *Manager) SetExpectedPlayers(id, expected int) (*GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if expected > 0 {
		session.ExpectedPlayers = expected
	}
	return copySession(session), nil
}

// IncrementPlayers bumps the connected-player counter.
func (m *Manager) IncrementPlayers(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		session.ConnectedPlayers++
	}
}

// DecrementPlayers lowers the connected-player counter, never below zero.
func (m *Manager) DecrementPlayers(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok && session.ConnectedPlayers > 0 {
		session.ConnectedPlayers--
	}
}

// IsActive reports whether the session exists and has not ended.
func (m *Manager) IsActive(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	return ok && session.Active()
}

// Count returns the number of sessions, active and ended.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func copySession(s *GameSession) *GameSession {
	cp := *s
	if s.EndTime != nil {
		t := *s.EndTime
		cp.EndTime = &t
	}
	return &cp
}
