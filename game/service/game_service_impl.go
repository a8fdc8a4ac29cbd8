package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/escapelab/roomserver/game/room"
	"github.com/escapelab/roomserver/game/session"
)

// gameServiceImpl implements the GameService interface on top of the
// in-memory room and session managers.
type gameServiceImpl struct {
	rooms    *room.Manager
	sessions *session.Manager
}

// NewGameService creates a new game service instance.
func NewGameService(rooms *room.Manager, sessions *session.Manager) GameService {
	return &gameServiceImpl{
		rooms:    rooms,
		sessions: sessions,
	}
}

func (s *gameServiceImpl) CreateRoom(ctx context.Context, name, description string) (*room.Room, error) {
	if name == "" {
		return nil, fmt.Errorf("room name is required")
	}
	return s.rooms.Create(name, description)
}

func (s *gameServiceImpl) GetRoom(ctx context.Context, id int) (*room.Room, error) {
	return s.rooms.Get(id)
}

func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*room.Room, error) {
	return s.rooms.List(), nil
}

func (s *gameServiceImpl) UpdateRoom(ctx context.Context, id int, name, description string) (*room.Room, error) {
	return s.rooms.Update(id, name, description)
}

func (s *gameServiceImpl) DeleteRoom(ctx context.Context, id int) error {
	return s.rooms.Delete(id)
}

// StartSession validates the room before starting a session for it.
func (s *gameServiceImpl) StartSession(ctx context.Context, roomID, expectedPlayers int) (*session.GameSession, error) {
	if _, err := s.rooms.Get(roomID); err != nil {
		return nil, err
	}
	return s.sessions.Start(roomID, expectedPlayers)
}

func (s *gameServiceImpl) GetSession(ctx context.Context, id int) (*session.GameSession, error) {
	return s.sessions.Get(id)
}

func (s *gameServiceImpl) GetActiveSession(ctx context.Context) (*session.GameSession, error) {
	return s.sessions.GetActive()
}

func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*session.GameSession, error) {
	return s.sessions.List(), nil
}

func (s *gameServiceImpl) EndSession(ctx context.Context, id int) (*session.GameSession, error) {
	return s.sessions.End(id)
}

func (s *gameServiceImpl) EndActiveSession(ctx context.Context) (*session.GameSession, error) {
	active, err := s.sessions.GetActive()
	if err != nil {
		return nil, err
	}
	return s.sessions.End(active.ID)
}

func (s *gameServiceImpl) SetExpectedPlayers(ctx context.Context, id, expected int) (*session.GameSession, error) {
	return s.sessions.SetExpectedPlayers(id, expected)
}

func (s *gameServiceImpl) IsSessionActive(sessionID string) bool {
	id, err := strconv.Atoi(sessionID)
	if err != nil {
		return false
	}
	return s.sessions.IsActive(id)
}

func (s *gameServiceImpl) PlayerConnected(sessionID string) {
	if id, err := strconv.Atoi(sessionID); err == nil {
		s.sessions.IncrementPlayers(id)
	}
}

func (s *gameServiceImpl) PlayerDisconnected(sessionID string) {
	if id, err := strconv.Atoi(sessionID); err == nil {
		s.sessions.DecrementPlayers(id)
	}
}

func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	active := 0
	for _, sess := range s.sessions.List() {
		if sess.Active() {
			active++
		}
	}
	return &Stats{
		Rooms:          s.rooms.Count(),
		Sessions:       s.sessions.Count(),
		ActiveSessions: active,
	}, nil
}
