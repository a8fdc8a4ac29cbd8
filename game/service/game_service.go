package service

import (
	"context"

	"github.com/escapelab/roomserver/game/room"
	"github.com/escapelab/roomserver/game/session"
)

// GameService defines all room and session operations.
type GameService interface {
	// Room catalog
	CreateRoom(ctx context.Context, name, description string) (*room.Room, error)
	GetRoom(ctx context.Context, id int) (*room.Room, error)
	ListRooms(ctx context.Context) ([]*room.Room, error)
	UpdateRoom(ctx context.Context, id int, name, description string) (*room.Room, error)
	DeleteRoom(ctx context.Context, id int) error

	// Session lifecycle
	StartSession(ctx context.Context, roomID, expectedPlayers int) (*session.GameSession, error)
	GetSession(ctx context.Context, id int) (*session.GameSession, error)
	GetActiveSession(ctx context.Context) (*session.GameSession, error)
	ListSessions(ctx context.Context) ([]*session.GameSession, error)
	EndSession(ctx context.Context, id int) (*session.GameSession, error)
	EndActiveSession(ctx context.Context) (*session.GameSession, error)
	SetExpectedPlayers(ctx context.Context, id, expected int) (*session.GameSession, error)

	// Live-session hooks, keyed by the session identifier string announced
	// over the websocket. Identifiers that do not name a known session are
	// tolerated silently.
	IsSessionActive(sessionID string) bool
	PlayerConnected(sessionID string)
	PlayerDisconnected(sessionID string)

	// Stats
	Stats(ctx context.Context) (*Stats, error)
}

// Stats summarizes the persisted-resource side of the server.
type Stats struct {
	Rooms          int `json:"rooms"`
	Sessions       int `json:"sessions"`
	ActiveSessions int `json:"active_sessions"`
}
