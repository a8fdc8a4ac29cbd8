// Package room manages the catalog of physical escape rooms. Rooms are plain
// records (id, unique name, description) kept in memory; the websocket layer
// treats room names as opaque sub-channel labels and never consults this
// package directly.
package room

import (
	"errors"
	"sync"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room with this name already exists")
)

// Room describes a physical escape room.
type Room struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Manager handles room records.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[int]*Room
	nextID int
}

// NewManager creates an empty room manager.
func NewManager() *Manager {
	return &Manager{
		rooms:  make(map[int]*Room),
		nextID: 1,
	}
}

// Create adds a room. Room names are unique.
func (m *Manager) Create(name, description string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return nil, ErrRoomExists
		}
	}

	room := &Room{
		ID:          m.nextID,
		Name:        name,
		Description: description,
	}
	m.rooms[room.ID] = room
	m.nextID++

	return copyRoom(room), nil
}

// Get retrieves a room by ID.
func (m *Manager) Get(id int) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return copyRoom(room), nil
}

// GetByName retrieves a room by its unique name.
func (m *Manager) GetByName(name string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return copyRoom(r), nil
		}
	}
	return nil, ErrRoomNotFound
}

// List returns all rooms ordered by ID.
func (m *Manager) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Room, 0, len(m.rooms))
	for id := 1; id < m.nextID; id++ {
		if room, ok := m.rooms[id]; ok {
			result = append(result, copyRoom(room))
		}
	}
	return result
}

// Update changes a room's name and/or description. Empty fields are left
// untouched. Renaming to a name held by another room fails.
func (m *Manager) Update(id int, name, description string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}

	if name != "" && name != room.Name {
		for _, r := range m.rooms {
			if r.Name == name {
				return nil, ErrRoomExists
			}
		}
		room.Name = name
	}
	if description != "" {
		room.Description = description
	}

	return copyRoom(room), nil
}

// Delete removes a room.
func (m *Manager) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

// Count returns the number of rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func copyRoom(r *Room) *Room {
	cp := *r
	return &cp
}
