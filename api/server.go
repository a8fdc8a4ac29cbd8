package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/escapelab/roomserver/game/room"
	"github.com/escapelab/roomserver/game/service"
	"github.com/escapelab/roomserver/game/session"
	"github.com/escapelab/roomserver/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Room catalog
	api.HandleFunc("/rooms", s.handleCreateRoom).Methods("POST")
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleUpdateRoom).Methods("PUT")
	api.HandleFunc("/rooms/{id}", s.handleDeleteRoom).Methods("DELETE")

	// Session lifecycle ("active" must be registered before the {id} pattern)
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/active", s.handleGetActiveSession).Methods("GET")
	api.HandleFunc("/sessions/start", s.handleStartSession).Methods("POST")
	api.HandleFunc("/sessions/end", s.handleEndActiveSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handlePatchSession).Methods("PATCH")
	api.HandleFunc("/sessions/{id}/end", s.handleEndSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/notify", s.handleNotifySession).Methods("POST")

	// Stats
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service's sentinel errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, room.ErrRoomExists),
		errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrSessionEnded):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// Room handlers

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.service.CreateRoom(r.Context(), req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	got, err := s.service.GetRoom(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, got)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.service.UpdateRoom(r.Context(), id, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	if err := s.service.DeleteRoom(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Session handlers

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID          int `json:"room_id"`
		ExpectedPlayers int `json:"expected_players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.service.StartSession(r.Context(), req.RoomID, req.ExpectedPlayers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetActiveSession(w http.ResponseWriter, r *http.Request) {
	active, err := s.service.GetActiveSession(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, active)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	got, err := s.service.GetSession(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, got)
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req struct {
		ExpectedPlayers int `json:"expected_players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.service.SetExpectedPlayers(r.Context(), id, req.ExpectedPlayers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleEndActiveSession(w http.ResponseWriter, r *http.Request) {
	ended, err := s.service.EndActiveSession(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.notifySessionEnded(ended.ID)
	respondJSON(w, http.StatusOK, ended)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	ended, err := s.service.EndSession(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.notifySessionEnded(ended.ID)
	respondJSON(w, http.StatusOK, ended)
}

func (s *Server) handleNotifySession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	// The session must exist as a record; live membership is the hub's
	// business and may well be empty.
	if _, err := s.service.GetSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.NotifySession(strconv.Itoa(id), req.Message)
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// notifySessionEnded tells live members their session has been ended.
func (s *Server) notifySessionEnded(id int) {
	if s.hub != nil {
		s.hub.NotifySession(strconv.Itoa(id), "session ended")
	}
}

// Stats

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := struct {
		*service.Stats
		Connections int `json:"connections"`
	}{Stats: stats}
	if s.hub != nil {
		out.Connections = s.hub.ConnectionCount()
	}
	respondJSON(w, http.StatusOK, out)
}

// WebSocket

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket hub not running")
		return
	}
	s.hub.ServeWS(w, r)
}
