package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/escapelab/roomserver/game/room"
	"github.com/escapelab/roomserver/game/session"
	"github.com/escapelab/roomserver/game/service"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Escape Room Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Escape Room Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The server coordinates cooperative escape-room sessions: operators create
rooms, start one session per room, and players connect over the websocket
to flip switches, open drawers, and see each other's actions live.

AVAILABLE TOOLS:
- list_rooms / get_room / create_room: manage the room catalog
- list_sessions / get_session / active_session: inspect game sessions
- start_session / end_session: run the session lifecycle
- notify_session: push a message to a session's connected players
- server_stats: rooms, sessions, and live connection counts

Element states use the game's discrete tokens: on, off, aperto (open),
chiuso/chiusa (closed).`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	// Room catalog
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all escape rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "integer",
					"description": "Room ID to retrieve",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_room",
		Description: "Create a new escape room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Unique room name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Room description (optional)",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleCreateRoom)

	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all game sessions, active and ended",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific game session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "integer",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "active_session",
		Description: "Get the currently active game session, if any",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleActiveSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start a new game session for a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "integer",
					"description": "Room to start the session for",
				},
				"expected_players": map[string]interface{}{
					"type":        "integer",
					"description": "Expected number of players (defaults to 1)",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleStartSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_session",
		Description: "End a game session (the active one if no id is given)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "integer",
					"description": "Session ID to end (optional)",
				},
			},
		},
	}, c.handleEndSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "notify_session",
		Description: "Send a notification message to a session's connected players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "integer",
					"description": "Session ID",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message to deliver",
				},
			},
			Required: []string{"session_id", "message"},
		},
	}, c.handleNotifySession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get room, session, and live connection counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)
}

// GetMCPServer exposes the underlying MCP server for HTTP/stdio mounting.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func intArg(request mcp.CallToolRequest, name string) int {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return 0
	}
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return 0
}

func stringArg(request mcp.CallToolRequest, name string) string {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := args[name].(string)
	return v
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rooms []room.Room
	if err := c.apiCall("GET", "/api/rooms", nil, &rooms); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Rooms (%d):\n\n", len(rooms))
	for _, r := range rooms {
		result += fmt.Sprintf("- #%d %s", r.ID, r.Name)
		if r.Description != "" {
			result += " — " + r.Description
		}
		result += "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(request, "room_id")

	var r room.Room
	if err := c.apiCall("GET", fmt.Sprintf("/api/rooms/%d", id), nil, &r); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Room #%d: %s\nDescription: %s\n", r.ID, r.Name, r.Description)), nil
}

func (c *Client) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{
		"name":        stringArg(request, "name"),
		"description": stringArg(request, "description"),
	}

	var created room.Room
	if err := c.apiCall("POST", "/api/rooms", body, &created); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created room #%d: %s\n", created.ID, created.Name)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sessions []session.GameSession
	if err := c.apiCall("GET", "/api/sessions", nil, &sessions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		result += formatSessionLine(&s)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(request, "session_id")

	var s session.GameSession
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%d", id), nil, &s); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionLine(&s)), nil
}

func (c *Client) handleActiveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var s session.GameSession
	if err := c.apiCall("GET", "/api/sessions/active", nil, &s); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionLine(&s)), nil
}

func (c *Client) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]int{
		"room_id":          intArg(request, "room_id"),
		"expected_players": intArg(request, "expected_players"),
	}

	var created session.GameSession
	if err := c.apiCall("POST", "/api/sessions/start", body, &created); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Started session #%d for room #%d (expecting %d players)\n",
		created.ID, created.RoomID, created.ExpectedPlayers)), nil
}

func (c *Client) handleEndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions/end"
	if id := intArg(request, "session_id"); id != 0 {
		path = fmt.Sprintf("/api/sessions/%d/end", id)
	}

	var ended session.GameSession
	if err := c.apiCall("POST", path, nil, &ended); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Ended session #%d\n", ended.ID)), nil
}

func (c *Client) handleNotifySession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(request, "session_id")
	body := map[string]string{"message": stringArg(request, "message")}

	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%d/notify", id), body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Notification sent to session #%d\n", id)), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats struct {
		service.Stats
		Connections int `json:"connections"`
	}
	if err := c.apiCall("GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Rooms: %d\nSessions: %d (active: %d)\nLive connections: %d\n",
		stats.Rooms, stats.Sessions, stats.ActiveSessions, stats.Connections)), nil
}

func formatSessionLine(s *session.GameSession) string {
	status := "active"
	if s.EndTime != nil {
		status = "ended " + s.EndTime.Format("15:04:05")
	}
	return fmt.Sprintf("- #%d room #%d, started %s, %s, players %d/%d\n",
		s.ID, s.RoomID, s.StartTime.Format("15:04:05"), status,
		s.ConnectedPlayers, s.ExpectedPlayers)
}
