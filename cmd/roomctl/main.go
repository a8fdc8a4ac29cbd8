// Command roomctl is an operator CLI for the escape-room server. It talks to
// the REST API to manage the room catalog and drive the game-session
// lifecycle from a terminal.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

type roomRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type sessionRecord struct {
	ID               int        `json:"id"`
	RoomID           int        `json:"room_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	ExpectedPlayers  int        `json:"expected_players"`
	ConnectedPlayers int        `json:"connected_players"`
}

func main() {
	if err := rootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "roomctl",
		Usage: "manage escape rooms and game sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the room server",
				Sources: cli.EnvVars("ROOMSERVER_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "rooms",
				Usage: "room catalog",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list all rooms",
						Action: roomsList,
					},
					{
						Name:      "create",
						Usage:     "create a room",
						ArgsUsage: "<name> [description]",
						Action:    roomsCreate,
					},
					{
						Name:      "delete",
						Usage:     "delete a room",
						ArgsUsage: "<id>",
						Action:    roomsDelete,
					},
				},
			},
			{
				Name:  "sessions",
				Usage: "game-session lifecycle",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list all sessions",
						Action: sessionsList,
					},
					{
						Name:  "start",
						Usage: "start a session for a room",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "room", Required: true, Usage: "room id"},
							&cli.IntFlag{Name: "players", Value: 1, Usage: "expected players"},
						},
						Action: sessionsStart,
					},
					{
						Name:      "end",
						Usage:     "end a session (the active one if no id is given)",
						ArgsUsage: "[id]",
						Action:    sessionsEnd,
					},
					{
						Name:      "notify",
						Usage:     "send a message to a session's connected players",
						ArgsUsage: "<id> <message>",
						Action:    sessionsNotify,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "show server stats",
				Action: showStats,
			},
		},
	}
}

func roomsList(ctx context.Context, cmd *cli.Command) error {
	var rooms []roomRecord
	if err := apiCall(cmd, "GET", "/api/rooms", nil, &rooms); err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, r := range rooms {
		fmt.Fprintf(out, "#%d\t%s\t%s\n", r.ID, r.Name, r.Description)
	}
	return nil
}

func roomsCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("room name is required")
	}

	body := map[string]string{"name": name, "description": cmd.Args().Get(1)}
	var created roomRecord
	if err := apiCall(cmd, "POST", "/api/rooms", body, &created); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "created room #%d (%s)\n", created.ID, created.Name)
	return nil
}

func roomsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("room id is required")
	}

	if err := apiCall(cmd, "DELETE", "/api/rooms/"+id, nil, nil); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "deleted room #%s\n", id)
	return nil
}

func sessionsList(ctx context.Context, cmd *cli.Command) error {
	var sessions []sessionRecord
	if err := apiCall(cmd, "GET", "/api/sessions", nil, &sessions); err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, s := range sessions {
		status := "active"
		if s.EndTime != nil {
			status = "ended"
		}
		fmt.Fprintf(out, "#%d\troom #%d\t%s\tplayers %d/%d\n",
			s.ID, s.RoomID, status, s.ConnectedPlayers, s.ExpectedPlayers)
	}
	return nil
}

func sessionsStart(ctx context.Context, cmd *cli.Command) error {
	body := map[string]int{
		"room_id":          int(cmd.Int("room")),
		"expected_players": int(cmd.Int("players")),
	}

	var created sessionRecord
	if err := apiCall(cmd, "POST", "/api/sessions/start", body, &created); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "started session #%d for room #%d\n", created.ID, created.RoomID)
	return nil
}

func sessionsEnd(ctx context.Context, cmd *cli.Command) error {
	path := "/api/sessions/end"
	if id := cmd.Args().First(); id != "" {
		path = "/api/sessions/" + id + "/end"
	}

	var ended sessionRecord
	if err := apiCall(cmd, "POST", path, nil, &ended); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "ended session #%d\n", ended.ID)
	return nil
}

func sessionsNotify(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	message := cmd.Args().Get(1)
	if id == "" || message == "" {
		return fmt.Errorf("usage: roomctl sessions notify <id> <message>")
	}

	body := map[string]string{"message": message}
	if err := apiCall(cmd, "POST", "/api/sessions/"+id+"/notify", body, nil); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "notified session #%s\n", id)
	return nil
}

func showStats(ctx context.Context, cmd *cli.Command) error {
	var stats struct {
		Rooms          int `json:"rooms"`
		Sessions       int `json:"sessions"`
		ActiveSessions int `json:"active_sessions"`
		Connections    int `json:"connections"`
	}
	if err := apiCall(cmd, "GET", "/api/stats", nil, &stats); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "rooms: %d\nsessions: %d (active: %d)\nconnections: %d\n",
		stats.Rooms, stats.Sessions, stats.ActiveSessions, stats.Connections)
	return nil
}

func apiCall(cmd *cli.Command, method, path string, body interface{}, result interface{}) error {
	url := cmd.Root().String("server") + path

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

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
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
