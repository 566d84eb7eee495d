// Command probe drives a running pathfinder server through its public
// surfaces. It creates a session, runs a search with every requested
// heuristic and, when -watch is set, follows the WebSocket stream to check
// that one search_step arrives per expansion before the search_done event.
//
// Usage:
//
//	probe -url http://localhost:8080 -config classic -watch -delay 20
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GridView struct {
	Size      int      `json:"size"`
	Start     Coord    `json:"start"`
	Goal      Coord    `json:"goal"`
	Heuristic string   `json:"heuristic"`
	Rows      []string `json:"rows"`
}

type SessionResponse struct {
	ID         string    `json:"id"`
	ConfigName string    `json:"config_name"`
	Grid       *GridView `json:"grid"`
}

type SearchResult struct {
	Heuristic  string    `json:"heuristic"`
	Outcome    string    `json:"outcome"`
	PathLength int       `json:"path_length"`
	Expansions int       `json:"expansions"`
	Inserted   int       `json:"inserted"`
	Pops       int       `json:"pops"`
	Grid       *GridView `json:"grid"`
}

type WSMessage struct {
	SessionID string          `json:"session_id"`
	Event     string          `json:"event"`
	Step      json.RawMessage `json:"step,omitempty"`
	Result    *SearchResult   `json:"result,omitempty"`
}

// Run is what probe saw for one heuristic
type Run struct {
	Result        *SearchResult
	StreamedSteps int // -1 when not watching
}

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) post(path string, body interface{}, out interface{}) (int, error) {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		return resp.StatusCode, fmt.Errorf("post %s: %d %s", path, resp.StatusCode, errResp["error"])
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) CreateSession(configName string) (*SessionResponse, error) {
	body := map[string]string{}
	if configName != "" {
		body["config_id"] = configName
	}

	var session SessionResponse
	if _, err := c.post("/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) Search(heuristic string, delayMS int, async bool) (*SearchResult, error) {
	body := map[string]interface{}{
		"heuristic": heuristic,
		"delay_ms":  delayMS,
		"async":     async,
	}

	if async {
		_, err := c.post("/api/sessions/"+c.sessionID+"/search", body, nil)
		return nil, err
	}

	var result SearchResult
	if _, err := c.post("/api/sessions/"+c.sessionID+"/search", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Clear() error {
	_, err := c.post("/api/sessions/"+c.sessionID+"/clear", nil, nil)
	return err
}

// Watch opens the session's event stream
func (c *Client) Watch() (*websocket.Conn, error) {
	if c.sessionID == "" {
		return nil, fmt.Errorf("no session ID set")
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	wsURL := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws"}
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	q := wsURL.Query()
	q.Set("session", c.sessionID)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// waitForResult counts search_step events until search_done
func waitForResult(ctx context.Context, conn *websocket.Conn) (*SearchResult, int, error) {
	steps := 0
	for {
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetReadDeadline(deadline)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return nil, steps, fmt.Errorf("websocket read: %w", err)
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}

		switch msg.Event {
		case "search_step":
			steps++
		case "search_done":
			if msg.Result == nil {
				return nil, steps, errors.New("search_done without result")
			}
			return msg.Result, steps, nil
		}
	}
}

// probeHeuristics runs every heuristic on the client's session. With watch
// set, each run is started asynchronously and followed over the WebSocket.
func probeHeuristics(ctx context.Context, c *Client, heuristics []string, delayMS int, watch bool) ([]Run, error) {
	var conn *websocket.Conn
	if watch {
		var err error
		if conn, err = c.Watch(); err != nil {
			return nil, fmt.Errorf("watch: %w", err)
		}
		defer conn.Close()
		// the server only streams steps to sessions with listeners
		time.Sleep(50 * time.Millisecond)
	}

	runs := make([]Run, 0, len(heuristics))
	for _, h := range heuristics {
		if err := c.Clear(); err != nil {
			return runs, fmt.Errorf("clear: %w", err)
		}

		if !watch {
			result, err := c.Search(h, delayMS, false)
			if err != nil {
				return runs, fmt.Errorf("search %s: %w", h, err)
			}
			runs = append(runs, Run{Result: result, StreamedSteps: -1})
			continue
		}

		if _, err := c.Search(h, delayMS, true); err != nil {
			return runs, fmt.Errorf("search %s: %w", h, err)
		}
		result, steps, err := waitForResult(ctx, conn)
		if err != nil {
			return runs, fmt.Errorf("search %s: %w", h, err)
		}
		runs = append(runs, Run{Result: result, StreamedSteps: steps})
	}
	return runs, nil
}

// checkRuns reports disagreements between runs. Every heuristic must agree
// on whether a path exists, and a watched run must stream one step per
// expansion.
func checkRuns(runs []Run) []string {
	var problems []string
	for _, run := range runs {
		if run.StreamedSteps >= 0 && run.StreamedSteps != run.Result.Expansions {
			problems = append(problems, fmt.Sprintf("%s: streamed %d steps for %d expansions",
				run.Result.Heuristic, run.StreamedSteps, run.Result.Expansions))
		}
		if run.Result.Outcome != runs[0].Result.Outcome {
			problems = append(problems, fmt.Sprintf("%s: outcome %s differs from %s's %s",
				run.Result.Heuristic, run.Result.Outcome, runs[0].Result.Heuristic, runs[0].Result.Outcome))
		}
	}
	return problems
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Pathfinder server URL")
	configName := flag.String("config", "", "Maze configuration name (server default when empty)")
	heuristicList := flag.String("heuristics", "manhattan,euclidean,diagonal,chebyshev", "Comma separated heuristics to run")
	delayMs := flag.Int("delay", 0, "Delay between expansions in milliseconds (0 = no delay)")
	watch := flag.Bool("watch", false, "Follow each search over the WebSocket stream")
	verbose := flag.Bool("v", false, "Print the marked grid after each search")
	timeout := flag.Duration("timeout", 5*time.Minute, "Give up after this long")
	flag.Parse()

	log.Printf("Connecting to pathfinder server at %s", *serverURL)
	client := NewClient(*serverURL)

	session, err := client.CreateSession(*configName)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	log.Printf("✨ Session created: %s (config %s, grid %dx%d)",
		session.ID, session.ConfigName, session.Grid.Size, session.Grid.Size)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runs, err := probeHeuristics(ctx, client, strings.Split(*heuristicList, ","), *delayMs, *watch)
	if err != nil {
		log.Fatalf("Probe failed: %v", err)
	}

	fmt.Printf("%-10s %-10s %6s %10s %9s %8s\n", "heuristic", "outcome", "moves", "expansions", "inserted", "streamed")
	for _, run := range runs {
		r := run.Result
		fmt.Printf("%-10s %-10s %6d %10d %9d %8d\n", r.Heuristic, r.Outcome, r.PathLength, r.Expansions, r.Inserted, run.StreamedSteps)
		if *verbose && r.Grid != nil {
			fmt.Println(strings.Join(r.Grid.Rows, "\n"))
		}
	}

	if problems := checkRuns(runs); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("❌ %s", p)
		}
		os.Exit(1)
	}
	log.Printf("✅ %d searches consistent", len(runs))
}
