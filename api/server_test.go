package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/wricardo/pathfinder/pathfind/config"
	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/maze"
	"github.com/wricardo/pathfinder/pathfind/service"
	"github.com/wricardo/pathfinder/pathfind/session"
	"github.com/wricardo/pathfinder/transport/websocket"
)

// MockSearchService implements service.SearchService for testing
type MockSearchService struct {
	CreateSessionFunc  func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	GetGridFunc        func(ctx context.Context, sessionID string) (*service.GridView, error)
	SetCellsFunc       func(ctx context.Context, sessionID string, updates []service.CellUpdate) (*service.GridView, error)
	SetEndpointsFunc   func(ctx context.Context, sessionID string, start, goal grid.Coord) (*service.GridView, error)
	RunSearchFunc      func(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error)
	StartSearchFunc    func(ctx context.Context, sessionID string, opts service.SearchOptions) (service.PendingSearch, error)
	ClearSearchFunc    func(ctx context.Context, sessionID string) (*service.GridView, error)
	ListConfigsFunc    func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc     func(ctx context.Context, configName string) (*maze.Config, error)
	SaveConfigFunc     func(ctx context.Context, configName string, cfg *maze.Config) error
	ListHeuristicsFunc func(ctx context.Context) []service.HeuristicInfo
}

func testView() *service.GridView {
	return &service.GridView{
		Size:      3,
		Start:     grid.Coord{Row: 0, Col: 0},
		Goal:      grid.Coord{Row: 2, Col: 2},
		Heuristic: "manhattan",
		Rows:      []string{"S..", ".#.", "..G"},
		Open:      8,
	}
}

func (m *MockSearchService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now(), Grid: testView()}, nil
}

func (m *MockSearchService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now(), Grid: testView()}, nil
}

func (m *MockSearchService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockSearchService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockSearchService) GetGrid(ctx context.Context, sessionID string) (*service.GridView, error) {
	if m.GetGridFunc != nil {
		return m.GetGridFunc(ctx, sessionID)
	}
	return testView(), nil
}

func (m *MockSearchService) SetCells(ctx context.Context, sessionID string, updates []service.CellUpdate) (*service.GridView, error) {
	if m.SetCellsFunc != nil {
		return m.SetCellsFunc(ctx, sessionID, updates)
	}
	return testView(), nil
}

func (m *MockSearchService) SetEndpoints(ctx context.Context, sessionID string, start, goal grid.Coord) (*service.GridView, error) {
	if m.SetEndpointsFunc != nil {
		return m.SetEndpointsFunc(ctx, sessionID, start, goal)
	}
	view := testView()
	view.Start, view.Goal = start, goal
	return view, nil
}

func (m *MockSearchService) RunSearch(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error) {
	if m.RunSearchFunc != nil {
		return m.RunSearchFunc(ctx, sessionID, opts, onStep)
	}
	return &service.SearchResult{
		SessionID:  sessionID,
		Heuristic:  "manhattan",
		Result:     engine.Result{Outcome: engine.Found, Path: []grid.Coord{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}, Cost: 3},
		PathLength: 3,
	}, nil
}

func (m *MockSearchService) StartSearch(ctx context.Context, sessionID string, opts service.SearchOptions) (service.PendingSearch, error) {
	if m.StartSearchFunc != nil {
		return m.StartSearchFunc(ctx, sessionID, opts)
	}
	return func(ctx context.Context, onStep engine.Observer) (*service.SearchResult, error) {
		return m.RunSearch(ctx, sessionID, opts, onStep)
	}, nil
}

func (m *MockSearchService) ClearSearch(ctx context.Context, sessionID string) (*service.GridView, error) {
	if m.ClearSearchFunc != nil {
		return m.ClearSearchFunc(ctx, sessionID)
	}
	return testView(), nil
}

func (m *MockSearchService) ListHeuristics(ctx context.Context) []service.HeuristicInfo {
	if m.ListHeuristicsFunc != nil {
		return m.ListHeuristicsFunc(ctx)
	}
	return []service.HeuristicInfo{{Name: "manhattan"}, {Name: "chebyshev", Admissible: true}}
}

func (m *MockSearchService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockSearchService) LoadConfig(ctx context.Context, configName string) (*maze.Config, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	cfg := maze.Minimal()
	cfg.Name = configName
	return cfg, nil
}

func (m *MockSearchService) SaveConfig(ctx context.Context, configName string, cfg *maze.Config) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, cfg)
	}
	return nil
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestCreateSession(t *testing.T) {
	var gotConfig string
	mock := &MockSearchService{
		CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
			gotConfig = configName
			return &service.SessionInfo{ID: "abcd1234", ConfigName: configName, Grid: testView()}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "POST", "/api/sessions", map[string]string{"config_id": "spiral"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotConfig != "spiral" {
		t.Errorf("Expected config_id to reach the service, got %q", gotConfig)
	}

	var info service.SessionInfo
	json.Unmarshal(rr.Body.Bytes(), &info)
	if info.ID != "abcd1234" || info.Grid == nil {
		t.Errorf("Unexpected response: %+v", info)
	}

	// no body means the default maze
	rr = doRequest(t, server, "POST", "/api/sessions", nil)
	if rr.Code != http.StatusCreated || gotConfig != "" {
		t.Errorf("Expected default session, got %d with config %q", rr.Code, gotConfig)
	}
}

func TestListSessionsSortAndLimit(t *testing.T) {
	now := time.Now()
	mock := &MockSearchService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "GET", "/api/sessions?sort=created&order=desc&limit=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Count != 1 || body.Total != 2 {
		t.Errorf("Expected count 1 of 2, got %d of %d", body.Count, body.Total)
	}
	if body.Sessions[0].ID != "new" {
		t.Errorf("Expected newest session first, got %s", body.Sessions[0].ID)
	}

	rr = doRequest(t, server, "GET", "/api/sessions", nil)
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Sessions[0].ID != "old" {
		t.Errorf("Expected most recently accessed first by default, got %s", body.Sessions[0].ID)
	}
}

func TestSessionNotFound(t *testing.T) {
	mock := &MockSearchService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
		},
		GetGridFunc: func(ctx context.Context, sessionID string) (*service.GridView, error) {
			return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
		},
		RunSearchFunc: func(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error) {
			return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			return session.ErrSessionNotFound
		},
	}
	server := NewServer(mock, nil)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/sessions/nope"},
		{"DELETE", "/api/sessions/nope"},
		{"GET", "/api/sessions/nope/grid"},
		{"POST", "/api/sessions/nope/search"},
	} {
		rr := doRequest(t, server, tc.method, tc.path, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rr.Code)
		}
		if msg := decodeError(t, rr); !strings.Contains(msg, "session not found") {
			t.Errorf("%s %s: unexpected error %q", tc.method, tc.path, msg)
		}
	}
}

func TestGetGridText(t *testing.T) {
	server := NewServer(&MockSearchService{}, nil)

	rr := doRequest(t, server, "GET", "/api/sessions/s1/grid?format=text", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "S..\n.#.\n..G\n" {
		t.Errorf("Unexpected text grid %q", got)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
}

func TestSetCells(t *testing.T) {
	var got []service.CellUpdate
	mock := &MockSearchService{
		SetCellsFunc: func(ctx context.Context, sessionID string, updates []service.CellUpdate) (*service.GridView, error) {
			got = updates
			if updates[0].Row > 2 {
				return nil, fmt.Errorf("cell: %w", grid.ErrOutOfBounds)
			}
			return testView(), nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "PUT", "/api/sessions/s1/cells", map[string]interface{}{
		"cells": []map[string]interface{}{{"row": 1, "col": 1, "passable": false}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(got) != 1 || got[0].Row != 1 || got[0].Passable {
		t.Errorf("Unexpected updates: %+v", got)
	}

	rr = doRequest(t, server, "PUT", "/api/sessions/s1/cells", map[string]interface{}{
		"cells": []map[string]interface{}{{"row": 7, "col": 1, "passable": false}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out of bounds, got %d", rr.Code)
	}

	rr = doRequest(t, server, "PUT", "/api/sessions/s1/cells", map[string]interface{}{"cells": []interface{}{}})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty cells, got %d", rr.Code)
	}
}

func TestSetEndpointsKeepsMissingOne(t *testing.T) {
	var gotStart, gotGoal grid.Coord
	mock := &MockSearchService{
		SetEndpointsFunc: func(ctx context.Context, sessionID string, start, goal grid.Coord) (*service.GridView, error) {
			gotStart, gotGoal = start, goal
			return testView(), nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "PUT", "/api/sessions/s1/endpoints", map[string]interface{}{
		"goal": map[string]int{"row": 1, "col": 2},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotStart != (grid.Coord{Row: 0, Col: 0}) || gotGoal != (grid.Coord{Row: 1, Col: 2}) {
		t.Errorf("Unexpected endpoints %s %s", gotStart, gotGoal)
	}
}

func TestSearch(t *testing.T) {
	var gotOpts service.SearchOptions
	mock := &MockSearchService{
		RunSearchFunc: func(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error) {
			gotOpts = opts
			return &service.SearchResult{SessionID: sessionID, Heuristic: "diagonal", Result: engine.Result{Outcome: engine.NotFound}, PathLength: -1}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "POST", "/api/sessions/s1/search", map[string]interface{}{"heuristic": "diagonal", "delay_ms": 60000})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotOpts.Heuristic != "diagonal" || gotOpts.StepDelay != MaxStepDelay {
		t.Errorf("Unexpected options %+v", gotOpts)
	}

	var result map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &result)
	if result["outcome"] != "not_found" || result["path_length"] != float64(-1) {
		t.Errorf("Unexpected result %v", result)
	}

	rr = doRequest(t, server, "POST", "/api/sessions/s1/search", map[string]interface{}{"delay_ms": int64(math.MaxInt64)})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotOpts.StepDelay != MaxStepDelay {
		t.Errorf("Expected huge delay to clamp to %s, got %s", MaxStepDelay, gotOpts.StepDelay)
	}

	rr = doRequest(t, server, "POST", "/api/sessions/s1/search", map[string]interface{}{"heuristic": "zigzag"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown heuristic, got %d", rr.Code)
	}

	rr = doRequest(t, server, "POST", "/api/sessions/s1/search", map[string]interface{}{"delay_ms": -1})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative delay, got %d", rr.Code)
	}
}

func TestSearchConflict(t *testing.T) {
	mock := &MockSearchService{
		RunSearchFunc: func(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error) {
			return nil, service.ErrSearchInProgress
		},
		ClearSearchFunc: func(ctx context.Context, sessionID string) (*service.GridView, error) {
			return nil, service.ErrSearchInProgress
		},
	}
	server := NewServer(mock, nil)

	if rr := doRequest(t, server, "POST", "/api/sessions/s1/search", nil); rr.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "POST", "/api/sessions/s1/clear", nil); rr.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", rr.Code)
	}
}

func TestAsyncSearchOnBusySession(t *testing.T) {
	ran := false
	mock := &MockSearchService{
		StartSearchFunc: func(ctx context.Context, sessionID string, opts service.SearchOptions) (service.PendingSearch, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			}
			return nil, service.ErrSearchInProgress
		},
		RunSearchFunc: func(ctx context.Context, sessionID string, opts service.SearchOptions, onStep engine.Observer) (*service.SearchResult, error) {
			ran = true
			return nil, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "POST", "/api/sessions/s1/search", map[string]interface{}{"async": true})
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decodeError(t, rr); msg != service.ErrSearchInProgress.Error() {
		t.Errorf("Unexpected error message %q", msg)
	}

	rr = doRequest(t, server, "POST", "/api/sessions/missing/search", map[string]interface{}{"async": true})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
	if ran {
		t.Error("No search should run when the session cannot be claimed")
	}
}

func TestConfigsAndHeuristics(t *testing.T) {
	var saved *maze.Config
	var savedID string
	mock := &MockSearchService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", GridSize: 10}}, nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *maze.Config) error {
			savedID, saved = configName, cfg
			return maze.Validate(cfg)
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "GET", "/api/configs", nil)
	var configs []service.ConfigInfo
	json.Unmarshal(rr.Body.Bytes(), &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Errorf("Unexpected configs %+v", configs)
	}

	rr = doRequest(t, server, "GET", "/api/configs/classic.json", nil)
	var cfg maze.Config
	json.Unmarshal(rr.Body.Bytes(), &cfg)
	if cfg.Name != "classic" {
		t.Errorf("Expected extension to be stripped, got %q", cfg.Name)
	}

	body := maze.Minimal()
	body.Name = "mine"
	rr = doRequest(t, server, "POST", "/api/configs", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if savedID != "mine" || saved.GridSize != 5 {
		t.Errorf("Unexpected save %q %+v", savedID, saved)
	}

	body.Layout = body.Layout[:2]
	rr = doRequest(t, server, "POST", "/api/configs", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid maze, got %d", rr.Code)
	}

	rr = doRequest(t, server, "GET", "/api/heuristics", nil)
	var hs []service.HeuristicInfo
	json.Unmarshal(rr.Body.Bytes(), &hs)
	if len(hs) != 2 || !hs[1].Admissible {
		t.Errorf("Unexpected heuristics %+v", hs)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server := NewServer(&MockSearchService{}, nil)

	rr := doRequest(t, server, "GET", "/api/health", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, server, "GET", "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rr.Code)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	hub := websocket.NewHub()
	server := NewServer(&MockSearchService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, session.ErrSessionNotFound
		},
	}, hub)

	if rr := doRequest(t, server, "GET", "/ws", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "GET", "/ws?session=nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rr.Code)
	}
}

// newLiveServer wires the real service, managers and hub behind httptest
func newLiveServer(t *testing.T) (*httptest.Server, *websocket.Hub) {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewSearchService(session.NewManager(), configs)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	api := NewServer(svc, hub)
	api.SetBaseContext(ctx)
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)
	return ts, hub
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestLiveSearchStreamsSteps(t *testing.T) {
	ts, hub := newLiveServer(t)

	var info service.SessionInfo
	if code := postJSON(t, ts.URL+"/api/sessions", map[string]string{}, &info); code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", code)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + info.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(info.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var result service.SearchResult
	if code := postJSON(t, ts.URL+"/api/sessions/"+info.ID+"/search", map[string]string{"heuristic": "chebyshev"}, &result); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	// the centre wall breaks the straight diagonal, so one extra move
	if result.Outcome != engine.Found || result.PathLength != 5 {
		t.Fatalf("Expected a 5 move path on the built-in maze, got %s/%d", result.Outcome, result.PathLength)
	}

	steps := 0
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		if msg.Event == websocket.EventSearchStep {
			steps++
			continue
		}
		if msg.Event != websocket.EventSearchDone {
			t.Fatalf("Unexpected event %s", msg.Event)
		}
		if msg.Result == nil || msg.Result.PathLength != 5 {
			t.Errorf("Unexpected final result %+v", msg.Result)
		}
		break
	}
	if steps != result.Expansions {
		t.Errorf("Streamed %d steps, result reports %d expansions", steps, result.Expansions)
	}

	resp, err := http.Get(ts.URL + "/api/sessions/" + info.ID + "/grid?format=text")
	if err != nil {
		t.Fatalf("GET grid failed: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if strings.Count(buf.String(), "*") != 4 {
		t.Errorf("Expected 4 path marks between S and G, got grid:\n%s", buf.String())
	}
}

func TestLiveAsyncSearch(t *testing.T) {
	ts, _ := newLiveServer(t)

	var info service.SessionInfo
	postJSON(t, ts.URL+"/api/sessions", nil, &info)

	var accepted map[string]string
	if code := postJSON(t, ts.URL+"/api/sessions/"+info.ID+"/search", map[string]interface{}{"async": true}, &accepted); code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}
	if !strings.Contains(accepted["watch"], info.ID) {
		t.Errorf("Expected watch URL for session, got %v", accepted)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/sessions/" + info.ID)
		if err != nil {
			t.Fatalf("GET session failed: %v", err)
		}
		var got service.SessionInfo
		json.NewDecoder(resp.Body).Decode(&got)
		resp.Body.Close()
		if got.LastResult != nil {
			if got.LastResult.Outcome != engine.Found {
				t.Errorf("Expected found, got %s", got.LastResult.Outcome)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Async search never published a result")
}

func TestLiveAsyncSearchConflict(t *testing.T) {
	ts, _ := newLiveServer(t)

	var info service.SessionInfo
	postJSON(t, ts.URL+"/api/sessions", nil, &info)
	searchURL := ts.URL + "/api/sessions/" + info.ID + "/search"

	// the first run pauses 2s per expansion and holds the session
	slow := map[string]interface{}{"async": true, "delay_ms": 2000}
	if code := postJSON(t, searchURL, slow, nil); code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}

	var errResp map[string]string
	if code := postJSON(t, searchURL, map[string]interface{}{"async": true}, &errResp); code != http.StatusConflict {
		t.Errorf("Expected 409 for a second async search, got %d", code)
	}
	if errResp["error"] != service.ErrSearchInProgress.Error() {
		t.Errorf("Unexpected error %v", errResp)
	}
	if code := postJSON(t, searchURL, map[string]interface{}{}, nil); code != http.StatusConflict {
		t.Errorf("Expected 409 for a sync search, got %d", code)
	}
}
