package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// a search with a step delay can take a while
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Pathfinder",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Pathfinder - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session owns a square grid with a start (S) and a goal (G). find_path
runs A* from S to G and marks the result on the grid.

GRID LEGEND:
  .  open cell        #  blocked cell
  S  start            G  goal
  o  frontier         x  expanded
  *  path

Moves go to any of the 8 neighbors and every move costs 1.

AVAILABLE TOOLS:
- create_session: Create a session from a maze config
- list_sessions: List all active sessions
- get_grid: Show the grid of a session
- find_path: Run A* with a chosen heuristic
- clear_search: Remove search marks from the grid
- set_cell: Open or block a cell
- set_endpoints: Move the start and/or goal
- describe_cell: Inspect one cell
- list_configs: List available maze configurations
- list_heuristics: List heuristics and whether they are admissible`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new pathfinding session with optional maze config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the maze config to use (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_grid",
		Description: "Get the grid of a session, with the marks of the last search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetGrid)

	// Search
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Run A* from start to goal and return the path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"heuristic": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"manhattan", "euclidean", "diagonal", "chebyshev"},
					"description": "Heuristic to guide the search (defaults to the session's)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_search",
		Description: "Remove frontier, expanded and path marks from the grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleClearSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_heuristics",
		Description: "List the heuristics find_path accepts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListHeuristics)

	// Editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_cell",
		Description: "Open or block a single cell. Not allowed while a search runs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordProperty("Row of the cell (0-based, 0 is the top)"),
				"col":        coordProperty("Column of the cell (0-based, 0 is the left)"),
				"passable": map[string]interface{}{
					"type":        "boolean",
					"description": "true opens the cell, false blocks it",
				},
			},
			Required: []string{"session_id", "row", "col", "passable"},
		},
	}, c.handleSetCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_endpoints",
		Description: "Move the start and/or the goal. Omitted coordinates keep their current value.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"start_row":  coordProperty("New start row"),
				"start_col":  coordProperty("New start column"),
				"goal_row":   coordProperty("New goal row"),
				"goal_col":   coordProperty("New goal column"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSetEndpoints)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about one cell: whether it is passable and what the last search did with it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordProperty("Row of the cell (0-based)"),
				"col":        coordProperty("Column of the cell (0-based)"),
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available maze configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
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

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configName, _ := args["config_name"].(string)

	body := map[string]string{}
	if configName != "" {
		body["config_id"] = configName
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGrid(session.Grid))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		size := 0
		if s.Grid != nil {
			size = s.Grid.Size
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Grid: %dx%d, Created: %s)\n",
			s.ID, s.ConfigName, size, size, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var view service.GridView
	if err := c.apiCall("GET", sessionPath(sessionID, "/grid"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGrid(&view)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	name, _ := args["heuristic"].(string)

	body := map[string]interface{}{}
	if name != "" {
		body["heuristic"] = name
	}

	var result service.SearchResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/search"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSearchResult(&result)), nil
}

func (c *Client) handleClearSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var view service.GridView
	if err := c.apiCall("POST", sessionPath(sessionID, "/clear"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Search cleared\n\n" + formatGrid(&view)), nil
}

func (c *Client) handleListHeuristics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var heuristics []service.HeuristicInfo
	if err := c.apiCall("GET", "/api/heuristics", nil, &heuristics); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Heuristics:\n\n")
	for _, h := range heuristics {
		mark := " "
		if h.Admissible {
			mark = "✓"
		}
		fmt.Fprintf(&result, "[%s] %s\n    %s\n", mark, h.Name, h.Description)
	}
	result.WriteString("\n✓ = never overestimates, so the path found is always shortest")

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleSetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	passable, okPassable := args["passable"].(bool)
	if !okRow || !okCol || !okPassable {
		return mcp.NewToolResultError("row, col and passable are required"), nil
	}

	body := map[string]interface{}{
		"cells": []service.CellUpdate{{Row: row, Col: col, Passable: passable}},
	}

	var view service.GridView
	if err := c.apiCall("PUT", sessionPath(sessionID, "/cells"), body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state := "blocked"
	if passable {
		state = "opened"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cell (%d,%d) %s\n\n%s", row, col, state, formatGrid(&view))), nil
}

func (c *Client) handleSetEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	body := map[string]interface{}{}
	for _, end := range []string{"start", "goal"} {
		row, okRow := intArg(args, end+"_row")
		col, okCol := intArg(args, end+"_col")
		if okRow != okCol {
			return mcp.NewToolResultError(fmt.Sprintf("%s_row and %s_col must be given together", end, end)), nil
		}
		if okRow {
			body[end] = grid.Coord{Row: row, Col: col}
		}
	}
	if len(body) == 0 {
		return mcp.NewToolResultError("nothing to change: give start_row/start_col and/or goal_row/goal_col"), nil
	}

	var view service.GridView
	if err := c.apiCall("PUT", sessionPath(sessionID, "/endpoints"), body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Start: %s Goal: %s\n\n%s", view.Start, view.Goal, formatGrid(&view))), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	var view service.GridView
	if err := c.apiCall("GET", sessionPath(sessionID, "/grid"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= len(view.Rows) || col < 0 || col >= len(view.Rows[row]) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid size is %dx%d (0-%d for both row and col)",
			row, col, view.Size, view.Size, view.Size-1)), nil
	}

	char := rune(view.Rows[row][col])
	cellType, passable, description := describeChar(char)

	result := fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %c
Type: %s
Passable: %v
Description: %s`,
		row, col, char, cellType, passable, description)

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall("GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (%s)\n  %s\n  Grid: %dx%d, Heuristic: %s\n\n",
			config.Name, config.ConfigID, config.Description, config.GridSize, config.GridSize, config.Heuristic)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func describeChar(char rune) (cellType string, passable bool, description string) {
	switch char {
	case grid.StartChar:
		return "Start", true, "Where the search begins"
	case grid.GoalChar:
		return "Goal", true, "Where the search ends"
	case grid.BlockedChar:
		return "Blocked", false, "Obstacle - IMPASSABLE"
	case grid.PathChar:
		return "Path", true, "On the path found by the last search"
	case grid.ExpandedChar:
		return "Expanded", true, "Expanded by the last search but not on its path"
	case grid.FrontierChar:
		return "Frontier", true, "Discovered by the last search but never expanded"
	case grid.OpenChar:
		return "Open", true, "Not touched by the last search"
	default:
		return "Unknown", false, "Unknown cell type"
	}
}

// Formatting helpers

func formatGrid(view *service.GridView) string {
	if view == nil {
		return "No grid available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Grid: %dx%d | Start: %s | Goal: %s | Heuristic: %s | Open cells: %d\n\n",
		view.Size, view.Size, view.Start, view.Goal, view.Heuristic, view.Open)
	for _, row := range view.Rows {
		result.WriteString(row)
		result.WriteString("\n")
	}
	return result.String()
}

func formatSearchResult(result *service.SearchResult) string {
	var out strings.Builder

	switch result.Outcome {
	case engine.Found:
		fmt.Fprintf(&out, "✓ Path found: %d moves (heuristic: %s)\n", result.PathLength, result.Heuristic)
	case engine.NotFound:
		fmt.Fprintf(&out, "✗ No path exists (heuristic: %s)\n", result.Heuristic)
	default:
		fmt.Fprintf(&out, "Search %s (heuristic: %s)\n", result.Outcome, result.Heuristic)
	}
	fmt.Fprintf(&out, "Expanded: %d | Frontier inserts: %d | Pops: %d | Time: %.2fms\n",
		result.Expansions, result.Inserted, result.Pops, result.DurationMS)

	if len(result.Path) > 0 {
		cells := make([]string, len(result.Path))
		for i, c := range result.Path {
			cells[i] = c.String()
		}
		fmt.Fprintf(&out, "Path: %s\n", strings.Join(cells, " → "))
	}

	if result.Grid != nil {
		out.WriteString("\n")
		out.WriteString(formatGrid(result.Grid))
	}
	return out.String()
}
