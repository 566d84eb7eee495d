package service

import (
	"time"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
)

// SessionInfo provides information about a session
type SessionInfo struct {
	ID             string        `json:"id"`
	ConfigName     string        `json:"config_name"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	Grid           *GridView     `json:"grid"`
	LastResult     *SearchResult `json:"last_result,omitempty"`
}

// GridView is a rendered snapshot of a session grid
type GridView struct {
	Size      int        `json:"size"`
	Start     grid.Coord `json:"start"`
	Goal      grid.Coord `json:"goal"`
	Heuristic string     `json:"heuristic"`
	Policy    string     `json:"policy"`
	Rows      []string   `json:"rows"`
	Open      int        `json:"open_cells"`
	Frontier  int        `json:"frontier_cells"`
	Expanded  int        `json:"expanded_cells"`
	Path      int        `json:"path_cells"`
}

// CellUpdate sets the passability of one cell
type CellUpdate struct {
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Passable bool `json:"passable"`
}

// SearchOptions configures a single run
type SearchOptions struct {
	Heuristic string        `json:"heuristic,omitempty"` // empty uses the session default
	StepDelay time.Duration `json:"-"`                   // pause after each step, for animated clients
}

// SearchResult contains the outcome of a run
type SearchResult struct {
	SessionID string `json:"session_id"`
	Heuristic string `json:"heuristic"`
	engine.Result
	PathLength int       `json:"path_length"` // moves on the path, -1 when none
	DurationMS float64   `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
	Grid       *GridView `json:"grid,omitempty"`
}

// HeuristicInfo describes an available heuristic
type HeuristicInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Admissible  bool   `json:"admissible"` // never overestimates under unit diagonal cost
}

// ConfigInfo provides information about a maze configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	GridSize    int    `json:"grid_size"`
	Heuristic   string `json:"heuristic,omitempty"`
}
