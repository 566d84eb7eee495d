package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/maze"
)

// SearchService defines all pathfinding operations
type SearchService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Grid editing, only between runs
	GetGrid(ctx context.Context, sessionID string) (*GridView, error)
	SetCells(ctx context.Context, sessionID string, updates []CellUpdate) (*GridView, error)
	SetEndpoints(ctx context.Context, sessionID string, start, goal grid.Coord) (*GridView, error)

	// Search
	RunSearch(ctx context.Context, sessionID string, opts SearchOptions, onStep engine.Observer) (*SearchResult, error)
	StartSearch(ctx context.Context, sessionID string, opts SearchOptions) (PendingSearch, error)
	ClearSearch(ctx context.Context, sessionID string) (*GridView, error)
	ListHeuristics(ctx context.Context) []HeuristicInfo

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*maze.Config, error)
	SaveConfig(ctx context.Context, configName string, config *maze.Config) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *maze.Config) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *maze.Config) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles maze configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*maze.Config, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *maze.Config
	SaveConfig(name string, config *maze.Config) error
}

// PendingSearch runs a search claimed by StartSearch. It must be called
// exactly once; the session stays busy until it returns.
type PendingSearch func(ctx context.Context, onStep engine.Observer) (*SearchResult, error)

// Session is one grid and the search state drawn on it
type Session struct {
	ID         string
	ConfigID   string
	Config     *maze.Config
	Grid       *grid.Grid
	Start      grid.Coord
	Goal       grid.Coord
	Heuristic  string
	LastResult *SearchResult
	CreatedAt  time.Time

	// mu is held for the whole of a run or an edit; viewMu only guards the
	// published snapshot and the access time so readers never wait on a
	// search
	mu           sync.Mutex
	viewMu       sync.RWMutex
	view         *GridView
	lastAccessed time.Time
}

// NewSession builds the session's grid from config
func NewSession(id string, config *maze.Config) (*Session, error) {
	g, start, goal, err := maze.Build(config)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:           id,
		Config:       config,
		Grid:         g,
		Start:        start,
		Goal:         goal,
		Heuristic:    config.HeuristicName(),
		CreatedAt:    now,
		lastAccessed: now,
	}
	s.publish(nil)
	return s, nil
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.lastAccessed = t
}

// LastAccessed returns the time of the latest access
func (s *Session) LastAccessed() time.Time {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.lastAccessed
}

// publish stores a fresh grid snapshot and result for readers. Callers
// hold s.mu.
func (s *Session) publish(result *SearchResult) *GridView {
	view := renderView(s)

	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view = view
	s.LastResult = result
	return view
}

// snapshot returns the last published view and result without waiting for
// a running search
func (s *Session) snapshot() (*GridView, *SearchResult) {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view, s.LastResult
}

func renderView(s *Session) *GridView {
	return &GridView{
		Size:      s.Grid.Size(),
		Start:     s.Start,
		Goal:      s.Goal,
		Heuristic: s.Heuristic,
		Policy:    string(s.Grid.Policy()),
		Rows:      s.Grid.Render(s.Start, s.Goal),
		Open:      s.Grid.CountPassable(),
		Frontier:  s.Grid.CountTag(grid.Frontier),
		Expanded:  s.Grid.CountTag(grid.Expanded),
		Path:      s.Grid.CountTag(grid.Path),
	}
}
