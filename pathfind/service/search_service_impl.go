package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
	"github.com/wricardo/pathfinder/pathfind/maze"
)

var (
	ErrSearchInProgress = errors.New("a search is already running on this session")
	ErrEndpointChange   = errors.New("start and goal cells cannot be blocked")
)

var heuristicDescriptions = map[heuristic.Name]string{
	heuristic.ManhattanName: "|dr| + |dc|; orthogonal distance, overestimates diagonal moves",
	heuristic.EuclideanName: "sqrt(dr^2 + dc^2); straight-line distance (alias: pythagorean)",
	heuristic.DiagonalName:  "octile distance, diagonal steps weighted sqrt(2)",
	heuristic.ChebyshevName: "max(|dr|, |dc|); exact on open grids with unit diagonal cost",
}

// searchServiceImpl implements the SearchService interface
type searchServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
}

// NewSearchService creates a new search service instance
func NewSearchService(sessions SessionManager, configs ConfigManager) SearchService {
	return &searchServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID maps a maze display name back to the id used to load it
func (s *searchServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *searchServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// lock claims a session for a run or an edit without waiting
func lock(sess *Session) error {
	if !sess.mu.TryLock() {
		return ErrSearchInProgress
	}
	return nil
}

func info(sess *Session) *SessionInfo {
	view, last := sess.snapshot()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		Grid:           view,
		LastResult:     last,
	}
}

// CreateSession creates a session from a named maze, or the default one
func (s *searchServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var cfg *maze.Config
	var err error
	if configName != "" {
		cfg, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var ids []string
					for _, c := range availableConfigs {
						ids = append(ids, c.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, ids)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		cfg = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.ConfigID = configName
	if sess.ConfigID == "" {
		sess.ConfigID = s.getConfigID(cfg.Name)
	}

	log.Printf("[SESSION] created %s from %s (%dx%d)", sess.ID, sess.ConfigID, cfg.GridSize, cfg.GridSize)
	return info(sess), nil
}

// GetSession retrieves session information
func (s *searchServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return info(sess), nil
}

// ListSessions returns all active sessions
func (s *searchServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *searchServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// GetGrid returns the last published view of the session grid
func (s *searchServiceImpl) GetGrid(ctx context.Context, sessionID string) (*GridView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	view, _ := sess.snapshot()
	return view, nil
}

// SetCells changes passability and recomputes neighbors. Search tags and
// the last result are dropped since they no longer describe the grid.
func (s *searchServiceImpl) SetCells(ctx context.Context, sessionID string, updates []CellUpdate) (*GridView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := lock(sess); err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	for _, u := range updates {
		c := grid.Coord{Row: u.Row, Col: u.Col}
		if !sess.Grid.InBounds(c) {
			return nil, fmt.Errorf("cell %s: %w", c, grid.ErrOutOfBounds)
		}
		if !u.Passable && (c == sess.Start || c == sess.Goal) {
			return nil, fmt.Errorf("cell %s: %w", c, ErrEndpointChange)
		}
	}
	for _, u := range updates {
		if err := sess.Grid.SetPassable(u.Row, u.Col, u.Passable); err != nil {
			return nil, err
		}
	}

	sess.Grid.ComputeNeighbors()
	sess.Grid.ResetTags()
	return sess.publish(nil), nil
}

// SetEndpoints moves the start and goal. Both must be open cells.
func (s *searchServiceImpl) SetEndpoints(ctx context.Context, sessionID string, start, goal grid.Coord) (*GridView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := lock(sess); err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	for _, c := range []grid.Coord{start, goal} {
		if !sess.Grid.InBounds(c) {
			return nil, fmt.Errorf("endpoint %s: %w", c, grid.ErrOutOfBounds)
		}
		if !sess.Grid.Passable(c) {
			return nil, fmt.Errorf("endpoint %s: %w", c, engine.ErrBlockedEndpoint)
		}
	}

	sess.Start, sess.Goal = start, goal
	sess.Grid.ResetTags()
	return sess.publish(nil), nil
}

// RunSearch runs A* on the session grid. onStep, when set, sees every
// expansion; StepDelay pauses after each one until ctx is done.
func (s *searchServiceImpl) RunSearch(ctx context.Context, sessionID string, opts SearchOptions, onStep engine.Observer) (*SearchResult, error) {
	run, err := s.StartSearch(ctx, sessionID, opts)
	if err != nil {
		return nil, err
	}
	return run(ctx, onStep)
}

// StartSearch claims the session and prepares a run without expanding
// anything. Errors from an unknown session, a busy session or a bad
// heuristic are reported here, before any run is handed out.
func (s *searchServiceImpl) StartSearch(ctx context.Context, sessionID string, opts SearchOptions) (PendingSearch, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := lock(sess); err != nil {
		return nil, err
	}

	requested := opts.Heuristic
	if requested == "" {
		requested = sess.Heuristic
	}
	name, err := heuristic.Canonical(requested)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	h, err := heuristic.Lookup(string(name))
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	search, err := engine.New(sess.Grid, sess.Start, sess.Goal, h)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	return func(ctx context.Context, onStep engine.Observer) (*SearchResult, error) {
		defer sess.mu.Unlock()
		return s.run(ctx, sess, search, string(name), opts.StepDelay, onStep), nil
	}, nil
}

// run drives a claimed search. Callers hold sess.mu.
func (s *searchServiceImpl) run(ctx context.Context, sess *Session, search *engine.Search, name string, delay time.Duration, onStep engine.Observer) *SearchResult {
	observer := func(step engine.Step) {
		if onStep != nil {
			onStep(step)
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
			timer.Stop()
		}
	}

	log.Printf("[SEARCH] session=%s heuristic=%s start=%s goal=%s", sess.ID, name, sess.Start, sess.Goal)
	started := time.Now()
	result := search.Run(ctx, observer)
	elapsed := time.Since(started)

	searchesTotal.WithLabelValues(name, string(result.Outcome)).Inc()
	searchExpansions.WithLabelValues(name).Observe(float64(result.Expansions))
	searchDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	out := &SearchResult{
		SessionID:  sess.ID,
		Heuristic:  name,
		Result:     result,
		PathLength: result.Steps(),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
		FinishedAt: time.Now(),
	}
	out.Grid = sess.publish(out)

	log.Printf("[SEARCH] session=%s outcome=%s expansions=%d path=%d in %s",
		sess.ID, result.Outcome, result.Expansions, out.PathLength, elapsed)
	return out
}

// ClearSearch wipes search tags and the last result
func (s *searchServiceImpl) ClearSearch(ctx context.Context, sessionID string) (*GridView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := lock(sess); err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	sess.Grid.ResetTags()
	return sess.publish(nil), nil
}

// ListHeuristics describes every heuristic a search accepts
func (s *searchServiceImpl) ListHeuristics(ctx context.Context) []HeuristicInfo {
	names := heuristic.Names()
	result := make([]HeuristicInfo, 0, len(names))
	for _, name := range names {
		result = append(result, HeuristicInfo{
			Name:        name,
			Description: heuristicDescriptions[heuristic.Name(name)],
			Admissible:  heuristic.Name(name) == heuristic.ChebyshevName,
		})
	}
	return result
}

// ListConfigs returns all available mazes
func (s *searchServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific maze
func (s *searchServiceImpl) LoadConfig(ctx context.Context, configName string) (*maze.Config, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a maze
func (s *searchServiceImpl) SaveConfig(ctx context.Context, configName string, config *maze.Config) error {
	return s.configs.SaveConfig(configName, config)
}
