package maze

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
)

const (
	MinGridSize = 2
	MaxGridSize = 200
)

var (
	ErrInvalidMaze = errors.New("invalid maze")
	ErrUnreachable = errors.New("goal is not reachable from start")
)

// DefaultLegend names each layout character
var DefaultLegend = map[string]string{
	string(grid.OpenChar):    "open",
	string(grid.BlockedChar): "wall",
	string(grid.StartChar):   "start",
	string(grid.GoalChar):    "goal",
}

// Config is a maze as stored on disk
type Config struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	GridSize    int               `json:"grid_size"`
	Layout      []string          `json:"layout"`
	Heuristic   string            `json:"heuristic,omitempty"`
	Policy      string            `json:"policy,omitempty"`
	Legend      map[string]string `json:"legend,omitempty"`
}

// Validate checks a maze for structural correctness. It does not check
// that the goal is reachable; see Solve for that.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidMaze)
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMaze)
	}
	if cfg.GridSize < MinGridSize || cfg.GridSize > MaxGridSize {
		return fmt.Errorf("%w: grid_size must be between %d and %d, got %d", ErrInvalidMaze, MinGridSize, MaxGridSize, cfg.GridSize)
	}
	if len(cfg.Layout) != cfg.GridSize {
		return fmt.Errorf("%w: layout must have %d rows to match grid_size, got %d", ErrInvalidMaze, cfg.GridSize, len(cfg.Layout))
	}

	starts, goals := 0, 0
	for i, row := range cfg.Layout {
		chars := []rune(row)
		if len(chars) != cfg.GridSize {
			return fmt.Errorf("%w: row %d must have %d characters to match grid_size, got %d", ErrInvalidMaze, i+1, cfg.GridSize, len(chars))
		}
		for j, char := range chars {
			switch char {
			case grid.OpenChar, grid.BlockedChar:
			case grid.StartChar:
				starts++
			case grid.GoalChar:
				goals++
			default:
				return fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidMaze, char, i+1, j+1)
			}
		}
	}
	if starts != 1 {
		return fmt.Errorf("%w: layout must contain exactly one start (S), got %d", ErrInvalidMaze, starts)
	}
	if goals != 1 {
		return fmt.Errorf("%w: layout must contain exactly one goal (G), got %d", ErrInvalidMaze, goals)
	}

	if cfg.Heuristic != "" {
		if _, err := heuristic.Canonical(cfg.Heuristic); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMaze, err)
		}
	}
	if _, err := grid.ParsePolicy(cfg.Policy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMaze, err)
	}

	for key, value := range cfg.Legend {
		if _, ok := DefaultLegend[key]; !ok {
			return fmt.Errorf("%w: legend key '%s' is not a layout character", ErrInvalidMaze, key)
		}
		if value == "" {
			return fmt.Errorf("%w: legend['%s'] is empty", ErrInvalidMaze, key)
		}
	}

	return nil
}

// Build validates cfg and returns its grid along with the start and goal.
// Neighbor lists are computed using the configured policy.
func Build(cfg *Config) (*grid.Grid, grid.Coord, grid.Coord, error) {
	var start, goal grid.Coord

	if err := Validate(cfg); err != nil {
		return nil, start, goal, err
	}

	g, markers, err := grid.ParseLayout(cfg.Layout)
	if err != nil {
		return nil, start, goal, fmt.Errorf("%w: %v", ErrInvalidMaze, err)
	}

	policy, _ := grid.ParsePolicy(cfg.Policy)
	g.SetPolicy(policy)
	g.ComputeNeighbors()

	return g, markers.Starts[0], markers.Goals[0], nil
}

// Solve builds the maze and returns the fewest moves from start to goal,
// or ErrUnreachable.
func Solve(cfg *Config) (int, error) {
	g, start, goal, err := Build(cfg)
	if err != nil {
		return 0, err
	}
	steps, ok := g.StepDistances(start)[goal]
	if !ok {
		return 0, ErrUnreachable
	}
	return steps, nil
}

// HeuristicName returns the configured heuristic, or the package default
func (c *Config) HeuristicName() string {
	name, err := heuristic.Canonical(c.Heuristic)
	if err != nil {
		return string(heuristic.Default)
	}
	return string(name)
}

// Load reads and validates a maze file. When CONFIG_DIR is set, paths
// beginning with "configs/" are resolved against it instead.
func Load(filename string) (*Config, error) {
	path := filename
	if dir := os.Getenv("CONFIG_DIR"); dir != "" && strings.HasPrefix(filename, "configs/") {
		path = filepath.Join(dir, strings.TrimPrefix(filename, "configs/"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes and validates a maze from JSON
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse maze: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Minimal returns a small built-in maze used when no files are available
func Minimal() *Config {
	return &Config{
		Name:        "default",
		Description: "Built-in open maze",
		GridSize:    5,
		Layout: []string{
			"S....",
			".....",
			"..#..",
			".....",
			"....G",
		},
		Heuristic: string(heuristic.Default),
		Policy:    string(grid.Permissive),
	}
}

// FromGrid captures a grid's passability and endpoints as a Config
func FromGrid(name, description string, g *grid.Grid, start, goal grid.Coord, h string, policy grid.NeighborPolicy) *Config {
	return &Config{
		Name:        name,
		Description: description,
		GridSize:    g.Size(),
		Layout:      g.Layout(start, goal),
		Heuristic:   h,
		Policy:      string(policy),
	}
}
