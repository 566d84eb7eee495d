package engine

import (
	"errors"

	"github.com/wricardo/pathfinder/pathfind/grid"
)

var (
	ErrBlockedEndpoint = errors.New("start or goal cell is blocked")
	ErrNilHeuristic    = errors.New("heuristic is nil")
)

// Status is the state of a Search
type Status int

const (
	Ready Status = iota
	Running
	Succeeded
	Exhausted
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Succeeded:
		return "found"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further steps can happen
func (s Status) Terminal() bool {
	return s == Succeeded || s == Exhausted || s == Cancelled
}

// Outcome is how a finished search ended
type Outcome string

const (
	Found    Outcome = "found"
	NotFound Outcome = "not_found"
	Aborted  Outcome = "aborted"
)

// Step describes one expansion
type Step struct {
	Index        int          `json:"index"`
	Current      grid.Coord   `json:"current"`
	G            int          `json:"g"`
	F            float64      `json:"f"`
	Discovered   []grid.Coord `json:"discovered,omitempty"` // cells that had no frontier entry before this step
	Improved     []grid.Coord `json:"improved,omitempty"`   // every cell that got a better g, discovered ones included
	FrontierSize int          `json:"frontier_size"`
	Expanded     int          `json:"expanded"`
}

// Observer is called once per expansion, before the next one starts
type Observer func(Step)

// Result summarizes a finished search
type Result struct {
	Outcome    Outcome      `json:"outcome"`
	Path       []grid.Coord `json:"path,omitempty"`
	Cost       int          `json:"cost"`
	Expansions int          `json:"expansions"`
	Pops       int          `json:"pops"`
	Inserted   int          `json:"inserted"`
}

// Steps returns the number of moves on the path, or -1 when there is none
func (r Result) Steps() int {
	if r.Outcome != Found {
		return -1
	}
	return len(r.Path) - 1
}
