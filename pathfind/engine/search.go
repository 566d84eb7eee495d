package engine

import (
	"context"
	"fmt"

	"github.com/wricardo/pathfinder/pathfind/frontier"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
)

// Search is a single A* run from start to goal. It is not safe for
// concurrent use and the grid must not be edited while it runs.
type Search struct {
	grid  *grid.Grid
	start grid.Coord
	goal  grid.Coord
	h     heuristic.Func

	status Status

	// per-run state, released once the search reaches a terminal status
	open     *frontier.Frontier
	gScore   map[grid.Coord]int
	fScore   map[grid.Coord]float64
	cameFrom map[grid.Coord]grid.Coord

	steps    int
	pops     int
	inserted int
	path     []grid.Coord
}

// New validates the endpoints and returns a Search in the Ready state.
// The grid's neighbor lists must already be computed.
func New(g *grid.Grid, start, goal grid.Coord, h heuristic.Func) (*Search, error) {
	if h == nil {
		return nil, ErrNilHeuristic
	}
	for _, c := range []grid.Coord{start, goal} {
		cell := g.At(c)
		if cell == nil {
			return nil, fmt.Errorf("endpoint %s: %w", c, grid.ErrOutOfBounds)
		}
		if !cell.Passable {
			return nil, fmt.Errorf("endpoint %s: %w", c, ErrBlockedEndpoint)
		}
	}

	return &Search{
		grid:   g,
		start:  start,
		goal:   goal,
		h:      h,
		status: Ready,
	}, nil
}

func (s *Search) Status() Status {
	return s.status
}

func (s *Search) begin() {
	s.grid.ResetTags()
	s.open = frontier.New()
	s.gScore = map[grid.Coord]int{s.start: 0}
	s.fScore = map[grid.Coord]float64{}
	s.cameFrom = map[grid.Coord]grid.Coord{}
	s.status = Running

	f := s.h(s.start, s.goal)
	s.fScore[s.start] = f
	s.open.Insert(f, s.start)
	s.grid.SetTag(s.start, grid.Frontier)
}

// Step advances the search until one cell has been expanded or the search
// reaches a terminal status. The boolean is false when no expansion
// happened, in which case Status reports how the search ended.
func (s *Search) Step() (Step, bool) {
	if s.status == Ready {
		s.begin()
	}
	if s.status != Running {
		return Step{}, false
	}

	for !s.open.Empty() {
		entry, err := s.open.PopMin()
		if err != nil {
			panic(fmt.Sprintf("engine: pop on non-empty frontier: %v", err))
		}
		s.pops++

		// a better entry for this cell was pushed after this one
		if entry.F > s.fScore[entry.Cell] {
			continue
		}

		if entry.Cell == s.goal {
			s.path = s.reconstruct()
			for _, c := range s.path {
				s.grid.SetTag(c, grid.Path)
			}
			s.finish(Succeeded)
			return Step{}, false
		}

		return s.expand(entry), true
	}

	s.finish(Exhausted)
	return Step{}, false
}

func (s *Search) expand(entry frontier.Entry) Step {
	current := entry.Cell
	if current != s.start {
		s.grid.SetTag(current, grid.Expanded)
	}

	step := Step{
		Index:   s.steps,
		Current: current,
		G:       s.gScore[current],
		F:       entry.F,
	}

	tentative := s.gScore[current] + 1
	for _, n := range s.grid.NeighborsOf(current) {
		old, seen := s.gScore[n.Coord]
		if seen && tentative >= old {
			continue
		}

		s.gScore[n.Coord] = tentative
		s.cameFrom[n.Coord] = current
		f := float64(tentative) + s.h(n.Coord, s.goal)
		s.fScore[n.Coord] = f

		if !s.open.ContainsCell(n.Coord) {
			step.Discovered = append(step.Discovered, n.Coord)
		}
		step.Improved = append(step.Improved, n.Coord)
		s.open.Insert(f, n.Coord)
		s.grid.SetTag(n.Coord, grid.Frontier)
	}

	s.steps++
	step.Expanded = s.steps
	step.FrontierSize = s.open.Len()
	return step
}

func (s *Search) reconstruct() []grid.Coord {
	path := []grid.Coord{s.goal}
	for c := s.goal; c != s.start; {
		c = s.cameFrom[c]
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (s *Search) finish(status Status) {
	s.status = status
	if s.open != nil {
		s.inserted = s.open.Inserted()
	}
	s.open = nil
	s.gScore = nil
	s.fScore = nil
	s.cameFrom = nil
}

// Abort stops a search that has not finished yet. Tags already written to
// the grid are left in place.
func (s *Search) Abort() {
	if s.status.Terminal() {
		return
	}
	s.finish(Cancelled)
}

// Run drives the search to completion, calling onStep after every
// expansion. The context is checked before each expansion.
func (s *Search) Run(ctx context.Context, onStep Observer) Result {
	for !s.status.Terminal() {
		if ctx.Err() != nil {
			s.Abort()
			break
		}
		step, ok := s.Step()
		if !ok {
			break
		}
		if onStep != nil {
			onStep(step)
		}
	}
	return s.Result()
}

// Result reports the outcome so far. Before a terminal status it reads as
// NotFound with the counters collected up to now.
func (s *Search) Result() Result {
	r := Result{
		Expansions: s.steps,
		Pops:       s.pops,
		Inserted:   s.inserted,
		Outcome:    NotFound,
	}
	if s.open != nil {
		r.Inserted = s.open.Inserted()
	}
	switch s.status {
	case Succeeded:
		r.Outcome = Found
		r.Path = append([]grid.Coord(nil), s.path...)
		r.Cost = len(s.path) - 1
	case Cancelled:
		r.Outcome = Aborted
	}
	return r
}

// FindPath runs A* on g from start to goal using the named heuristic. The
// grid's neighbor lists must be current. A nil onStep is allowed.
func FindPath(ctx context.Context, g *grid.Grid, start, goal grid.Coord, heuristicName string, onStep Observer) (Result, error) {
	h, err := heuristic.Lookup(heuristicName)
	if err != nil {
		return Result{}, err
	}
	s, err := New(g, start, goal, h)
	if err != nil {
		return Result{}, err
	}
	return s.Run(ctx, onStep), nil
}
