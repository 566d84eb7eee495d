// Package engine implements the A* search over a grid.Grid.
//
// A Search moves through the states Ready, Running and then one of Found,
// Exhausted or Aborted. Each iteration pops the frontier entry with the
// smallest (f, sequence) pair, stops when that cell is the goal, and
// otherwise relaxes every cached neighbor with a uniform step cost of 1.
// Diagonal moves cost the same as orthogonal ones.
//
// Observation:
//
// After each expansion the Observer passed to Run or FindPath is called
// synchronously with a Step describing what changed. The search does not
// continue until the observer returns, so a renderer can draw a frame per
// step. The engine also keeps the grid's search-state tags current
// (frontier, expanded, path) so the grid itself can be rendered.
//
// Cancellation:
//
// The context passed to Run is checked before every expansion. Once it is
// done the search stops with the Aborted outcome, which is distinct from
// NotFound and is not an error.
//
// Usage:
//
//	g, _ := grid.FromLayout(layout)
//	g.ComputeNeighbors()
//
//	result, err := engine.FindPath(ctx, g, start, goal, "diagonal", func(step engine.Step) {
//		redraw(g)
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if result.Outcome == engine.Found {
//		fmt.Println(result.Path)
//	}
package engine
