// Package grid provides the square cell grid that the pathfinding engine
// searches over.
//
// A Grid owns N×N cells. Each cell has a fixed coordinate, a passability
// flag set while the maze is being built, a search-state tag that the engine
// updates during a run, and a cached list of traversable neighbors.
//
// Neighbor lists are derived data. They are rebuilt by ComputeNeighbors and
// are never edited by hand; callers must recompute them after changing
// passability and before starting a search.
//
// Adjacency:
//
// Movement is 8-directional. Under the default Permissive policy a diagonal
// neighbor only requires the diagonal cell itself to be passable, so a path
// may slip between two blocked orthogonal cells. NoCornerCutting also
// requires both orthogonal cells to be passable.
//
// Usage:
//
//	g, err := grid.FromLayout([]string{
//		"S..",
//		".#.",
//		"..G",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	g.ComputeNeighbors()
//	for _, n := range g.NeighborsOf(grid.Coord{Row: 0, Col: 0}) {
//		fmt.Println(n.Coord)
//	}
package grid
