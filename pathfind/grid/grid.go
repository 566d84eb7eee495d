package grid

import "fmt"

// Grid is a square collection of cells
type Grid struct {
	size   int
	cells  [][]Cell
	policy NeighborPolicy
}

// New creates an n×n grid with every cell passable
func New(n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	cells := make([][]Cell, n)
	for row := range cells {
		cells[row] = make([]Cell, n)
		for col := range cells[row] {
			cells[row][col] = Cell{
				Coord:    Coord{Row: row, Col: col},
				Passable: true,
			}
		}
	}

	return &Grid{size: n, cells: cells, policy: Permissive}, nil
}

// Size returns the row and column count
func (g *Grid) Size() int {
	return g.size
}

// Policy returns the diagonal adjacency policy
func (g *Grid) Policy() NeighborPolicy {
	return g.policy
}

// SetPolicy changes the diagonal adjacency policy. Like passability edits it
// only takes effect at the next ComputeNeighbors.
func (g *Grid) SetPolicy(policy NeighborPolicy) {
	g.policy = policy
}

// InBounds reports whether c lies inside the grid
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

// Get returns the cell at row, col
func (g *Grid) Get(row, col int) (*Cell, error) {
	if !g.InBounds(Coord{Row: row, Col: col}) {
		return nil, fmt.Errorf("%w: (%d,%d) outside %dx%d grid", ErrOutOfBounds, row, col, g.size, g.size)
	}
	return &g.cells[row][col], nil
}

// At returns the cell at c, or nil when c is out of bounds
func (g *Grid) At(c Coord) *Cell {
	if !g.InBounds(c) {
		return nil
	}
	return &g.cells[c.Row][c.Col]
}

// Passable reports whether c is in bounds and passable
func (g *Grid) Passable(c Coord) bool {
	cell := g.At(c)
	return cell != nil && cell.Passable
}

// SetPassable changes one cell's passability. Neighbor lists are not
// recomputed.
func (g *Grid) SetPassable(row, col int, passable bool) error {
	cell, err := g.Get(row, col)
	if err != nil {
		return err
	}
	cell.Passable = passable
	return nil
}

// ComputeNeighbors rebuilds the neighbor list of every cell from the current
// passability and policy
func (g *Grid) ComputeNeighbors() {
	for row := range g.cells {
		for col := range g.cells[row] {
			cell := &g.cells[row][col]
			cell.neighbors = make([]*Cell, 0, len(directions))
			for _, d := range directions {
				target := Coord{Row: row + d.Row, Col: col + d.Col}
				if !g.Passable(target) {
					continue
				}
				if d.Row != 0 && d.Col != 0 && g.policy == NoCornerCutting {
					if !g.Passable(Coord{Row: row + d.Row, Col: col}) || !g.Passable(Coord{Row: row, Col: col + d.Col}) {
						continue
					}
				}
				cell.neighbors = append(cell.neighbors, g.At(target))
			}
		}
	}
}

// NeighborsOf returns the cached neighbor list of c. The list is empty when
// c is out of bounds or neighbors were never computed.
func (g *Grid) NeighborsOf(c Coord) []*Cell {
	cell := g.At(c)
	if cell == nil {
		return nil
	}
	return cell.neighbors
}

// SetTag updates the search-state tag of c; out of bounds is ignored
func (g *Grid) SetTag(c Coord, tag Tag) {
	if cell := g.At(c); cell != nil {
		cell.Tag = tag
	}
}

// TagOf returns the search-state tag of c
func (g *Grid) TagOf(c Coord) Tag {
	if cell := g.At(c); cell != nil {
		return cell.Tag
	}
	return Unvisited
}

// ResetTags marks every cell Unvisited
func (g *Grid) ResetTags() {
	for row := range g.cells {
		for col := range g.cells[row] {
			g.cells[row][col].Tag = Unvisited
		}
	}
}

// CountTag returns how many cells carry tag
func (g *Grid) CountTag(tag Tag) int {
	count := 0
	for row := range g.cells {
		for col := range g.cells[row] {
			if g.cells[row][col].Tag == tag {
				count++
			}
		}
	}
	return count
}

// CountPassable returns the number of passable cells
func (g *Grid) CountPassable() int {
	count := 0
	for row := range g.cells {
		for col := range g.cells[row] {
			if g.cells[row][col].Passable {
				count++
			}
		}
	}
	return count
}
