package grid

import (
	"fmt"
	"strings"
)

// Markers records where start and goal characters appeared in a layout
type Markers struct {
	Starts []Coord
	Goals  []Coord
}

// ParseLayout builds a grid from text rows. '#' is blocked; '.', 'S' and 'G'
// are passable, with 'S' and 'G' reported in the returned markers. Neighbors
// are not computed.
func ParseLayout(rows []string) (*Grid, Markers, error) {
	var markers Markers

	if len(rows) == 0 {
		return nil, markers, fmt.Errorf("%w: no rows", ErrInvalidLayout)
	}

	g, err := New(len(rows))
	if err != nil {
		return nil, markers, err
	}

	for row, line := range rows {
		chars := []rune(line)
		if len(chars) != len(rows) {
			return nil, markers, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidLayout, row, len(chars), len(rows))
		}
		for col, char := range chars {
			c := Coord{Row: row, Col: col}
			switch char {
			case OpenChar:
			case BlockedChar:
				g.cells[row][col].Passable = false
			case StartChar:
				markers.Starts = append(markers.Starts, c)
			case GoalChar:
				markers.Goals = append(markers.Goals, c)
			default:
				return nil, markers, fmt.Errorf("%w: invalid character %q at %s", ErrInvalidLayout, char, c)
			}
		}
	}

	return g, markers, nil
}

// FromLayout is ParseLayout without the markers
func FromLayout(rows []string) (*Grid, error) {
	g, _, err := ParseLayout(rows)
	return g, err
}

// Render draws the grid as text rows, showing search tags and the two
// endpoints
func (g *Grid) Render(start, goal Coord) []string {
	rows := make([]string, g.size)
	var b strings.Builder
	for row := range g.cells {
		b.Reset()
		for col := range g.cells[row] {
			cell := &g.cells[row][col]
			switch {
			case cell.Coord == start:
				b.WriteRune(StartChar)
			case cell.Coord == goal:
				b.WriteRune(GoalChar)
			case !cell.Passable:
				b.WriteRune(BlockedChar)
			case cell.Tag == Path:
				b.WriteRune(PathChar)
			case cell.Tag == Expanded:
				b.WriteRune(ExpandedChar)
			case cell.Tag == Frontier:
				b.WriteRune(FrontierChar)
			default:
				b.WriteRune(OpenChar)
			}
		}
		rows[row] = b.String()
	}
	return rows
}

// Layout renders passability only, in the format ParseLayout reads
func (g *Grid) Layout(start, goal Coord) []string {
	rows := make([]string, g.size)
	var b strings.Builder
	for row := range g.cells {
		b.Reset()
		for col := range g.cells[row] {
			cell := &g.cells[row][col]
			switch {
			case cell.Coord == start:
				b.WriteRune(StartChar)
			case cell.Coord == goal:
				b.WriteRune(GoalChar)
			case !cell.Passable:
				b.WriteRune(BlockedChar)
			default:
				b.WriteRune(OpenChar)
			}
		}
		rows[row] = b.String()
	}
	return rows
}
