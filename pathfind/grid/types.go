package grid

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds   = errors.New("coordinate out of bounds")
	ErrInvalidSize   = errors.New("invalid grid size")
	ErrInvalidLayout = errors.New("invalid layout")
)

// Layout characters
const (
	OpenChar     = '.'
	BlockedChar  = '#'
	StartChar    = 'S'
	GoalChar     = 'G'
	FrontierChar = 'o'
	ExpandedChar = 'x'
	PathChar     = '*'
)

// Coord identifies a cell by row and column
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Tag is the transient search state of a cell
type Tag int

const (
	Unvisited Tag = iota
	Frontier
	Expanded
	Path
)

func (t Tag) String() string {
	switch t {
	case Unvisited:
		return "unvisited"
	case Frontier:
		return "frontier"
	case Expanded:
		return "expanded"
	case Path:
		return "path"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// MarshalText encodes the tag by name so JSON payloads stay readable
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// NeighborPolicy decides how diagonal moves treat the two orthogonal cells
// they pass between
type NeighborPolicy string

const (
	Permissive      NeighborPolicy = "permissive"
	NoCornerCutting NeighborPolicy = "no_corner_cutting"
)

// ParsePolicy returns the policy for name; the empty string selects Permissive
func ParsePolicy(name string) (NeighborPolicy, error) {
	switch NeighborPolicy(name) {
	case "", Permissive:
		return Permissive, nil
	case NoCornerCutting:
		return NoCornerCutting, nil
	}
	return "", fmt.Errorf("unknown neighbor policy %q", name)
}

// Cell is a single grid position
type Cell struct {
	Coord     Coord
	Passable  bool
	Tag       Tag
	neighbors []*Cell
}

// direction offsets in the order neighbors are enumerated:
// up, down, left, right, up-left, down-left, up-right, down-right
var directions = [8]Coord{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
	{Row: -1, Col: -1},
	{Row: 1, Col: -1},
	{Row: -1, Col: 1},
	{Row: 1, Col: 1},
}
