// Package frontier holds the A* open set: a min-priority collection of
// candidate cells ordered by estimated total cost, with insertion order as
// the tie-breaker.
//
// Stale entries are tolerated. When a cell's score improves, a new entry is
// inserted and the old one stays until it is popped; ContainsCell reports
// true while any entry for the cell remains.
package frontier

import (
	"errors"

	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/zyedidia/generic/heap"
)

var ErrEmptyFrontier = errors.New("frontier is empty")

// Entry is one scheduled cell
type Entry struct {
	F    float64    `json:"f"`
	Seq  int        `json:"seq"`
	Cell grid.Coord `json:"cell"`
}

// Less orders entries by F, then by Seq
func Less(a, b Entry) bool {
	if a.F != b.F {
		return a.F < b.F
	}
	return a.Seq < b.Seq
}

// Frontier is not safe for concurrent use
type Frontier struct {
	entries *heap.Heap[Entry]
	counts  map[grid.Coord]int
	nextSeq int
}

// New creates an empty frontier
func New() *Frontier {
	return &Frontier{
		entries: heap.New[Entry](Less),
		counts:  make(map[grid.Coord]int),
	}
}

// Insert schedules cell with estimate f and returns the stored entry. The
// first insert gets sequence number 0.
func (fr *Frontier) Insert(f float64, cell grid.Coord) Entry {
	e := Entry{F: f, Seq: fr.nextSeq, Cell: cell}
	fr.nextSeq++
	fr.entries.Push(e)
	fr.counts[cell]++
	return e
}

// PopMin removes and returns the entry with the smallest (F, Seq)
func (fr *Frontier) PopMin() (Entry, error) {
	e, ok := fr.entries.Pop()
	if !ok {
		return Entry{}, ErrEmptyFrontier
	}
	if fr.counts[e.Cell] <= 1 {
		delete(fr.counts, e.Cell)
	} else {
		fr.counts[e.Cell]--
	}
	return e, nil
}

// Peek returns the smallest entry without removing it
func (fr *Frontier) Peek() (Entry, bool) {
	return fr.entries.Peek()
}

// ContainsCell reports whether any entry for cell is present
func (fr *Frontier) ContainsCell(cell grid.Coord) bool {
	return fr.counts[cell] > 0
}

// Len returns the number of entries, stale ones included
func (fr *Frontier) Len() int {
	return fr.entries.Size()
}

// Empty reports whether no entries remain
func (fr *Frontier) Empty() bool {
	return fr.entries.Size() == 0
}

// Inserted returns how many entries were ever inserted
func (fr *Frontier) Inserted() int {
	return fr.nextSeq
}

// Cells returns the distinct cells that currently have an entry
func (fr *Frontier) Cells() []grid.Coord {
	cells := make([]grid.Coord, 0, len(fr.counts))
	for c := range fr.counts {
		cells = append(cells, c)
	}
	return cells
}
