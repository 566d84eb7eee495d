package grid

import (
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

// StepDistances runs a breadth-first search from `from` over the cached
// neighbor lists and returns the unit step count to every reachable cell.
// The result is empty when from is blocked or out of bounds.
func (g *Grid) StepDistances(from Coord) map[Coord]int {
	dist := make(map[Coord]int)
	if !g.Passable(from) {
		return dist
	}

	dist[from] = 0
	q := queue.New[Coord]()
	q.Enqueue(from)
	for !q.Empty() {
		current := q.Dequeue()
		for _, n := range g.NeighborsOf(current) {
			if _, ok := dist[n.Coord]; ok {
				continue
			}
			dist[n.Coord] = dist[current] + 1
			q.Enqueue(n.Coord)
		}
	}

	return dist
}

// Reachable reports whether to can be reached from from. The search stops
// as soon as to is dequeued.
func (g *Grid) Reachable(from, to Coord) bool {
	if !g.Passable(from) || !g.Passable(to) {
		return false
	}

	seen := mapset.New[Coord]()
	seen.Put(from)
	q := queue.New[Coord]()
	q.Enqueue(from)
	for !q.Empty() {
		current := q.Dequeue()
		if current == to {
			return true
		}
		for _, n := range g.NeighborsOf(current) {
			if seen.Has(n.Coord) {
				continue
			}
			seen.Put(n.Coord)
			q.Enqueue(n.Coord)
		}
	}
	return false
}
