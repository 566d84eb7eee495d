// Package heuristic provides the distance estimators that guide the search.
//
// Every estimator is a pure function of two grid coordinates treated as
// points in the plane. Names are resolved with Lookup so that callers at the
// API edge can select one by string.
package heuristic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/pathfinder/pathfind/grid"
)

var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Func estimates the remaining cost from a to b. Results are never negative.
type Func func(a, b grid.Coord) float64

// Name identifies a heuristic
type Name string

const (
	ManhattanName Name = "manhattan"
	EuclideanName Name = "euclidean"
	DiagonalName  Name = "diagonal"
	ChebyshevName Name = "chebyshev"

	// PythagoreanAlias is accepted as another name for euclidean
	PythagoreanAlias Name = "pythagorean"

	Default = ManhattanName
)

var registry = map[Name]Func{
	ManhattanName: Manhattan,
	EuclideanName: Euclidean,
	DiagonalName:  Diagonal,
	ChebyshevName: Chebyshev,
}

func deltas(a, b grid.Coord) (float64, float64) {
	return math.Abs(float64(a.Row - b.Row)), math.Abs(float64(a.Col - b.Col))
}

// Manhattan is |dx| + |dy|
func Manhattan(a, b grid.Coord) float64 {
	dx, dy := deltas(a, b)
	return dx + dy
}

// Euclidean is the straight-line distance
func Euclidean(a, b grid.Coord) float64 {
	dx, dy := deltas(a, b)
	return math.Sqrt(dx*dx + dy*dy)
}

// Diagonal is the octile distance: (dx+dy) + (sqrt(2)-2)*min(dx,dy)
func Diagonal(a, b grid.Coord) float64 {
	dx, dy := deltas(a, b)
	return (dx + dy) + (math.Sqrt2-2)*math.Min(dx, dy)
}

// Chebyshev is max(dx,dy), the exact step count on an open grid when every
// one of the 8 moves costs 1
func Chebyshev(a, b grid.Coord) float64 {
	dx, dy := deltas(a, b)
	return math.Max(dx, dy)
}

// Canonical maps aliases and letter case onto a registered name
func Canonical(name string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		return Default, nil
	}
	if n == PythagoreanAlias {
		return EuclideanName, nil
	}
	if _, ok := registry[n]; !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnknownHeuristic, name, strings.Join(Names(), ", "))
	}
	return n, nil
}

// Lookup returns the heuristic registered under name. The empty name selects
// Default.
func Lookup(name string) (Func, error) {
	n, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	return registry[n], nil
}

// Names lists the canonical heuristic names in a stable order
func Names() []string {
	return []string{
		string(ManhattanName),
		string(EuclideanName),
		string(DiagonalName),
		string(ChebyshevName),
	}
}
