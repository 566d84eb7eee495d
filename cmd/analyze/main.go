// Command analyze prints quick, human-readable statistics about the maze
// files in the project's configs directory. It summarizes dimensions and
// open cells, finds the optimal step count by breadth-first search, and runs
// A* with every heuristic to compare expansions and path lengths.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
	"github.com/wricardo/pathfinder/pathfind/maze"
)

// HeuristicRun is the outcome of one heuristic on one maze
type HeuristicRun struct {
	Heuristic  string
	Outcome    engine.Outcome
	Steps      int
	Expansions int
	Inserted   int
}

// Analysis summarizes a maze
type Analysis struct {
	Name        string
	GridSize    int
	OpenCells   int
	Reachable   int // open cells reachable from the start, start included
	Optimal     int // fewest moves from start to goal, -1 when unreachable
	Runs        []HeuristicRun
	Unreachable []grid.Coord
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No maze files found in %s\n", dir)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeFile(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

func analyzeFile(path string) (*Analysis, error) {
	cfg, err := maze.Load(path)
	if err != nil {
		return nil, err
	}
	return analyze(cfg)
}

func analyze(cfg *maze.Config) (*Analysis, error) {
	g, start, goal, err := maze.Build(cfg)
	if err != nil {
		return nil, err
	}

	dist := g.StepDistances(start)
	a := &Analysis{
		Name:      cfg.Name,
		GridSize:  g.Size(),
		OpenCells: g.CountPassable(),
		Reachable: len(dist),
		Optimal:   -1,
	}
	if steps, ok := dist[goal]; ok {
		a.Optimal = steps
	}

	for row := 0; row < g.Size(); row++ {
		for col := 0; col < g.Size(); col++ {
			c := grid.Coord{Row: row, Col: col}
			if _, ok := dist[c]; g.Passable(c) && !ok {
				a.Unreachable = append(a.Unreachable, c)
			}
		}
	}

	for _, name := range heuristic.Names() {
		result, err := engine.FindPath(context.Background(), g, start, goal, name, nil)
		if err != nil {
			return nil, err
		}
		a.Runs = append(a.Runs, HeuristicRun{
			Heuristic:  name,
			Outcome:    result.Outcome,
			Steps:      result.Steps(),
			Expansions: result.Expansions,
			Inserted:   result.Inserted,
		})
	}

	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.GridSize, a.GridSize)
	fmt.Fprintf(w, "Open Cells: %d (%d reachable from start)\n", a.OpenCells, a.Reachable)

	if a.Optimal < 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: goal is unreachable from start\n")
	} else {
		fmt.Fprintf(w, "Optimal Path: %d moves\n", a.Optimal)
	}

	if len(a.Unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d open cells are cut off from the start\n", len(a.Unreachable))
		for i, c := range a.Unreachable {
			if i < 5 { // Show first 5 pockets
				fmt.Fprintf(w, "   Cut off: %s\n", c)
			}
		}
		if len(a.Unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.Unreachable)-5)
		}
	}

	fmt.Fprintf(w, "%-10s %-10s %6s %10s %9s\n", "heuristic", "outcome", "moves", "expansions", "inserted")
	for _, run := range a.Runs {
		mark := ""
		if a.Optimal >= 0 && run.Steps > a.Optimal {
			mark = fmt.Sprintf("  (+%d over optimal)", run.Steps-a.Optimal)
		}
		fmt.Fprintf(w, "%-10s %-10s %6d %10d %9d%s\n", run.Heuristic, run.Outcome, run.Steps, run.Expansions, run.Inserted, mark)
	}
}
