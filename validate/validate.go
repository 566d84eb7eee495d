// Command validate provides a small CLI that validates maze configuration
// JSON files in the ../configs directory. It checks:
//   - JSON structure and required fields
//   - Grid consistency and allowed characters (. # S G)
//   - Exactly one start (S) and one goal (G)
//   - Known heuristic and neighbor policy names
//   - Connectivity: the goal is reachable from the start under the maze's
//     neighbor policy
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pathfinder/pathfind/maze"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single maze JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config maze.Config
	if err := json.Unmarshal(data, &config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := maze.Validate(&config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), maze.ErrInvalidMaze.Error()+": "))
		return result
	}

	reachability := validateConnectivity(&config)
	result.Errors = append(result.Errors, reachability.Errors...)
	if !reachability.Valid {
		result.Valid = false
		return result
	}

	policy := config.Policy
	if policy == "" {
		policy = "permissive"
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", config.GridSize, config.GridSize))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Open cells: %d", countOpen(config.Layout)))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Heuristic: %s", config.HeuristicName()))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Policy: %s", policy))

	return result
}

func countOpen(layout []string) int {
	open := 0
	for _, row := range layout {
		open += len(row) - strings.Count(row, "#")
	}
	return open
}

// validateConnectivity ensures the goal is reachable from the start with
// 8-directional movement over passable cells.
func validateConnectivity(config *maze.Config) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if config == nil || len(config.Layout) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate connectivity: empty layout")
		return result
	}

	steps, err := maze.Solve(config)
	switch {
	case errors.Is(err, maze.ErrUnreachable):
		result.Valid = false
		result.Errors = append(result.Errors, "Connectivity failure: goal is unreachable from start")
	case err != nil:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot validate connectivity: %v", err))
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: goal reachable in %d moves", steps))
	}

	return result
}

// main scans a directory (../configs by default) for *.json files and
// validates each one, printing a concise report and exiting with non-zero
// status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
