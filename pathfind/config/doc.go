// Package config manages the maze files served to sessions.
//
// A Manager reads *.json maze files from one directory, validates them with
// the maze package and caches the parsed result by name. The name of a maze
// is its filename without the extension, so "configs/classic.json" is
// loaded as "classic".
//
// Default selection:
//
// The default maze is "classic" when present, otherwise the first valid
// file in the directory, otherwise a small built-in open grid. A Manager
// therefore always has a default, even for an empty directory.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg, err := manager.LoadConfig("spiral")
//	mazes, err := manager.ListConfigs()
//	fallback := manager.GetDefault()
package config
