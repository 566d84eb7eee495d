// Package service is the application layer between transports and the
// search core.
//
// SearchService owns sessions, each holding one grid with its start, goal
// and default heuristic. Transports (REST, WebSocket, MCP) call the service
// and never touch a grid directly. Configuration loading and session
// storage are injected through the ConfigManager and SessionManager
// interfaces so tests can swap them.
//
// Concurrency:
//
// Operations on one session are serialized by a per-session lock, so a
// running search and an edit to the same grid never overlap. Different
// sessions run independently.
//
// Metrics:
//
// Every finished search is counted in pathfinder_searches_total labeled by
// heuristic and outcome, and its expansions and wall time are recorded in
// the pathfinder_search_expansions and pathfinder_search_duration_seconds
// histograms.
//
// Usage:
//
//	svc := service.NewSearchService(session.NewManager(), configManager)
//	info, _ := svc.CreateSession(ctx, "classic")
//	result, err := svc.RunSearch(ctx, info.ID, service.SearchOptions{Heuristic: "diagonal"}, nil)
//
//	// claim now, run later
//	run, err := svc.StartSearch(ctx, info.ID, service.SearchOptions{})
//	go run(bgCtx, onStep)
package service
