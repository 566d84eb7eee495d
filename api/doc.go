// Package api provides the HTTP REST API for the pathfinding server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session from a maze ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Grid:
//   - GET /api/sessions/{id}/grid - Rendered grid (?format=text for plain rows)
//   - PUT /api/sessions/{id}/cells - {"cells": [{"row": 1, "col": 2, "passable": false}]}
//   - PUT /api/sessions/{id}/endpoints - {"start": {"row": 0, "col": 0}, "goal": {"row": 9, "col": 9}}
//
// Search:
//   - POST /api/sessions/{id}/search - {"heuristic": "diagonal", "delay_ms": 20, "async": false}
//   - POST /api/sessions/{id}/clear - Remove search marks from the grid
//   - GET /api/heuristics - Available heuristics
//
// Configuration:
//   - GET /api/configs - List maze files
//   - GET /api/configs/{name} - Get one maze
//   - POST /api/configs - Save a maze
//
// Other:
//   - GET /api/health - Liveness
//   - GET /metrics - Prometheus metrics
//   - GET /ws?session={id} - WebSocket stream of search steps
//
// Streaming:
//
// Every search started through the API publishes its expansions to the
// WebSocket hub as search_step events, followed by one search_done event.
// With "async": true the request returns 202 immediately and the search
// runs in the background, so clients follow it over the WebSocket. A
// synchronous search stops when the client disconnects.
//
// Rendered rows use '.' open, '#' wall, 'S' start, 'G' goal, 'o' frontier,
// 'x' expanded and '*' path.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code:
//
//	{"error": "error message"}
//
// Unknown sessions are 404, invalid coordinates, heuristics or mazes are
// 400, and an edit or search on a session that is already searching is 409.
package api
