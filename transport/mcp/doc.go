// Package mcp exposes the pathfinding server to AI agents over the Model
// Context Protocol.
//
// The Client registers MCP tools and proxies every call to the REST API, so
// an agent sees exactly the sessions a browser does.
//
// MCP Tools:
//   - create_session, list_sessions: session lifecycle
//   - get_grid, describe_cell: read the grid and the marks of the last search
//   - set_cell, set_endpoints: edit the grid between searches
//   - find_path, clear_search: run A* and wipe its marks
//   - list_configs, list_heuristics: what can be loaded and searched with
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: POST /mcp on the main server, one JSON-RPC message per request
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
