// Package websocket streams search progress to browser renderers.
//
// A Hub keeps the connected clients of every session and fans out JSON
// messages to them. The REST layer publishes into the hub while a search
// runs, so a client watching a session sees each expansion as it happens.
//
// Message Protocol:
//
// Every outgoing message is a JSON object:
//
//	{"session_id": "1f2e3d4c", "event": "search_step", "step": {...}}
//
// Events are:
//   - search_step: one expansion (current cell, discovered and improved
//     cells, frontier size)
//   - search_done: the final result together with the rendered grid
//   - grid_update: the grid after an edit, endpoint change or clear
//
// Clients select a session with the query parameter ?session=<id>.
// Incoming client messages are read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.PublishStep(sessionID, step)
//
// Concurrency:
//
// Only the Run goroutine mutates the client registry. Publish calls hand
// messages to it over a buffered channel and block when that buffer is
// full, which slows a search down to the pace of the hub rather than
// dropping steps. A client whose own send buffer fills up is disconnected.
package websocket
