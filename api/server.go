package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/grid"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
	"github.com/wricardo/pathfinder/pathfind/maze"
	"github.com/wricardo/pathfinder/pathfind/service"
	"github.com/wricardo/pathfinder/pathfind/session"
	"github.com/wricardo/pathfinder/transport/websocket"
)

// MaxStepDelay caps the per-step pause a client may request
const MaxStepDelay = 2 * time.Second

// Server represents the REST API server
type Server struct {
	service service.SearchService
	hub     *websocket.Hub
	router  *mux.Router

	// parent context of searches started with "async": true
	background context.Context
}

// NewServer creates a new API server. hub may be nil, in which case
// nothing is streamed.
func NewServer(searchService service.SearchService, hub *websocket.Hub) *Server {
	s := &Server{
		service:    searchService,
		hub:        hub,
		router:     mux.NewRouter(),
		background: context.Background(),
	}

	s.setupRoutes()
	return s
}

// SetBaseContext sets the context async searches derive from, so they stop
// on shutdown
func (s *Server) SetBaseContext(ctx context.Context) {
	s.background = ctx
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Grid editing
	api.HandleFunc("/sessions/{id}/grid", s.handleGetGrid).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells", s.handleSetCells).Methods("PUT")
	api.HandleFunc("/sessions/{id}/endpoints", s.handleSetEndpoints).Methods("PUT")

	// Search
	api.HandleFunc("/sessions/{id}/search", s.handleSearch).Methods("POST")
	api.HandleFunc("/sessions/{id}/clear", s.handleClear).Methods("POST")
	api.HandleFunc("/heuristics", s.handleListHeuristics).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP codes, using fallback for anything
// it does not recognize
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSearchInProgress):
		return http.StatusConflict
	case errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, engine.ErrBlockedEndpoint),
		errors.Is(err, service.ErrEndpointChange),
		errors.Is(err, heuristic.ErrUnknownHeuristic),
		errors.Is(err, maze.ErrInvalidMaze):
		return http.StatusBadRequest
	}
	return fallback
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateSession(r.Context(), req.ConfigID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Grid Handlers

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.GetGrid(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, strings.Join(view.Rows, "\n"))
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetCells(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Cells []service.CellUpdate `json:"cells"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Cells) == 0 {
		respondError(w, http.StatusBadRequest, "cells must not be empty")
		return
	}

	view, err := s.service.SetCells(r.Context(), sessionID, req.Cells)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	fmt.Printf("[EDIT] session=%s cells=%d open=%d\n", sessionID, len(req.Cells), view.Open)
	if s.hub != nil {
		s.hub.PublishGrid(sessionID, view)
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetEndpoints(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Start *grid.Coord `json:"start"`
		Goal  *grid.Coord `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// a missing endpoint keeps its current position
	if req.Start == nil || req.Goal == nil {
		current, err := s.service.GetGrid(r.Context(), sessionID)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		if req.Start == nil {
			req.Start = &current.Start
		}
		if req.Goal == nil {
			req.Goal = &current.Goal
		}
	}

	view, err := s.service.SetEndpoints(r.Context(), sessionID, *req.Start, *req.Goal)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if s.hub != nil {
		s.hub.PublishGrid(sessionID, view)
	}

	respondJSON(w, http.StatusOK, view)
}

// Search Handlers

type searchRequest struct {
	Heuristic string `json:"heuristic,omitempty"`
	DelayMS   int    `json:"delay_ms,omitempty"`
	Async     bool   `json:"async,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req searchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.DelayMS < 0 {
		respondError(w, http.StatusBadRequest, "delay_ms must not be negative")
		return
	}
	if req.Heuristic != "" {
		if _, err := heuristic.Canonical(req.Heuristic); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if delayCap := int(MaxStepDelay / time.Millisecond); req.DelayMS > delayCap {
		req.DelayMS = delayCap
	}
	opts := service.SearchOptions{
		Heuristic: req.Heuristic,
		StepDelay: time.Duration(req.DelayMS) * time.Millisecond,
	}

	ctx := r.Context()
	if req.Async {
		ctx = s.background
	}

	// claim the session before answering so a busy session gets 409 either way
	run, err := s.service.StartSearch(ctx, sessionID, opts)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if req.Async {
		go s.runSearch(ctx, sessionID, run)
		respondJSON(w, http.StatusAccepted, map[string]string{
			"message": "Search started",
			"watch":   "/ws?session=" + sessionID,
		})
		return
	}

	result, err := s.runSearch(ctx, sessionID, run)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// runSearch streams steps to the hub and publishes the final result
func (s *Server) runSearch(ctx context.Context, sessionID string, run service.PendingSearch) (*service.SearchResult, error) {
	var onStep engine.Observer
	if s.hub != nil {
		onStep = func(step engine.Step) {
			s.hub.PublishStep(sessionID, step)
		}
	}

	result, err := run(ctx, onStep)
	if err != nil {
		log.Printf("[SEARCH] session=%s failed: %v", sessionID, err)
		return nil, err
	}

	fmt.Printf("[SEARCH] session=%s heuristic=%s outcome=%s expansions=%d path=%d\n",
		sessionID, result.Heuristic, result.Outcome, result.Expansions, result.PathLength)
	if s.hub != nil {
		s.hub.PublishResult(sessionID, result)
	}
	return result, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.ClearSearch(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	if s.hub != nil {
		s.hub.PublishGrid(sessionID, view)
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleListHeuristics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListHeuristics(r.Context()))
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		maze.Config
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}
	configID := req.ConfigID
	if configID == "" {
		configID = req.Name
	}

	if err := s.service.SaveConfig(r.Context(), configID, &req.Config); err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
