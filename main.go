// Command pathfinder starts the Grid Pathfinder server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – runs one search on a maze file and prints the marked grid
//
// Flags control host/port, config directory, debug logging, and optional
// ngrok tunneling for easy external access during development. Every flag
// can also be set from the environment.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/pathfinder/api"
	"github.com/wricardo/pathfinder/pathfind/config"
	"github.com/wricardo/pathfinder/pathfind/engine"
	"github.com/wricardo/pathfinder/pathfind/heuristic"
	"github.com/wricardo/pathfinder/pathfind/maze"
	"github.com/wricardo/pathfinder/pathfind/service"
	"github.com/wricardo/pathfinder/pathfind/session"
	"github.com/wricardo/pathfinder/transport/mcp"
	"github.com/wricardo/pathfinder/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Grid Pathfinder Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
)

// newApp builds the command tree. Flags on the root are inherited by every
// command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pathfinder",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing maze configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServe,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:      "solve",
				Usage:     "Run A* on a maze file and print the result",
				ArgsUsage: "<maze.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "heuristic",
						Usage: "Heuristic to use (" + strings.Join(heuristic.Names(), ", ") + "); defaults to the maze's",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Run every heuristic and compare",
					},
				},
				Action: runSolve,
			},
		},
	}
}

// main loads .env and dispatches to the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func listenAddr(cmd *cli.Command) string {
	return fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
}

// initializeServices wires session/config managers and the search service.
func initializeServices(configDir string) (service.SearchService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	return service.NewSearchService(sessionManager, configManager), sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge, until ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// mcpHandler serves one JSON-RPC message per POST against the MCP server
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp
// proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	searchService, sessionManager, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, sessionManager, sessionCleanupEvery, sessionMaxAge)

	apiServer := api.NewServer(searchService, hub)
	apiServer.SetBaseContext(ctx)

	addr := listenAddr(cmd)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		// animated searches stream for up to MaxStepDelay per expansion
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		log.Printf("Metrics: http://%s/metrics", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd, mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain := cmd.String("ngrok-domain"); domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on host:port; otherwise it starts an internal HTTP API bound to a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	externalURL := fmt.Sprintf("http://%s", listenAddr(cmd))
	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		searchService, sessionManager, err := initializeServices(cmd.String("config-dir"))
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)
		go sessionCleanupRoutine(ctx, sessionManager, sessionCleanupEvery, sessionMaxAge)

		apiServer := api.NewServer(searchService, hub)
		apiServer.SetBaseContext(ctx)
		httpServer := &http.Server{Handler: apiServer}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func runSolve(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	if cmd.Args().Len() != 1 {
		return fmt.Errorf("solve takes exactly one maze file, got %d arguments", cmd.Args().Len())
	}

	var names []string
	switch {
	case cmd.Bool("all"):
		names = heuristic.Names()
	case cmd.String("heuristic") != "":
		names = []string{cmd.String("heuristic")}
	}

	return solveMaze(ctx, os.Stdout, cmd.Args().First(), names)
}

// solveMaze searches the maze at path once per heuristic name and writes
// each marked grid with its statistics. No names means the maze's own
// heuristic.
func solveMaze(ctx context.Context, w io.Writer, path string, names []string) error {
	cfg, err := maze.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load maze: %w", err)
	}
	if len(names) == 0 {
		names = []string{cfg.HeuristicName()}
	}

	fmt.Fprintf(w, "Maze: %s (%dx%d)\n", cfg.Name, cfg.GridSize, cfg.GridSize)

	for _, name := range names {
		g, start, goal, err := maze.Build(cfg)
		if err != nil {
			return err
		}

		started := time.Now()
		result, err := engine.FindPath(ctx, g, start, goal, name, nil)
		if err != nil {
			return err
		}
		elapsed := time.Since(started)

		fmt.Fprintf(w, "\n=== %s ===\n", name)
		switch result.Outcome {
		case engine.Found:
			fmt.Fprintf(w, "Path: %d moves\n", result.Steps())
		case engine.NotFound:
			fmt.Fprintln(w, "Path: none")
		default:
			fmt.Fprintf(w, "Search %s\n", result.Outcome)
		}
		fmt.Fprintf(w, "Expanded: %d  Inserted: %d  Popped: %d  Time: %s\n",
			result.Expansions, result.Inserted, result.Pops, elapsed.Round(time.Microsecond))
		for _, row := range g.Render(start, goal) {
			fmt.Fprintln(w, row)
		}
	}
	return nil
}
