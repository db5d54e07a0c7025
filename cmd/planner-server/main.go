// Factorio Production Planner MCP Server
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rsned/factorio-planner-server/internal/planner/api"
	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/internal/planner/db"
	"github.com/rsned/factorio-planner-server/internal/planner/engine"
	"github.com/rsned/factorio-planner-server/internal/planner/mcp"
	"github.com/rsned/factorio-planner-server/internal/planner/plan"
)

func main() {
	// Parse flags
	dataPath := flag.String("data", "data/data-raw-dump.json", "Path to Factorio data-raw dump")
	dbPath := flag.String("db", "data/planner/plans.db", "Path to SQLite database")
	importPlan := flag.String("import-plan", "", "Import a yaml plan file into the plan store")
	listen := flag.String("listen", "", "Address for the websocket API (empty disables it)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	// Load game data
	gameData, err := data.Load(*dataPath)
	if err != nil {
		logger.Error("failed to load game data", "error", err)
		os.Exit(1)
	}
	stats := gameData.Stats()
	logger.Info("game data loaded", "recipes", stats.Recipes, "machines", stats.Machines, "qualities", stats.Qualities)

	// Open database
	database, err := db.OpenAndInit(ctx, *dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	// Create engine
	eng := engine.New(gameData, database, logger)
	eng.Start(ctx)

	// Handle import command
	if *importPlan != "" {
		logger.Info("importing plan", "file", *importPlan)
		doc, err := plan.LoadFile(*importPlan)
		if err != nil {
			logger.Error("failed to read plan file", "error", err)
			os.Exit(1)
		}
		id, err := eng.SavePlan(ctx, "", doc)
		if err != nil {
			logger.Error("failed to store plan", "error", err)
			os.Exit(1)
		}
		logger.Info("plan imported successfully", "id", id, "name", doc.Name)
		if flag.NArg() == 0 && *listen == "" {
			return
		}
	}

	// Serve the websocket API when requested
	if *listen != "" {
		hub := api.NewHub(eng, logger)
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			api.ServeWs(hub, w, r)
		})
		httpServer := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			<-ctx.Done()
			_ = httpServer.Close()
		}()
		go func() {
			logger.Info("starting websocket API", "addr", *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("websocket API error", "error", err)
			}
		}()
	}

	// Run MCP server
	server := mcp.NewServer(eng, logger)
	logger.Info("starting MCP server", "data", *dataPath, "db", *dbPath)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}
