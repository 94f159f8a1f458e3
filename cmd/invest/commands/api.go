package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/api"
	"github.com/newer-zhu/investment/internal/api/handlers"
	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/monitor"
	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/web"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the pick server",
	Long: `Starts the HTTP server over the published pick files.

This command serves:
- the pick browser page
- the dataset API consumed by remote viewers
- pick search
- the position alert WebSocket stream

Endpoints:
  GET  /                       - Pick browser page
  GET  /health                 - Health check
  GET  /api/dates              - Published dates
  GET  /api/stocks/{date}      - One date's picks
  GET  /api/stocks/{date}/csv  - CSV download
  GET  /api/search             - Pick search
  GET  /ws/alerts              - Position alert stream
  GET  /output/...             - Raw pick files

Example:
  invest api
  invest api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Pick Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"output": cfg.OutputDir,
	}).Info("Initializing pick server")

	// 3. Pick store
	st := store.NewCSVStore(cfg.OutputDir, log)

	// 4. Optional database, only for the health probe
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		log.Info("Connected to database")
	}

	// 5. Redis-backed response cache and alert cooldown
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()
	cache := redis.NewCache(rc, "invest")

	// 6. Search index. The API degrades to 503 without it.
	var searcher handlers.Searcher
	idx, err := search.Open(cfg.SearchIndexPath, log)
	if err != nil {
		log.WithError(err).Warn("Search index unavailable, /api/search disabled")
	} else {
		defer idx.Close()
		searcher = idx
	}

	// 7. Alert hub, fed by the position monitor when positions exist
	hub := monitor.NewHub(log)
	defer hub.Close()

	monCtx, cancelMon := context.WithCancel(context.Background())
	defer cancelMon()

	var mon *monitor.Monitor
	positions, err := monitor.LoadPositions(cfg.Monitor.PositionsFile)
	if err != nil {
		log.WithError(err).Warn("Positions not loaded, alert stream stays idle")
	} else if len(positions) > 0 {
		mon = monitor.New(cfg.Monitor, eastmoney.New(cfg, log), redis.NewCooldown(rc, "invest"), log)
		mon.UpdatePositions(positions)
		mon.SetNotifier(hub)
		if err := mon.Start(monCtx); err != nil {
			return fmt.Errorf("start monitor: %w", err)
		}
	}

	// 8. Handlers and the browser page. The page reads pick files
	// directly instead of going through its own HTTP API.
	picksHandler := handlers.NewPicksHandler(st, cache, log)
	searchHandler := handlers.NewSearchHandler(searcher, log)
	healthHandler := handlers.NewHealthHandler(st, db, rc, log)
	page := web.NewPage(st, st, log)

	// 9. Router and server
	router := api.NewRouter(picksHandler, searchHandler, healthHandler, hub.Handler(), page, cfg.OutputDir, log)
	server := api.New(cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("Pick server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/dates")
	fmt.Println("  GET  /api/stocks/{date}")
	fmt.Println("  GET  /api/stocks/{date}/csv")
	fmt.Println("  GET  /api/search")
	fmt.Println("  GET  /ws/alerts")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if mon != nil {
		mon.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
