package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"cargo-inventory-backend/config"
	"cargo-inventory-backend/internal/api"
	"cargo-inventory-backend/internal/coordinator"
	"cargo-inventory-backend/internal/db"
	"cargo-inventory-backend/internal/lookup"
	"cargo-inventory-backend/internal/metrics"
	"cargo-inventory-backend/internal/mw"
)

const limiterSweepInterval = time.Minute

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "inventory-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized successfully (driver %s)", cfg.Database.Driver)

	recorder := metrics.NewPrometheus()
	directory := lookup.NewCached(lookup.NewGormDirectory(gormDB), cfg.Inventory.LookupCacheTTL)
	coord := coordinator.NewFromDB(gormDB, directory, coordinator.Options{
		EnforceCapacity:      cfg.Inventory.EnforceCapacity,
		InventoryCheckMaxAge: cfg.Inventory.InventoryCheckMaxAge,
		Metrics:              recorder,
		Logger:               logger,
	})
	if cfg.Inventory.EnforceCapacity {
		logger.Println("capacity guard enabled for storage and loads")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, 10*limiterSweepInterval)
	go sweepLimiter(ctx, limiter, logger)

	router := api.NewRouter(api.NewHandler(coord, logger), api.RouterOptions{
		Limiter: limiter,
		Cache:   mw.NewResponseCache(cfg.Server.CacheTTL),
		Metrics: recorder.Handler(),
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Println("Server gracefully stopped")
}

func sweepLimiter(ctx context.Context, limiter *mw.IPRateLimiter, logger *log.Logger) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Printf("rate limiter: forgot %d idle client(s)", n)
			}
		}
	}
}
