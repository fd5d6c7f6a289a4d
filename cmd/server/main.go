package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/stitts-dev/golf-prize-engine/internal/api"
	"github.com/stitts-dev/golf-prize-engine/internal/api/handlers"
	"github.com/stitts-dev/golf-prize-engine/internal/namematch"
	"github.com/stitts-dev/golf-prize-engine/internal/providers"
	"github.com/stitts-dev/golf-prize-engine/internal/services"
	"github.com/stitts-dev/golf-prize-engine/pkg/config"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
	"github.com/stitts-dev/golf-prize-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	cacheService := services.NewCacheService(redisClient, cfg.SnapshotCacheTTL)
	if err := cacheService.Ping(context.Background()); err != nil {
		// pollers still run without redis; they just cannot restore after a restart
		log.WithError(err).Warn("Redis unavailable, leaderboard snapshots will not be cached")
	}

	aliases := namematch.DefaultAliases()
	if cfg.NameAliasFile != "" {
		aliases, err = namematch.LoadAliasFile(cfg.NameAliasFile)
		if err != nil {
			log.Fatalf("Failed to load name alias file: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	providerCfg := providers.Config{
		Timeout:           cfg.ExternalAPITimeout,
		RequestsPerSecond: float64(cfg.ProviderRateLimit),
	}
	espnCfg := providerCfg
	espnCfg.BaseURL = cfg.ESPNBaseURL
	rapidCfg := providerCfg
	rapidCfg.BaseURL = cfg.RapidAPIBaseURL
	rapidCfg.APIKey = cfg.RapidAPIKey

	feeds := providers.NewRegistry(
		providers.NewESPNGolfClient(espnCfg, log),
		providers.NewRapidAPIGolfClient(rapidCfg, cfg.RapidAPIDailyLimit, log),
	)
	breakers := services.NewCircuitBreakerService(feeds.Sources(), cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout, log, metrics)

	tournamentStore := services.NewTournamentStore(db)
	prizeStore := services.NewPrizeStore(db)
	rosterStore := services.NewRosterStore(db)

	pollers := services.NewPollerManager(feeds, breakers, cacheService, metrics, cfg.LeaderboardPollInterval, log)
	reconciler := services.NewReconciliationService(tournamentStore, prizeStore, rosterStore, pollers, aliases, metrics, log)
	pollers.SetFinalizer(reconciler.Finalize)

	live, err := tournamentStore.Pollable(context.Background())
	if err != nil {
		log.Fatalf("Failed to load tournaments: %v", err)
	}
	pollers.StartAll(live)

	health := handlers.NewHealthHandler(map[string]handlers.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.HealthCheck() },
		"redis":    cacheService.Ping,
	})
	router := api.NewRouter(reconciler, health, registry, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	pollers.StopAll()

	log.Info("Server exited")
}
