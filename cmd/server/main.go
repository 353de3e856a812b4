// Command server runs the badge engine HTTP API and sweep scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackboard/badge-engine/internal/api/badges"
	"github.com/hackboard/badge-engine/internal/cache"
	"github.com/hackboard/badge-engine/internal/catalog"
	"github.com/hackboard/badge-engine/internal/config"
	"github.com/hackboard/badge-engine/internal/notifier"
	"github.com/hackboard/badge-engine/internal/repository"
	"github.com/hackboard/badge-engine/internal/service/achievements"
	"github.com/hackboard/badge-engine/internal/service/scheduler"
	"github.com/hackboard/badge-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	badgeRepo := repository.NewBadgeRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	debouncer := achievements.NewDebouncer(redisCache, cfg.Engine.DebounceWindow(), log)
	achievementService := achievements.NewService(badgeRepo, userRepo, activityRepo, debouncer, log)

	if cfg.Engine.CatalogFile != "" {
		catalogFile, err := catalog.Load(cfg.Engine.CatalogFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Engine.CatalogFile).Msg("Failed to load badge catalog")
		}
		if err := catalog.Seed(catalogFile, badgeRepo, achievements.NewRuleset(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed badge catalog")
		}
	}

	webhookClient := notifier.NewClient(&cfg.Notifier, log)

	sweeper := scheduler.NewService(&cfg.Scheduler, achievementService, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sweep scheduler")
	}
	defer sweeper.Stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": "database unreachable"})
			return
		}
		if err := redisCache.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": "redis unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	handler := badges.NewHandler(achievementService, userRepo, webhookClient, log)
	handler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}
