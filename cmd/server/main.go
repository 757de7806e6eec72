package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/api"
	"github.com/andresuchdata/eco-inventory/internal/app"
	"github.com/andresuchdata/eco-inventory/internal/config"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/andresuchdata/eco-inventory/internal/repository/memory"
	"github.com/andresuchdata/eco-inventory/internal/repository/postgres"
	"github.com/andresuchdata/eco-inventory/internal/seed"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/andresuchdata/eco-inventory/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if strings.EqualFold(cfg.Server.LogFormat, "json") {
		logger.SetJSON(os.Stdout)
	}
	logger.SetLevel(logLevel(cfg.Server.Mode))
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open repository")
	}
	defer closeRepo()

	rebalance, err := app.Build(cfg, repo)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to build rebalancing engine")
	}
	app.Warmup(ctx, cfg.Engine, rebalance)

	if cfg.Engine.RefreshIntervalMinutes > 0 {
		go refreshLoop(ctx, rebalance, time.Duration(cfg.Engine.RefreshIntervalMinutes)*time.Minute)
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{RebalanceService: rebalance}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func logLevel(mode string) string {
	if mode == "debug" {
		return "debug"
	}
	return "info"
}

// openRepository selects the persistence backend. The memory backend starts
// from the demo data set so the dashboard has something to show.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		repo := memory.NewRepository()
		if _, err := seed.Load(ctx, repo, seed.Options{Seed: cfg.Engine.ForecastSeed, WithRecommendations: true}); err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close database")
		}
	}
	return postgres.NewRepository(db), closeDB, nil
}

// refreshLoop rebuilds affinity and recommendations on a fixed interval until ctx ends.
func refreshLoop(ctx context.Context, svc *service.RebalanceService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Log.Info().Dur("interval", every).Msg("Scheduled refresh enabled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.Refresh(ctx)
			if err != nil {
				logger.Log.Error().Err(err).Msg("Scheduled refresh failed")
				continue
			}
			logger.Log.Info().Int("recommendations", len(result.Recommendations)).Msg("Scheduled refresh complete")
		}
	}
}
