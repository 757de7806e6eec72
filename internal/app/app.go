package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/affinity"
	"github.com/andresuchdata/eco-inventory/internal/cache"
	"github.com/andresuchdata/eco-inventory/internal/config"
	"github.com/andresuchdata/eco-inventory/internal/forecast"
	"github.com/andresuchdata/eco-inventory/internal/optimizer"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/andresuchdata/eco-inventory/internal/routing"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/andresuchdata/eco-inventory/internal/storage"
	"github.com/andresuchdata/eco-inventory/internal/transfer"
	"github.com/rs/zerolog/log"
)

// ForecastOptions maps the engine settings onto forecaster training options.
func ForecastOptions(cfg config.EngineConfig) forecast.Options {
	opts := forecast.DefaultOptions()
	opts.Seed = cfg.ForecastSeed
	if cfg.ForecastLookbackDays > 0 {
		opts.LookbackDays = cfg.ForecastLookbackDays
	}
	if cfg.ForecastTrees > 0 {
		opts.Trees = cfg.ForecastTrees
	}
	if cfg.ForecastMaxDepth > 0 {
		opts.MaxDepth = cfg.ForecastMaxDepth
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}
	return opts
}

// OptimizerConfig maps the engine settings onto optimizer tunables. Zero
// values fall back to the optimizer defaults.
func OptimizerConfig(cfg config.EngineConfig) optimizer.Config {
	return optimizer.Config{
		OverstockWeeks:      cfg.OverstockWeeks,
		MinOverstockQty:     cfg.MinOverstockQty,
		ProximityKm:         cfg.ProximityKm,
		ProximityBonus:      cfg.ProximityBonus,
		AffinityWeight:      cfg.AffinityWeight,
		AcceptanceThreshold: cfg.AcceptanceThreshold,
		TransferFraction:    cfg.TransferFraction,
		OnlineFraction:      cfg.OnlineFraction,
		CO2Factor:           cfg.CO2Factor,
	}
}

// Build assembles the rebalancing engine on top of repo. The forecast cache
// and object storage are taken from cfg; a nil storage leaves report upload
// disabled.
func Build(cfg *config.Config, repo repository.Repository) (*service.RebalanceService, error) {
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init forecast cache: %w", err)
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		objects = client
	}

	return Assemble(cfg.Engine, repo, forecastCache, objects), nil
}

// Assemble wires the engine components with explicit cache and storage.
func Assemble(engine config.EngineConfig, repo repository.Repository, forecastCache cache.ForecastCache, objects storage.ObjectStorage) *service.RebalanceService {
	forecaster := forecast.New(ForecastOptions(engine))

	return service.NewRebalanceService(service.Components{
		Repo:              repo,
		Forecaster:        forecaster,
		Affinity:          affinity.NewBuilder(repo, engine.AffinityThreshold, engine.Workers),
		Optimizer:         optimizer.New(repo, forecaster, OptimizerConfig(engine)),
		Router:            routing.NewRouter(repo, engine.DeadStockVelocity),
		Transfers:         transfer.NewService(repo),
		Cache:             forecastCache,
		Storage:           objects,
		DeadStockVelocity: engine.DeadStockVelocity,
	})
}

// Warmup trains the demand model when the engine is configured to do so at
// startup. Failures are logged; the model is trained lazily on first use.
func Warmup(ctx context.Context, engine config.EngineConfig, svc *service.RebalanceService) {
	if !engine.TrainOnStartup {
		return
	}
	status, err := svc.Retrain(ctx)
	if err != nil {
		log.Error().Err(err).Msg("app: startup training failed")
		return
	}
	log.Info().Str("model_id", status.ModelID).Int("samples", status.Samples).Msg("app: forecaster trained on startup")
}
