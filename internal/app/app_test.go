package app

import (
	"context"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/cache"
	"github.com/andresuchdata/eco-inventory/internal/config"
	"github.com/andresuchdata/eco-inventory/internal/forecast"
	"github.com/andresuchdata/eco-inventory/internal/optimizer"
	"github.com/andresuchdata/eco-inventory/internal/repository/memory"
	"github.com/andresuchdata/eco-inventory/internal/seed"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastOptionsKeepsDefaultsForZeroValues(t *testing.T) {
	opts := ForecastOptions(config.EngineConfig{ForecastSeed: 7})

	def := forecast.DefaultOptions()
	assert.Equal(t, int64(7), opts.Seed)
	assert.Equal(t, def.LookbackDays, opts.LookbackDays)
	assert.Equal(t, def.Trees, opts.Trees)
	assert.Equal(t, def.Workers, opts.Workers)

	opts = ForecastOptions(config.EngineConfig{ForecastLookbackDays: 30, ForecastTrees: 10, ForecastMaxDepth: 6, Workers: 2})
	assert.Equal(t, 30, opts.LookbackDays)
	assert.Equal(t, 10, opts.Trees)
	assert.Equal(t, 6, opts.MaxDepth)
	assert.Equal(t, 2, opts.Workers)
}

func TestOptimizerConfigCopiesTunables(t *testing.T) {
	cfg := OptimizerConfig(config.EngineConfig{
		OverstockWeeks:      3,
		MinOverstockQty:     8,
		ProximityKm:         25,
		ProximityBonus:      150,
		AffinityWeight:      4,
		AcceptanceThreshold: 90,
		TransferFraction:    0.25,
		OnlineFraction:      0.4,
		CO2Factor:           0.1,
	})

	assert.Equal(t, optimizer.Config{
		OverstockWeeks:      3,
		MinOverstockQty:     8,
		ProximityKm:         25,
		ProximityBonus:      150,
		AffinityWeight:      4,
		AcceptanceThreshold: 90,
		TransferFraction:    0.25,
		OnlineFraction:      0.4,
		CO2Factor:           0.1,
	}, cfg)
}

func TestAssembleRunsRefreshOnDemoData(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	_, err := seed.Load(ctx, repo, seed.Options{Seed: 1})
	require.NoError(t, err)

	engine := config.EngineConfig{
		ForecastSeed:         42,
		ForecastLookbackDays: 14,
		ForecastTrees:        3,
		ForecastMaxDepth:     6,
		TrainOnStartup:       true,
		Workers:              2,
	}
	svc := Assemble(engine, repo, cache.NewNoopForecastCache(), nil)

	Warmup(ctx, engine, svc)
	assert.Equal(t, forecast.StateTrained, svc.ForecastStatus().State)

	result, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, len(result.Overstock))

	_, err = svc.UploadReport(ctx)
	assert.ErrorIs(t, err, service.ErrStorageDisabled)
}

func TestBuildWithDisabledBackends(t *testing.T) {
	svc, err := Build(&config.Config{}, memory.NewRepository())
	require.NoError(t, err)
	assert.Equal(t, forecast.StateUntrained, svc.ForecastStatus().State)
}
