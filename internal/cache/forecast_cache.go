package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/config"
	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix     = "forecast:weekly"
	forecastScanBatchSize = 100
)

// ForecastCache stores the catalog-wide weekly forecast listing. Entries are
// keyed by model and day, so a retrained model never serves stale numbers.
type ForecastCache interface {
	GetForecasts(ctx context.Context, modelID string, day time.Time) ([]domain.ProductForecast, bool, error)
	SetForecasts(ctx context.Context, modelID string, day time.Time, forecasts []domain.ProductForecast) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecasts(ctx context.Context, modelID string, day time.Time) ([]domain.ProductForecast, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(modelID, day)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecasts []domain.ProductForecast
	if err := json.Unmarshal(payload, &forecasts); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return forecasts, true, nil
}

func (c *redisForecastCache) SetForecasts(ctx context.Context, modelID string, day time.Time, forecasts []domain.ProductForecast) error {
	payload, err := json.Marshal(forecasts)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(modelID, day), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetForecasts(ctx context.Context, modelID string, day time.Time) ([]domain.ProductForecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecasts(ctx context.Context, modelID string, day time.Time, forecasts []domain.ProductForecast) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(modelID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", forecastKeyPrefix, modelID, day.UTC().Format(time.DateOnly))
}
