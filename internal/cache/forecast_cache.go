package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/forecast"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix     = "forecast:stockout"
	forecastScanBatchSize = 100
)

// Key identifies one cached stockout prediction. Callers must invalidate
// before recomputing whenever a new sale or stock change is recorded: the
// engine itself does no invalidation and always expects fresh history.
type Key struct {
	SPBUID     int64
	FuelType   string
	WindowDays int
}

func (k Key) redisKey() string {
	return fmt.Sprintf("%s:%d:%s:%d", forecastKeyPrefix, k.SPBUID, k.FuelType, k.WindowDays)
}

// ForecastCache memoizes engine results for a few minutes. It is an explicit
// injected dependency, never a package-level singleton.
type ForecastCache interface {
	GetStockout(ctx context.Context, key Key) (*forecast.StockoutPrediction, bool, error)
	SetStockout(ctx context.Context, key Key, pred forecast.StockoutPrediction) error
	Invalidate(ctx context.Context, key Key) error
	InvalidateSPBU(ctx context.Context, spbuID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a redis-backed cache, or a noop cache when
// caching is disabled in config.
func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetStockout(ctx context.Context, key Key) (*forecast.StockoutPrediction, bool, error) {
	payload, err := c.client.Get(ctx, key.redisKey()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var pred forecast.StockoutPrediction
	if err := json.Unmarshal(payload, &pred); err != nil {
		return nil, false, fmt.Errorf("decode stockout cache: %w", err)
	}
	return &pred, true, nil
}

func (c *redisForecastCache) SetStockout(ctx context.Context, key Key, pred forecast.StockoutPrediction) error {
	payload, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("encode stockout cache: %w", err)
	}

	if err := c.client.Set(ctx, key.redisKey(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, key Key) error {
	return c.client.Del(ctx, key.redisKey()).Err()
}

func (c *redisForecastCache) InvalidateSPBU(ctx context.Context, spbuID int64) error {
	prefix := fmt.Sprintf("%s:%d:", forecastKeyPrefix, spbuID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, forecastScanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetStockout(ctx context.Context, key Key) (*forecast.StockoutPrediction, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetStockout(ctx context.Context, key Key, pred forecast.StockoutPrediction) error {
	return nil
}

func (n *noopForecastCache) Invalidate(ctx context.Context, key Key) error {
	return nil
}

func (n *noopForecastCache) InvalidateSPBU(ctx context.Context, spbuID int64) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}
