package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/cache"
	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/events"
	"github.com/fuelops/spbu-backoffice/internal/forecast"
	"github.com/fuelops/spbu-backoffice/internal/repository"
	"github.com/rs/zerolog/log"
)

// RecalcService reacts to newly recorded sales: record, invalidate, recompute,
// cache, publish. Invalidation happens before the recompute so a concurrent
// reader can never resurrect a stale entry written after the sale landed.
type RecalcService struct {
	sales     repository.SalesRepository
	tanks     repository.TankRepository
	cache     cache.ForecastCache
	publisher events.Publisher
	cfg       config.ForecastConfig
}

func NewRecalcService(
	sales repository.SalesRepository,
	tanks repository.TankRepository,
	cacheImpl cache.ForecastCache,
	publisher events.Publisher,
	cfg config.ForecastConfig,
) *RecalcService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &RecalcService{
		sales:     sales,
		tanks:     tanks,
		cache:     cacheImpl,
		publisher: publisher,
		cfg:       cfg,
	}
}

// RecordSale persists a sale, then refreshes the affected tank's forecast.
func (s *RecalcService) RecordSale(ctx context.Context, sale domain.NewSale) (*forecast.StockoutPrediction, error) {
	if sale.OccurredAt.IsZero() {
		sale.OccurredAt = time.Now().UTC()
	}

	if err := s.sales.RecordSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}

	return s.recalculate(ctx, sale)
}

func (s *RecalcService) recalculate(ctx context.Context, sale domain.NewSale) (*forecast.StockoutPrediction, error) {
	key := cache.Key{SPBUID: sale.SPBUID, FuelType: sale.FuelType, WindowDays: s.cfg.LookbackDays}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		log.Warn().Err(err).Int64("spbu_id", sale.SPBUID).Str("fuel_type", sale.FuelType).
			Msg("recalc: cache invalidation failed")
	}

	tank, err := s.tanks.GetTank(ctx, sale.TankID)
	if err != nil {
		return nil, err
	}

	history, err := s.sales.GetSalesHistory(ctx, domain.SalesFilter{
		SPBUID:       sale.SPBUID,
		FuelType:     sale.FuelType,
		LookbackDays: s.cfg.LookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("loading sales history for tank %d: %w", sale.TankID, err)
	}

	pred := forecast.PredictStockout(history, tank.CurrentStock, tank.Capacity, forecast.DefaultStockoutOptions())

	if err := s.cache.SetStockout(ctx, key, pred); err != nil {
		log.Warn().Err(err).Int64("tank_id", sale.TankID).Msg("recalc: cache set failed")
	}

	update := domain.ForecastUpdate{
		SPBUID:            sale.SPBUID,
		TankID:            sale.TankID,
		FuelType:          sale.FuelType,
		RecalcAt:          time.Now().UTC(),
		DaysUntilStockout: pred.DaysUntilStockout,
	}
	if err := s.publisher.PublishUpdate(ctx, update); err != nil {
		log.Warn().Err(err).Int64("tank_id", sale.TankID).Msg("recalc: publish failed")
	}

	return &pred, nil
}
