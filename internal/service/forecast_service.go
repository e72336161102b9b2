package service

import (
	"context"
	"fmt"

	"github.com/fuelops/spbu-backoffice/internal/cache"
	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/forecast"
	"github.com/fuelops/spbu-backoffice/internal/repository"
	"github.com/rs/zerolog/log"
)

// fillFallback is the coarse days-until-stockout table the dashboard falls
// back to when the blended estimate is implausibly high. The super-admin and
// operator paths carry separate tables on purpose: the two dashboards were
// tuned independently and must not be silently merged.
type fillFallback struct {
	triggerDays int
	lowFillPct  float64
	lowDays     int
	midFillPct  float64
	midDays     int
}

var (
	superAdminFallback = fillFallback{triggerDays: 1000, lowFillPct: 0.20, lowDays: 5, midFillPct: 0.50, midDays: 10}
	operatorFallback   = fillFallback{triggerDays: 999, lowFillPct: 0.20, lowDays: 5, midFillPct: 0.50, midDays: 10}
)

// criticalDaysThreshold marks a tank as critical on the dashboard summary.
const criticalDaysThreshold = 3

// ForecastService wraps the pure forecasting engine with history loading and
// a short-lived cache. Cached entries are invalidated by RecalcService before
// any recompute, so reads here always see either fresh data or nothing.
type ForecastService struct {
	sales      repository.SalesRepository
	deliveries repository.DeliveryRepository
	tanks      repository.TankRepository
	cache      cache.ForecastCache
	cfg        config.ForecastConfig
}

func NewForecastService(
	sales repository.SalesRepository,
	deliveries repository.DeliveryRepository,
	tanks repository.TankRepository,
	cacheImpl cache.ForecastCache,
	cfg config.ForecastConfig,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		sales:      sales,
		deliveries: deliveries,
		tanks:      tanks,
		cache:      cacheImpl,
		cfg:        cfg,
	}
}

// GetStockout returns the stockout prediction for one tank, cache-aside.
func (s *ForecastService) GetStockout(ctx context.Context, tankID int64) (*forecast.StockoutPrediction, error) {
	tank, err := s.tanks.GetTank(ctx, tankID)
	if err != nil {
		return nil, err
	}
	return s.stockoutForTank(ctx, tank)
}

func (s *ForecastService) stockoutForTank(ctx context.Context, tank *domain.Tank) (*forecast.StockoutPrediction, error) {
	key := cache.Key{SPBUID: tank.SPBUID, FuelType: tank.FuelType, WindowDays: s.cfg.LookbackDays}

	if pred, ok, err := s.cache.GetStockout(ctx, key); err == nil && ok {
		return pred, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("tank_id", tank.ID).Msg("forecast: cache get failed")
	}

	history, err := s.sales.GetSalesHistory(ctx, domain.SalesFilter{
		SPBUID:       tank.SPBUID,
		FuelType:     tank.FuelType,
		LookbackDays: s.cfg.LookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("loading sales history for tank %d: %w", tank.ID, err)
	}

	pred := forecast.PredictStockout(history, tank.CurrentStock, tank.Capacity, forecast.DefaultStockoutOptions())

	if err := s.cache.SetStockout(ctx, key, pred); err != nil {
		log.Warn().Err(err).Int64("tank_id", tank.ID).Msg("forecast: cache set failed")
	}

	return &pred, nil
}

// GetDeliveryPlan derives the tank's consumption statistics from a stockout
// prediction and feeds them to the delivery planner.
func (s *ForecastService) GetDeliveryPlan(ctx context.Context, tankID int64) (*forecast.DeliveryRecommendation, error) {
	tank, err := s.tanks.GetTank(ctx, tankID)
	if err != nil {
		return nil, err
	}

	pred, err := s.stockoutForTank(ctx, tank)
	if err != nil {
		return nil, err
	}

	history, err := s.deliveries.GetDeliveryHistory(ctx, domain.SalesFilter{
		SPBUID:       tank.SPBUID,
		FuelType:     tank.FuelType,
		LookbackDays: s.cfg.LookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("loading delivery history for tank %d: %w", tank.ID, err)
	}

	records := make([]forecast.DeliveryRecord, len(history))
	for i, d := range history {
		records[i] = forecast.DeliveryRecord{
			PlannedLiters: d.PlannedLiters,
			ActualLiters:  d.ActualLiters,
			OccurredAt:    d.OccurredAt,
		}
	}

	rec := forecast.PlanDelivery(forecast.DeliveryParams{
		FuelType:             tank.FuelType,
		CurrentStock:         tank.CurrentStock,
		TankCapacity:         tank.Capacity,
		AvgDailyConsumption:  pred.Stats.AvgDailyConsumption,
		StdDevConsumption:    pred.Stats.StdDev,
		DeliveryHistory:      records,
		SupplierLeadTimeDays: s.cfg.SupplierLeadTimeDays,
	})
	return &rec, nil
}

// GetDemandForecast produces the short-horizon per-fuel-type forecast for
// one station.
func (s *ForecastService) GetDemandForecast(ctx context.Context, spbuID int64, fuelTypes []string) ([]forecast.DemandForecastDay, error) {
	rows, err := s.sales.GetDailySales(ctx, spbuID, s.cfg.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("loading daily sales for spbu %d: %w", spbuID, err)
	}

	opts := forecast.DefaultDemandOptions()
	if s.cfg.PredictionDays > 0 {
		opts.PredictionDays = s.cfg.PredictionDays
	}
	return forecast.ForecastDemand(rows, fuelTypes, opts), nil
}

// GetDashboard aggregates stockout forecasts across a station's tanks,
// applying the role-specific unrealistic-projection fallback.
func (s *ForecastService) GetDashboard(ctx context.Context, spbuID int64, role DashboardRole) (*DashboardSummary, error) {
	tanks, err := s.tanks.GetTanksBySPBU(ctx, spbuID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		SPBUID: spbuID,
		Tanks:  make([]TankForecast, 0, len(tanks)),
	}

	for i := range tanks {
		tank := tanks[i]
		pred, err := s.stockoutForTank(ctx, &tank)
		if err != nil {
			return nil, err
		}

		fillPct := 0.0
		if tank.Capacity > 0 {
			fillPct = tank.CurrentStock / tank.Capacity
		}

		days := applyFillFallback(pred.DaysUntilStockout, fillPct, fallbackForRole(role))
		if days <= criticalDaysThreshold {
			summary.CriticalTanks++
		}

		summary.Tanks = append(summary.Tanks, TankForecast{
			TankID:            tank.ID,
			FuelType:          tank.FuelType,
			CurrentStock:      tank.CurrentStock,
			Capacity:          tank.Capacity,
			FillPercentage:    fillPct * 100,
			DaysUntilStockout: days,
			Prediction:        *pred,
		})
	}

	return summary, nil
}

func fallbackForRole(role DashboardRole) fillFallback {
	if role == RoleSuperAdmin {
		return superAdminFallback
	}
	return operatorFallback
}

// applyFillFallback replaces an implausibly high day estimate with a coarse
// one derived from the fill percentage.
func applyFillFallback(days int, fillPct float64, table fillFallback) int {
	if days < table.triggerDays {
		return days
	}
	switch {
	case fillPct < table.lowFillPct:
		return table.lowDays
	case fillPct < table.midFillPct:
		return table.midDays
	default:
		return forecast.NoStockoutSentinelDays
	}
}
