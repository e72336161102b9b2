package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/cache"
	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSalesRepo struct {
	history     []domain.SalesPoint
	rows        []domain.DailySalesRow
	historyCalls int
	recorded    []domain.NewSale
	recordErr   error
}

func (f *fakeSalesRepo) GetSalesHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.SalesPoint, error) {
	f.historyCalls++
	return f.history, nil
}

func (f *fakeSalesRepo) GetDailySales(ctx context.Context, spbuID int64, lookbackDays int) ([]domain.DailySalesRow, error) {
	return f.rows, nil
}

func (f *fakeSalesRepo) RecordSale(ctx context.Context, sale domain.NewSale) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, sale)
	return nil
}

type fakeDeliveryRepo struct {
	history []domain.DeliveryPoint
}

func (f *fakeDeliveryRepo) GetDeliveryHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.DeliveryPoint, error) {
	return f.history, nil
}

type fakeTankRepo struct {
	tanks map[int64]domain.Tank
}

func (f *fakeTankRepo) GetTank(ctx context.Context, tankID int64) (*domain.Tank, error) {
	tank, ok := f.tanks[tankID]
	if !ok {
		return nil, fmt.Errorf("tank %d not found", tankID)
	}
	return &tank, nil
}

func (f *fakeTankRepo) GetTanksBySPBU(ctx context.Context, spbuID int64) ([]domain.Tank, error) {
	var out []domain.Tank
	for _, tank := range f.tanks {
		if tank.SPBUID == spbuID {
			out = append(out, tank)
		}
	}
	return out, nil
}

// fakeCache records the call sequence so tests can assert cache-aside and
// invalidate-before-set ordering.
type fakeCache struct {
	store  map[cache.Key]forecast.StockoutPrediction
	calls  []string
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[cache.Key]forecast.StockoutPrediction)}
}

func (f *fakeCache) GetStockout(ctx context.Context, key cache.Key) (*forecast.StockoutPrediction, bool, error) {
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	pred, ok := f.store[key]
	if !ok {
		return nil, false, nil
	}
	return &pred, true, nil
}

func (f *fakeCache) SetStockout(ctx context.Context, key cache.Key, pred forecast.StockoutPrediction) error {
	f.calls = append(f.calls, "set")
	if f.setErr != nil {
		return f.setErr
	}
	f.store[key] = pred
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, key cache.Key) error {
	f.calls = append(f.calls, "invalidate")
	delete(f.store, key)
	return nil
}

func (f *fakeCache) InvalidateSPBU(ctx context.Context, spbuID int64) error {
	f.calls = append(f.calls, "invalidate_spbu")
	for key := range f.store {
		if key.SPBUID == spbuID {
			delete(f.store, key)
		}
	}
	return nil
}

func (f *fakeCache) InvalidateAll(ctx context.Context) error {
	f.calls = append(f.calls, "invalidate_all")
	f.store = make(map[cache.Key]forecast.StockoutPrediction)
	return nil
}

type fakePublisher struct {
	updates []domain.ForecastUpdate
}

func (f *fakePublisher) PublishUpdate(ctx context.Context, update domain.ForecastUpdate) error {
	f.updates = append(f.updates, update)
	return nil
}

func testForecastConfig() config.ForecastConfig {
	return config.ForecastConfig{LookbackDays: 60, PredictionDays: 7, SupplierLeadTimeDays: 2}
}

func constantHistory(days int, liters float64) []domain.SalesPoint {
	base := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	history := make([]domain.SalesPoint, 0, days)
	for i := 0; i < days; i++ {
		history = append(history, domain.SalesPoint{
			FuelType:   "pertalite",
			Liters:     liters,
			OccurredAt: base.AddDate(0, 0, -i),
		})
	}
	return history
}

func testTank() domain.Tank {
	return domain.Tank{ID: 1, SPBUID: 7, FuelType: "pertalite", CurrentStock: 5000, Capacity: 10000}
}

func TestGetStockout_ComputesAndCaches(t *testing.T) {
	sales := &fakeSalesRepo{history: constantHistory(10, 500)}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: testTank()}}
	fc := newFakeCache()
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, tanks, fc, testForecastConfig())

	pred, err := svc.GetStockout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, pred.DaysUntilStockout)
	assert.Equal(t, 1, sales.historyCalls)

	key := cache.Key{SPBUID: 7, FuelType: "pertalite", WindowDays: 60}
	_, ok := fc.store[key]
	assert.True(t, ok, "prediction should be cached under the tank's key")

	// Second read is served from cache, no new history load.
	again, err := svc.GetStockout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, pred.DaysUntilStockout, again.DaysUntilStockout)
	assert.Equal(t, 1, sales.historyCalls)
}

func TestGetStockout_CacheErrorDoesNotFailRequest(t *testing.T) {
	sales := &fakeSalesRepo{history: constantHistory(10, 500)}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: testTank()}}
	fc := newFakeCache()
	fc.getErr = fmt.Errorf("redis down")
	fc.setErr = fmt.Errorf("redis down")
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, tanks, fc, testForecastConfig())

	pred, err := svc.GetStockout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, pred.DaysUntilStockout)
}

func TestGetStockout_UnknownTank(t *testing.T) {
	svc := NewForecastService(&fakeSalesRepo{}, &fakeDeliveryRepo{}, &fakeTankRepo{tanks: map[int64]domain.Tank{}}, nil, testForecastConfig())

	_, err := svc.GetStockout(context.Background(), 42)
	assert.Error(t, err)
}

func TestGetDeliveryPlan_DerivesStatsFromPrediction(t *testing.T) {
	sales := &fakeSalesRepo{history: constantHistory(10, 500)}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: testTank()}}
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, tanks, nil, testForecastConfig())

	rec, err := svc.GetDeliveryPlan(context.Background(), 1)
	require.NoError(t, err)

	// Constant 500 L/day, zero stddev: safety stock 2*500, volume tops up
	// to 95% of capacity plus two lead days of consumption.
	assert.InDelta(t, 1000, rec.SafetyStock, 0.001)
	assert.InDelta(t, 5500, rec.RecommendedVolume, 0.001)
}

func TestGetDemandForecast_HonorsConfiguredHorizon(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.DailySalesRow, 0, 14)
	for i := 0; i < 14; i++ {
		rows = append(rows, domain.DailySalesRow{
			Date:      base.AddDate(0, 0, i),
			FuelTypes: []domain.FuelTypeSales{{FuelType: "pertalite", Liters: 400, Transactions: 40}},
		})
	}
	sales := &fakeSalesRepo{rows: rows}
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, &fakeTankRepo{}, nil, testForecastConfig())

	days, err := svc.GetDemandForecast(context.Background(), 7, []string{"pertalite"})
	require.NoError(t, err)
	assert.Len(t, days, 7)
}

func TestGetDashboard_CountsCriticalTanks(t *testing.T) {
	nearlyEmpty := domain.Tank{ID: 2, SPBUID: 7, FuelType: "pertamax", CurrentStock: 900, Capacity: 10000}
	sales := &fakeSalesRepo{history: constantHistory(10, 500)}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: testTank(), 2: nearlyEmpty}}
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, tanks, nil, testForecastConfig())

	summary, err := svc.GetDashboard(context.Background(), 7, RoleOperator)
	require.NoError(t, err)
	require.Len(t, summary.Tanks, 2)

	// 900 L at 500 L/day is gone in 1 day; 5000 L lasts 10 days.
	assert.Equal(t, 1, summary.CriticalTanks)
}

func TestGetDashboard_FillFallbackByRole(t *testing.T) {
	// No sales history: the engine returns the 999 sentinel and the
	// dashboard falls back to a fill-percentage estimate.
	halfFull := domain.Tank{ID: 1, SPBUID: 7, FuelType: "pertalite", CurrentStock: 4000, Capacity: 10000}
	sales := &fakeSalesRepo{}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: halfFull}}
	svc := NewForecastService(sales, &fakeDeliveryRepo{}, tanks, nil, testForecastConfig())

	operator, err := svc.GetDashboard(context.Background(), 7, RoleOperator)
	require.NoError(t, err)
	require.Len(t, operator.Tanks, 1)
	assert.Equal(t, 10, operator.Tanks[0].DaysUntilStockout, "40 percent full maps to the mid bucket")

	// The super-admin path only kicks in above the sentinel, so the raw
	// 999 passes through.
	superAdmin, err := svc.GetDashboard(context.Background(), 7, RoleSuperAdmin)
	require.NoError(t, err)
	require.Len(t, superAdmin.Tanks, 1)
	assert.Equal(t, forecast.NoStockoutSentinelDays, superAdmin.Tanks[0].DaysUntilStockout)
}

func TestGetDashboard_FillFallbackBuckets(t *testing.T) {
	cases := []struct {
		name     string
		stock    float64
		expected int
	}{
		{"below 20 percent", 1000, 5},
		{"below 50 percent", 4000, 10},
		{"above 50 percent", 8000, forecast.NoStockoutSentinelDays},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tank := domain.Tank{ID: 1, SPBUID: 7, FuelType: "pertalite", CurrentStock: tc.stock, Capacity: 10000}
			svc := NewForecastService(&fakeSalesRepo{}, &fakeDeliveryRepo{}, &fakeTankRepo{tanks: map[int64]domain.Tank{1: tank}}, nil, testForecastConfig())

			summary, err := svc.GetDashboard(context.Background(), 7, RoleOperator)
			require.NoError(t, err)
			require.Len(t, summary.Tanks, 1)
			assert.Equal(t, tc.expected, summary.Tanks[0].DaysUntilStockout)
		})
	}
}

func TestParseDashboardRole(t *testing.T) {
	assert.Equal(t, RoleSuperAdmin, ParseDashboardRole("super_admin"))
	assert.Equal(t, RoleAdmin, ParseDashboardRole("admin"))
	assert.Equal(t, RoleOperator, ParseDashboardRole("operator"))
	assert.Equal(t, RoleOperator, ParseDashboardRole(""))
	assert.Equal(t, RoleOperator, ParseDashboardRole("root"))
}

func TestRecordSale_InvalidatesBeforeRecomputing(t *testing.T) {
	sales := &fakeSalesRepo{history: constantHistory(10, 500)}
	tanks := &fakeTankRepo{tanks: map[int64]domain.Tank{1: testTank()}}
	fc := newFakeCache()
	pub := &fakePublisher{}
	svc := NewRecalcService(sales, tanks, fc, pub, testForecastConfig())

	sale := domain.NewSale{SPBUID: 7, TankID: 1, FuelType: "pertalite", Liters: 40}
	pred, err := svc.RecordSale(context.Background(), sale)
	require.NoError(t, err)

	require.Len(t, sales.recorded, 1)
	assert.False(t, sales.recorded[0].OccurredAt.IsZero(), "zero timestamp should be stamped")

	require.Equal(t, []string{"invalidate", "set"}, fc.calls)

	require.Len(t, pub.updates, 1)
	update := pub.updates[0]
	assert.Equal(t, int64(7), update.SPBUID)
	assert.Equal(t, int64(1), update.TankID)
	assert.Equal(t, "pertalite", update.FuelType)
	assert.Equal(t, pred.DaysUntilStockout, update.DaysUntilStockout)
	assert.False(t, update.RecalcAt.IsZero())
}

func TestRecordSale_PersistFailureSkipsRecalc(t *testing.T) {
	sales := &fakeSalesRepo{recordErr: fmt.Errorf("insert failed")}
	fc := newFakeCache()
	pub := &fakePublisher{}
	svc := NewRecalcService(sales, &fakeTankRepo{}, fc, pub, testForecastConfig())

	_, err := svc.RecordSale(context.Background(), domain.NewSale{SPBUID: 7, TankID: 1, FuelType: "pertalite", Liters: 40})
	assert.Error(t, err)
	assert.Empty(t, fc.calls)
	assert.Empty(t, pub.updates)
}
