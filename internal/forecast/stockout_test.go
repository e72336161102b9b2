package forecast

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// dailySales builds one sale per day ending the day before testToday.
func dailySales(liters []float64) []domain.SalesPoint {
	start := testToday.AddDate(0, 0, -len(liters))
	sales := make([]domain.SalesPoint, len(liters))
	for i, l := range liters {
		sales[i] = domain.SalesPoint{
			FuelType:   "pertalite",
			Liters:     l,
			OccurredAt: start.AddDate(0, 0, i).Add(10 * time.Hour),
		}
	}
	return sales
}

func pinnedOptions() StockoutOptions {
	opts := DefaultStockoutOptions()
	opts.ReferenceTime = testToday
	return opts
}

func constantSeries(value float64, days int) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestBlendWeightsSumToOne(t *testing.T) {
	sum := WeightSimple + WeightMA7 + WeightEMA + WeightTrend + WeightSeasonal
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestPredictStockout_EmptyHistorySentinel(t *testing.T) {
	pred := PredictStockout(nil, 5000, 10000, pinnedOptions())

	assert.Equal(t, NoStockoutSentinelDays, pred.DaysUntilStockout)
	assert.Nil(t, pred.PredictedStockoutDate)
	assert.Equal(t, ConfidenceLow, pred.ConfidenceLevel)
	assert.Equal(t, 0.1, pred.ConfidenceScore)
	assert.Equal(t, TrendStable, pred.ConsumptionTrend)
	assert.Zero(t, pred.Stats.DataPointCount)
}

func TestPredictStockout_NonFiniteInput(t *testing.T) {
	sales := dailySales(constantSeries(500, 10))

	for _, stock := range []float64{math.NaN(), math.Inf(1)} {
		pred := PredictStockout(sales, stock, 10000, pinnedOptions())
		assert.Equal(t, NoStockoutSentinelDays, pred.DaysUntilStockout)
		assert.Equal(t, ConfidenceLow, pred.ConfidenceLevel)
	}

	pred := PredictStockout(sales, 5000, math.NaN(), pinnedOptions())
	assert.Equal(t, NoStockoutSentinelDays, pred.DaysUntilStockout)
}

func TestPredictStockout_BasicScenario(t *testing.T) {
	// 500 L/day for 10 days: too short for trend and seasonality, so every
	// method collapses to floor(5000/500) == 10.
	sales := dailySales(constantSeries(500, 10))

	pred := PredictStockout(sales, 5000, 10000, pinnedOptions())

	require.NotNil(t, pred.PredictedStockoutDate)
	assert.Equal(t, 10, pred.MethodBreakdown[MethodSimple])
	assert.Equal(t, 10, pred.MethodBreakdown[MethodMA7])
	assert.Equal(t, 10, pred.MethodBreakdown[MethodEMA])
	assert.Equal(t, 10, pred.MethodBreakdown[MethodTrend])
	assert.Equal(t, 10, pred.MethodBreakdown[MethodSeasonal])
	assert.Equal(t, 10, pred.DaysUntilStockout)
	assert.Equal(t, testToday.AddDate(0, 0, 10), *pred.PredictedStockoutDate)
	assert.InDelta(t, 500.0, pred.Stats.AvgDailyConsumption, 1e-9)
	assert.Equal(t, 10, pred.Stats.DataPointCount)
}

func TestPredictStockout_ZeroConsumptionStability(t *testing.T) {
	sales := dailySales(constantSeries(0, 20))

	pred := PredictStockout(sales, 5000, 10000, pinnedOptions())

	assert.Zero(t, pred.Stats.AvgDailyConsumption)
	assert.Equal(t, NoStockoutSentinelDays, pred.DaysUntilStockout)
	assert.Nil(t, pred.PredictedStockoutDate)
	for method, days := range pred.MethodBreakdown {
		assert.Equal(t, NoStockoutSentinelDays, days, "method %s", method)
	}
}

func TestPredictStockout_Monotonicity(t *testing.T) {
	base := []float64{400, 450, 500, 480, 520, 510, 490, 505, 495, 500}
	doubled := make([]float64, len(base))
	for i, v := range base {
		doubled[i] = v * 2
	}

	slow := PredictStockout(dailySales(base), 5000, 10000, pinnedOptions())
	fast := PredictStockout(dailySales(doubled), 5000, 10000, pinnedOptions())

	assert.Less(t, fast.DaysUntilStockout, slow.DaysUntilStockout)
}

func TestPredictStockout_Idempotence(t *testing.T) {
	sales := dailySales([]float64{300, 320, 280, 350, 310, 290, 330, 305})

	a := PredictStockout(sales, 4000, 8000, pinnedOptions())
	b := PredictStockout(sales, 4000, 8000, pinnedOptions())

	assert.True(t, reflect.DeepEqual(a, b))
}

func TestPredictStockout_ConfidenceBounds(t *testing.T) {
	histories := [][]float64{
		constantSeries(500, 5),
		constantSeries(500, 35),
		constantSeries(0, 35),
		{100, 900, 50, 1200, 10, 700, 400, 900, 20, 30, 1100, 600, 5, 950},
	}

	for _, h := range histories {
		pred := PredictStockout(dailySales(h), 5000, 10000, pinnedOptions())
		assert.GreaterOrEqual(t, pred.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, pred.ConfidenceScore, 1.0)
	}
}

func TestPredictStockout_ConfidenceCappedAtOne(t *testing.T) {
	// 35 days of steady growth: volume, stability, trend, and bounded-result
	// bonuses all trigger, which would overshoot 1.0 without the cap.
	liters := make([]float64, 35)
	for i := range liters {
		liters[i] = 300 + float64(i)*10
	}

	pred := PredictStockout(dailySales(liters), 5000, 10000, pinnedOptions())

	assert.Equal(t, TrendIncreasing, pred.ConsumptionTrend)
	assert.Equal(t, 1.0, pred.ConfidenceScore)
	assert.Equal(t, ConfidenceHigh, pred.ConfidenceLevel)
}

func TestPredictStockout_DecreasingTrend(t *testing.T) {
	liters := make([]float64, 20)
	for i := range liters {
		liters[i] = 800 - float64(i)*25
	}

	pred := PredictStockout(dailySales(liters), 5000, 10000, pinnedOptions())

	assert.Equal(t, TrendDecreasing, pred.ConsumptionTrend)
}

func TestPredictStockout_TrendAnalysisDisabled(t *testing.T) {
	liters := make([]float64, 20)
	for i := range liters {
		liters[i] = 300 + float64(i)*20
	}

	opts := pinnedOptions()
	opts.IncludeTrendAnalysis = false
	pred := PredictStockout(dailySales(liters), 5000, 10000, opts)

	assert.Equal(t, TrendStable, pred.ConsumptionTrend)
	assert.Equal(t, pred.MethodBreakdown[MethodSimple], pred.MethodBreakdown[MethodTrend])
}

func TestLevelForScore(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, levelForScore(0.8))
	assert.Equal(t, ConfidenceMedium, levelForScore(0.6))
	assert.Equal(t, ConfidenceMedium, levelForScore(0.79))
	assert.Equal(t, ConfidenceLow, levelForScore(0.59))
}
