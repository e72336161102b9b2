// internal/forecast/stockout.go
package forecast

import (
	"math"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/forecast/timeseries"
)

// PredictStockout estimates how many days remain until the tank runs dry.
// Five independent rate estimates are blended with fixed weights; every edge
// case degrades to the 999-day sentinel instead of an error. The function is
// pure: identical input (with a pinned ReferenceTime) yields identical output.
func PredictStockout(salesHistory []domain.SalesPoint, currentStock, tankCapacity float64, opts StockoutOptions) StockoutPrediction {
	today := referenceDate(opts.ReferenceTime)

	if len(salesHistory) == 0 || !isFinite(currentStock) || !isFinite(tankCapacity) {
		return sentinelPrediction()
	}

	series := BuildDailySeries(salesHistory)
	liters := litersOf(series)
	avg := timeseries.Mean(liters)
	stdDev := timeseries.PopStdDev(liters)

	trend := classifyTrend(liters, opts.IncludeTrendAnalysis)

	estimates := map[string]int{
		MethodSimple:   daysAtRate(currentStock, avg),
		MethodMA7:      daysAtRate(currentStock, ma7Rate(liters, avg)),
		MethodEMA:      daysAtRate(currentStock, emaRate(liters, avg)),
		MethodTrend:    daysAtRate(currentStock, trendRate(liters, avg, opts.IncludeTrendAnalysis)),
		MethodSeasonal: daysAtRate(currentStock, seasonalRate(liters, avg, opts.IncludeSeasonality)),
	}

	blended := blendEstimates(estimates)

	score := confidenceBase
	if len(liters) >= confidenceMinDataPoints {
		score += confidenceBonusVolume
	}
	if avg > 0 && stdDev/avg < confidenceMaxCV {
		score += confidenceBonusStable
	}
	if trend != TrendStable {
		score += confidenceBonusTrend
	}
	if blended > 0 && blended < NoStockoutSentinelDays {
		score += confidenceBonusBounded
	}
	score = math.Min(score, 1.0)

	pred := StockoutPrediction{
		DaysUntilStockout: blended,
		ConfidenceLevel:   levelForScore(score),
		ConfidenceScore:   score,
		ConsumptionTrend:  trend,
		MethodBreakdown:   estimates,
		Stats: ConsumptionStats{
			AvgDailyConsumption: avg,
			StdDev:              stdDev,
			DataPointCount:      len(liters),
		},
	}

	if blended < NoStockoutSentinelDays {
		date := today.AddDate(0, 0, blended)
		pred.PredictedStockoutDate = &date
	}
	return pred
}

// sentinelPrediction is the fixed low-confidence result for missing or
// invalid input.
func sentinelPrediction() StockoutPrediction {
	return StockoutPrediction{
		DaysUntilStockout: NoStockoutSentinelDays,
		ConfidenceLevel:   ConfidenceLow,
		ConfidenceScore:   0.1,
		ConsumptionTrend:  TrendStable,
		MethodBreakdown: map[string]int{
			MethodSimple:   NoStockoutSentinelDays,
			MethodMA7:      NoStockoutSentinelDays,
			MethodEMA:      NoStockoutSentinelDays,
			MethodTrend:    NoStockoutSentinelDays,
			MethodSeasonal: NoStockoutSentinelDays,
		},
	}
}

// daysAtRate converts a daily consumption rate into whole days of stock,
// falling back to the sentinel for non-positive or non-finite rates.
func daysAtRate(stock, rate float64) int {
	if rate <= 0 || !isFinite(rate) || !isFinite(stock) {
		return NoStockoutSentinelDays
	}
	days := int(math.Floor(stock / rate))
	if days > NoStockoutSentinelDays {
		return NoStockoutSentinelDays
	}
	if days < 0 {
		return 0
	}
	return days
}

// ma7Rate is the last 7-day moving average, or the simple average when the
// series is shorter than a week.
func ma7Rate(liters []float64, avg float64) float64 {
	ma := timeseries.MovingAverage(liters, 7)
	if len(ma) == 0 {
		return avg
	}
	return ma[len(ma)-1]
}

// emaRate is the last exponentially smoothed value, or the simple average for
// an empty series.
func emaRate(liters []float64, avg float64) float64 {
	ema := timeseries.ExponentialMovingAverage(liters, emaAlpha)
	if len(ema) == 0 {
		return avg
	}
	return ema[len(ema)-1]
}

// trendRate projects the last 14 days of consumption 7 days forward and
// averages the non-negative projections. With fewer than 14 points it equals
// the simple average.
func trendRate(liters []float64, avg float64, enabled bool) float64 {
	if !enabled || len(liters) < trendWindowDays {
		return avg
	}

	window := liters[len(liters)-trendWindowDays:]
	points := make([]timeseries.Point, len(window))
	for i, v := range window {
		points[i] = timeseries.Point{X: float64(i), Y: v}
	}
	slope, intercept := timeseries.LinearRegression(points)

	var sum float64
	for d := 0; d < trendHorizonDays; d++ {
		x := float64(len(window) + d)
		sum += math.Max(0, slope*x+intercept)
	}
	return sum / float64(trendHorizonDays)
}

// seasonalRate applies the seasonal multiplier to the simple average when a
// period is detected. The multiplier is currently the 1.0 placeholder, so the
// estimate equals the simple average either way; detection still runs so the
// method participates in the breakdown.
func seasonalRate(liters []float64, avg float64, enabled bool) float64 {
	if !enabled {
		return avg
	}
	if period := timeseries.DetectSeasonality(liters); period > 0 {
		return avg * seasonalPlaceholderFactor
	}
	return avg
}

// blendEstimates combines the five estimates with the fixed weights and
// rounds to the nearest whole day.
func blendEstimates(estimates map[string]int) int {
	blended := WeightSimple*float64(estimates[MethodSimple]) +
		WeightMA7*float64(estimates[MethodMA7]) +
		WeightEMA*float64(estimates[MethodEMA]) +
		WeightTrend*float64(estimates[MethodTrend]) +
		WeightSeasonal*float64(estimates[MethodSeasonal])

	days := int(math.Round(blended))
	if days > NoStockoutSentinelDays {
		return NoStockoutSentinelDays
	}
	if days < 0 {
		return 0
	}
	return days
}

// classifyTrend labels the consumption direction from the slope of the
// 14-day regression window.
func classifyTrend(liters []float64, enabled bool) TrendDirection {
	if !enabled || len(liters) < trendWindowDays {
		return TrendStable
	}

	window := liters[len(liters)-trendWindowDays:]
	points := make([]timeseries.Point, len(window))
	for i, v := range window {
		points[i] = timeseries.Point{X: float64(i), Y: v}
	}
	slope, _ := timeseries.LinearRegression(points)

	switch {
	case slope > trendSlopeEpsilon:
		return TrendIncreasing
	case slope < -trendSlopeEpsilon:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// levelForScore buckets a confidence score into the coarse level.
func levelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= confidenceLevelHigh:
		return ConfidenceHigh
	case score >= confidenceLevelMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
