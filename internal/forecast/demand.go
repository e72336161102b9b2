// internal/forecast/demand.go
package forecast

import (
	"math"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/forecast/timeseries"
)

// fuelTypeModel caches everything derivable from one fuel type's history so
// the per-day loop only has to apply the seasonal factor.
type fuelTypeModel struct {
	avg            float64
	stdDev         float64
	count          int
	ma7            float64
	ema            float64
	trendValue     float64
	trend          TrendDirection
	weekdayFactors [7]float64
	hasSeasonality bool
}

// ForecastDemand produces a day-by-day volume forecast per fuel type for the
// horizon [today, today+predictionDays). Each day's per-fuel forecasts are
// built independently from the same fitted model.
func ForecastDemand(historicalData []domain.DailySalesRow, fuelTypes []string, opts DemandOptions) []DemandForecastDay {
	today := referenceDate(opts.ReferenceTime)

	days := opts.PredictionDays
	if days <= 0 {
		days = DefaultDemandOptions().PredictionDays
	}

	models := make(map[string]fuelTypeModel, len(fuelTypes))
	for _, ft := range fuelTypes {
		models[ft] = fitFuelType(extractSeries(historicalData, ft), opts)
	}

	result := make([]DemandForecastDay, 0, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i)
		day := DemandForecastDay{
			Date:        date,
			DayName:     date.Weekday().String(),
			PerFuelType: make(map[string]FuelTypeForecast, len(fuelTypes)),
		}
		for _, ft := range fuelTypes {
			day.PerFuelType[ft] = forecastOneDay(models[ft], date)
		}
		result = append(result, day)
	}
	return result
}

// extractSeries pulls one fuel type's daily liters out of the grouped rows,
// in row order. Days where the fuel type is absent count as zero.
func extractSeries(rows []domain.DailySalesRow, fuelType string) []dailyValue {
	series := make([]dailyValue, 0, len(rows))
	for _, row := range rows {
		var liters float64
		for _, ft := range row.FuelTypes {
			if ft.FuelType == fuelType {
				liters = ft.Liters
				break
			}
		}
		series = append(series, dailyValue{date: row.Date, liters: liters})
	}
	return series
}

type dailyValue struct {
	date   time.Time
	liters float64
}

// fitFuelType computes the four candidate predictions and the day-of-week
// seasonal factors for one fuel type.
func fitFuelType(series []dailyValue, opts DemandOptions) fuelTypeModel {
	liters := make([]float64, len(series))
	for i, d := range series {
		liters[i] = d.liters
	}

	avg := timeseries.Mean(liters)
	model := fuelTypeModel{
		avg:        avg,
		stdDev:     timeseries.PopStdDev(liters),
		count:      len(liters),
		ma7:        ma7Rate(liters, avg),
		ema:        emaRate(liters, avg),
		trendValue: trendRate(liters, avg, opts.IncludeTrendAnalysis),
		trend:      classifyTrend(liters, opts.IncludeTrendAnalysis),
	}

	for i := range model.weekdayFactors {
		model.weekdayFactors[i] = 1.0
	}
	if opts.IncludeSeasonality && len(series) >= trendWindowDays && avg > 0 {
		var sums, counts [7]float64
		for _, d := range series {
			wd := int(d.date.Weekday())
			sums[wd] += d.liters
			counts[wd]++
		}
		for wd := 0; wd < 7; wd++ {
			if counts[wd] > 0 {
				model.weekdayFactors[wd] = (sums[wd] / counts[wd]) / avg
			}
		}
		model.hasSeasonality = true
	}
	return model
}

// forecastOneDay blends the candidates for a single forecast date. The
// seasonal candidate is the simple average scaled by the date's weekday
// factor; the other candidates do not vary by date.
func forecastOneDay(model fuelTypeModel, date time.Time) FuelTypeForecast {
	factor := model.weekdayFactors[int(date.Weekday())]
	seasonal := model.avg * factor

	blended := WeightSimple*model.avg +
		WeightMA7*model.ma7 +
		WeightEMA*model.ema +
		WeightTrend*model.trendValue +
		WeightSeasonal*seasonal

	volume := math.Round(blended)
	if volume < 0 || !isFinite(volume) {
		volume = 0
	}

	score := confidenceBase
	if model.count >= confidenceMinDataPoints {
		score += confidenceBonusVolume
	}
	if model.avg > 0 && model.stdDev/model.avg < confidenceMaxCV {
		score += confidenceBonusStable
	}
	if model.trend != TrendStable {
		score += confidenceBonusTrend
	}
	if volume > 0 {
		score += confidenceBonusBounded
	}
	score = math.Min(score, 1.0)

	return FuelTypeForecast{
		PredictedVolume: volume,
		Confidence:      score,
		Trend:           model.trend,
		SeasonalFactor:  factor,
	}
}
