// Package timeseries holds the numeric primitives shared by the stockout,
// delivery, and demand predictors. Every function is total: insufficient or
// degenerate input yields a documented fallback value, never a panic or NaN.
package timeseries

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// seasonalityMinPoints is the minimum series length before
	// autocorrelation is even attempted.
	seasonalityMinPoints = 14

	// seasonalityMaxLag bounds the lag search to a weekly cycle.
	seasonalityMaxLag = 7

	// seasonalitySignificance is the autocorrelation value a lag must
	// exceed to count as a detected period.
	seasonalitySignificance = 0.3

	// zScore95 is the z value for a 95% confidence interval.
	zScore95 = 1.96
)

// Mean returns the arithmetic mean of the series, or 0 for an empty series.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return stat.Mean(series, nil)
}

// PopStdDev returns the population standard deviation, or 0 for fewer than
// two points.
func PopStdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return stat.PopStdDev(series, nil)
}

// MovingAverage returns one trailing average per index once windowSize points
// are available. The result is empty when the series is shorter than the
// window or the window is not positive.
func MovingAverage(series []float64, windowSize int) []float64 {
	if windowSize <= 0 || len(series) < windowSize {
		return nil
	}

	result := make([]float64, 0, len(series)-windowSize+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= windowSize {
			sum -= series[i-windowSize]
		}
		if i >= windowSize-1 {
			result = append(result, sum/float64(windowSize))
		}
	}
	return result
}

// ExponentialMovingAverage smooths the series with the given alpha. The first
// element seeds the average; an empty series yields an empty result. Alpha
// outside (0,1) is clamped into that range.
func ExponentialMovingAverage(series []float64, alpha float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = math.Min(math.Max(alpha, 1e-6), 1-1e-6)
	}

	result := make([]float64, len(series))
	result[0] = series[0]
	for i := 1; i < len(series); i++ {
		result[i] = alpha*series[i] + (1-alpha)*result[i-1]
	}
	return result
}

// Point is one (x, y) observation for regression.
type Point struct {
	X float64
	Y float64
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
// Fewer than two points, or a degenerate x column, yields {0, 0} rather than
// an error.
func LinearRegression(points []Point) (slope, intercept float64) {
	if len(points) < 2 {
		return 0, 0
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) ||
		math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return 0, 0
	}
	return slope, intercept
}

// DetectSeasonality searches lags 1..7 for the strongest autocorrelation and
// returns that lag as the seasonal period. It returns 0 when the series is
// shorter than 14 points or no lag clears the significance threshold.
func DetectSeasonality(series []float64) int {
	if len(series) < seasonalityMinPoints {
		return 0
	}

	mean := Mean(series)
	var denom float64
	for _, v := range series {
		d := v - mean
		denom += d * d
	}
	if denom == 0 {
		return 0
	}

	bestLag := 0
	bestCorr := seasonalitySignificance
	for lag := 1; lag <= seasonalityMaxLag && lag < len(series); lag++ {
		var num float64
		for i := 0; i+lag < len(series); i++ {
			num += (series[i] - mean) * (series[i+lag] - mean)
		}
		corr := num / denom
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	return bestLag
}

// ConfidenceIntervalWidth returns the half-width of the confidence interval
// around the mean residual: z * s / sqrt(n). Only the 95% level is supported;
// fewer than two residuals yields 0.
func ConfidenceIntervalWidth(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}
	return zScore95 * stat.StdDev(residuals, nil) / math.Sqrt(float64(n))
}
