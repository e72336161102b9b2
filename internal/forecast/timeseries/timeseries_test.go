package timeseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAverage(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}

	got := MovingAverage(series, 3)
	assert.Equal(t, []float64{2, 3, 4}, got)
}

func TestMovingAverage_ShortSeries(t *testing.T) {
	if got := MovingAverage([]float64{1, 2}, 3); got != nil {
		t.Fatalf("expected empty result for short series, got %v", got)
	}
	if got := MovingAverage(nil, 3); got != nil {
		t.Fatalf("expected empty result for empty series, got %v", got)
	}
	if got := MovingAverage([]float64{1, 2, 3}, 0); got != nil {
		t.Fatalf("expected empty result for zero window, got %v", got)
	}
}

func TestExponentialMovingAverage(t *testing.T) {
	series := []float64{10, 20, 30}

	got := ExponentialMovingAverage(series, 0.5)

	assert.Len(t, got, 3)
	assert.Equal(t, 10.0, got[0], "first element seeds the average")
	assert.InDelta(t, 15.0, got[1], 1e-9)
	assert.InDelta(t, 22.5, got[2], 1e-9)
}

func TestExponentialMovingAverage_Empty(t *testing.T) {
	assert.Nil(t, ExponentialMovingAverage(nil, 0.3))
}

func TestLinearRegression(t *testing.T) {
	// y = 2x + 1
	points := []Point{{0, 1}, {1, 3}, {2, 5}, {3, 7}}

	slope, intercept := LinearRegression(points)

	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, intercept, 1e-9)
}

func TestLinearRegression_Degenerate(t *testing.T) {
	slope, intercept := LinearRegression([]Point{{1, 5}})
	assert.Zero(t, slope)
	assert.Zero(t, intercept)

	slope, intercept = LinearRegression(nil)
	assert.Zero(t, slope)
	assert.Zero(t, intercept)

	// identical x values leave the system underdetermined
	slope, intercept = LinearRegression([]Point{{2, 1}, {2, 9}, {2, 4}})
	assert.Zero(t, slope)
	assert.Zero(t, intercept)
}

func TestDetectSeasonality_WeeklyPattern(t *testing.T) {
	// Four weeks with a strong weekend spike every 7 days.
	series := make([]float64, 28)
	for i := range series {
		series[i] = 100
		if i%7 == 5 {
			series[i] = 300
		}
	}

	assert.Equal(t, 7, DetectSeasonality(series))
}

func TestDetectSeasonality_TooFewPoints(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	assert.Equal(t, 0, DetectSeasonality(series))
}

func TestDetectSeasonality_FlatSeries(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = 42
	}
	assert.Equal(t, 0, DetectSeasonality(series))
}

func TestConfidenceIntervalWidth(t *testing.T) {
	residuals := []float64{-1, 1, -1, 1}

	got := ConfidenceIntervalWidth(residuals)

	// sample stddev of {-1,1,-1,1} is sqrt(4/3)
	want := 1.96 * math.Sqrt(4.0/3.0) / 2.0
	assert.InDelta(t, want, got, 1e-9)
}

func TestConfidenceIntervalWidth_Empty(t *testing.T) {
	assert.Zero(t, ConfidenceIntervalWidth(nil))
	assert.Zero(t, ConfidenceIntervalWidth([]float64{0.5}))
}

func TestMeanAndPopStdDev(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(series), 1e-9)
	assert.InDelta(t, 2.0, PopStdDev(series), 1e-9)
	assert.Zero(t, Mean(nil))
	assert.Zero(t, PopStdDev([]float64{3}))
}
