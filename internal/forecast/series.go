// internal/forecast/series.go
package forecast

import (
	"sort"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/domain"
)

// DailyConsumption is one day of the normalized consumption series.
type DailyConsumption struct {
	Date   time.Time `json:"date"`
	Liters float64   `json:"liters"`
}

// BuildDailySeries groups sales by calendar date and returns the series in
// strictly increasing date order. Sales on the same day are summed; the input
// may arrive unordered. Missing days are not filled in.
func BuildDailySeries(sales []domain.SalesPoint) []DailyConsumption {
	if len(sales) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(sales))
	for _, s := range sales {
		day := dateOf(s.OccurredAt)
		byDay[day] += s.Liters
	}

	series := make([]DailyConsumption, 0, len(byDay))
	for day, liters := range byDay {
		series = append(series, DailyConsumption{Date: day, Liters: liters})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// litersOf projects the daily series onto a plain value slice.
func litersOf(series []DailyConsumption) []float64 {
	out := make([]float64, len(series))
	for i, d := range series {
		out[i] = d.Liters
	}
	return out
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// referenceDate resolves the anchor date for output date arithmetic.
func referenceDate(ref time.Time) time.Time {
	if ref.IsZero() {
		ref = time.Now()
	}
	return dateOf(ref)
}
