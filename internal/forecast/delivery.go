// internal/forecast/delivery.go
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/forecast/timeseries"
)

// deliveryHistoryStats summarizes past deliveries for confidence scoring.
type deliveryHistoryStats struct {
	historicalAccuracy float64 // 0-100, planned vs actual volume
	volumeConsistency  float64 // 0-100, inverse coefficient of variation
	avgFrequencyDays   float64 // mean gap between consecutive deliveries
}

// PlanDelivery recommends a delivery volume and timing window from the
// tank's consumption statistics and past delivery performance. Like the
// other predictors it never fails: missing history falls back to fixed
// defaults.
func PlanDelivery(params DeliveryParams) DeliveryRecommendation {
	today := referenceDate(params.ReferenceTime)

	leadTime := params.SupplierLeadTimeDays
	if leadTime <= 0 {
		leadTime = defaultSupplierLeadDays
	}

	avg := params.AvgDailyConsumption
	if !isFinite(avg) || avg < 0 {
		avg = 0
	}
	stdDev := params.StdDevConsumption
	if !isFinite(stdDev) || stdDev < 0 {
		stdDev = 0
	}

	safetyStock := math.Round(safetyStockDaysCover*avg + safetyStockServiceZ*stdDev)
	history := analyzeDeliveryHistory(params.DeliveryHistory)

	daysUntilStockout := daysAboveLevel(params.CurrentStock, safetyStock, avg)
	daysUntilThreshold := daysAboveLevel(params.CurrentStock, deliveryTriggerMultiple*safetyStock, avg)

	deliveryDate := today.AddDate(0, 0, maxInt(1, daysUntilThreshold))
	orderDate := deliveryDate.AddDate(0, 0, -leadTime)

	volume := math.Round(deliveryFillTarget*params.TankCapacity - params.CurrentStock + avg*float64(leadTime))
	if volume < 0 || !isFinite(volume) {
		volume = 0
	}

	confidence := deliveryWeightAccuracy*history.historicalAccuracy +
		deliveryWeightConsistency*history.volumeConsistency +
		deliveryWeightSeasonal*defaultSeasonalStability +
		deliveryWeightSupplier*defaultSupplierReliability

	return DeliveryRecommendation{
		RecommendedVolume:       volume,
		RecommendedDeliveryDate: deliveryDate,
		RecommendedOrderDate:    orderDate,
		DeliveryWindow: DateWindow{
			Earliest: deliveryDate.AddDate(0, 0, -1),
			Latest:   deliveryDate.AddDate(0, 0, 1),
		},
		Urgency:     urgencyForDays(daysUntilStockout),
		Confidence:  clampInt(int(math.Round(confidence)), 0, 100),
		SafetyStock: safetyStock,
	}
}

// daysAboveLevel is floor((stock - level) / rate), with the 999 sentinel for
// a non-positive rate.
func daysAboveLevel(stock, level, rate float64) int {
	if rate <= 0 {
		return NoStockoutSentinelDays
	}
	days := int(math.Floor((stock - level) / rate))
	if days > NoStockoutSentinelDays {
		return NoStockoutSentinelDays
	}
	return days
}

// analyzeDeliveryHistory derives accuracy, consistency, and frequency from
// past deliveries, with fixed defaults when history is missing.
func analyzeDeliveryHistory(history []DeliveryRecord) deliveryHistoryStats {
	stats := deliveryHistoryStats{
		historicalAccuracy: defaultHistoricalAccuracy,
		volumeConsistency:  defaultVolumeConsistency,
		avgFrequencyDays:   defaultFrequencyDays,
	}
	if len(history) == 0 {
		return stats
	}

	volumes := make([]float64, 0, len(history))
	for _, d := range history {
		v := d.PlannedLiters
		if d.ActualLiters != nil {
			v = *d.ActualLiters
		}
		volumes = append(volumes, v)
	}

	avgVolume := timeseries.Mean(volumes)
	if avgVolume > 0 {
		cv := timeseries.PopStdDev(volumes) / avgVolume
		stats.volumeConsistency = clampFloat(100*(1-cv), 0, 100)
	}

	if acc, ok := historicalAccuracy(history); ok {
		stats.historicalAccuracy = acc
	}

	if freq, ok := averageIntervalDays(history); ok {
		stats.avgFrequencyDays = freq
	}

	return stats
}

// historicalAccuracy averages 100 - |actual-planned|/planned*100 over the
// entries where both volumes are known, each clamped to [0, 100].
func historicalAccuracy(history []DeliveryRecord) (float64, bool) {
	var sum float64
	var n int
	for _, d := range history {
		if d.ActualLiters == nil || d.PlannedLiters <= 0 {
			continue
		}
		deviation := math.Abs(*d.ActualLiters-d.PlannedLiters) / d.PlannedLiters * 100
		sum += clampFloat(100-deviation, 0, 100)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// averageIntervalDays is the mean gap in days between consecutive deliveries
// sorted by timestamp. Needs at least two deliveries.
func averageIntervalDays(history []DeliveryRecord) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}

	times := make([]time.Time, len(history))
	for i, d := range history {
		times[i] = d.OccurredAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var total float64
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1]).Hours() / 24
	}
	return total / float64(len(times)-1), true
}

// urgencyForDays maps days-until-stockout onto the coarse urgency scale.
func urgencyForDays(days int) Urgency {
	switch {
	case days <= 1:
		return UrgencyCritical
	case days <= 3:
		return UrgencyHigh
	case days <= 7:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
