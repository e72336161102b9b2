// internal/forecast/types.go
package forecast

import "time"

// TrendDirection classifies the consumption trend over the history window.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// ConfidenceLevel is the coarse bucket derived from a confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Urgency classifies how soon a delivery is needed.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// NoStockoutSentinelDays is the reserved day count meaning "no foreseeable
// stockout". Every day-estimate and blended result is capped here.
const NoStockoutSentinelDays = 999

// Blend weights shared by the stockout predictor and the demand forecaster.
// These are load-bearing business policy and must sum to exactly 1.0.
const (
	WeightSimple   = 0.30
	WeightMA7      = 0.25
	WeightEMA      = 0.25
	WeightTrend    = 0.15
	WeightSeasonal = 0.05
)

// Method names used as keys in per-method breakdowns.
const (
	MethodSimple   = "simple"
	MethodMA7      = "ma7"
	MethodEMA      = "ema"
	MethodTrend    = "trend"
	MethodSeasonal = "seasonal"
)

const (
	emaAlpha        = 0.3
	trendWindowDays = 14
	trendHorizonDays = 7

	// trendSlopeEpsilon is the minimum |slope| in liters/day per day before
	// the trend is classified as increasing or decreasing.
	trendSlopeEpsilon = 0.1

	// seasonalPlaceholderFactor stays at 1.0 until a real seasonal
	// multiplier is derived; detection still runs so the method keeps its
	// slot in the breakdown.
	seasonalPlaceholderFactor = 1.0
)

// Confidence ladder shared by the stockout predictor and demand forecaster.
const (
	confidenceBase          = 0.5
	confidenceBonusVolume   = 0.20 // at least 30 data points
	confidenceBonusStable   = 0.15 // coefficient of variation below 0.5
	confidenceBonusTrend    = 0.10 // non-stable trend detected
	confidenceBonusBounded  = 0.05 // result strictly inside (0, 999)
	confidenceMinDataPoints = 30
	confidenceMaxCV         = 0.5

	confidenceLevelHigh   = 0.8
	confidenceLevelMedium = 0.6
)

// Delivery-planner policy constants.
const (
	safetyStockDaysCover     = 2.0
	safetyStockServiceZ      = 1.65 // 95% service level
	deliveryTriggerMultiple  = 1.5
	deliveryFillTarget       = 0.95
	defaultSupplierLeadDays  = 2
	defaultHistoricalAccuracy = 75.0
	defaultVolumeConsistency  = 50.0
	defaultFrequencyDays      = 7.0
	defaultSeasonalStability  = 80.0
	defaultSupplierReliability = 90.0

	deliveryWeightAccuracy    = 0.30
	deliveryWeightConsistency = 0.25
	deliveryWeightSeasonal    = 0.20
	deliveryWeightSupplier    = 0.25
)

// StockoutOptions configures PredictStockout. Use DefaultStockoutOptions and
// override fields rather than constructing a zero value.
type StockoutOptions struct {
	PredictionHorizonDays int
	ConfidenceThreshold   float64
	IncludeSeasonality    bool
	IncludeTrendAnalysis  bool

	// ReferenceTime anchors "today" for date arithmetic. The zero value
	// means time.Now(); tests pin it for reproducible output.
	ReferenceTime time.Time
}

// DefaultStockoutOptions returns the production defaults.
func DefaultStockoutOptions() StockoutOptions {
	return StockoutOptions{
		PredictionHorizonDays: 30,
		ConfidenceThreshold:   0.7,
		IncludeSeasonality:    true,
		IncludeTrendAnalysis:  true,
	}
}

// ConsumptionStats summarizes the daily consumption series underlying a
// prediction, surfaced for UI transparency.
type ConsumptionStats struct {
	AvgDailyConsumption float64 `json:"avg_daily_consumption"`
	StdDev              float64 `json:"std_dev"`
	DataPointCount      int     `json:"data_point_count"`
}

// StockoutPrediction is the result of PredictStockout.
type StockoutPrediction struct {
	DaysUntilStockout     int            `json:"days_until_stockout"`
	PredictedStockoutDate *time.Time     `json:"predicted_stockout_date"`
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	ConfidenceScore       float64        `json:"confidence_score"`
	ConsumptionTrend      TrendDirection `json:"consumption_trend"`
	MethodBreakdown       map[string]int `json:"method_breakdown"`
	Stats                 ConsumptionStats `json:"stats"`
}

// DeliveryParams is the input to PlanDelivery. Consumption statistics are
// supplied by the caller, typically from a prior stockout prediction.
type DeliveryParams struct {
	FuelType             string
	CurrentStock         float64
	TankCapacity         float64
	AvgDailyConsumption  float64
	StdDevConsumption    float64
	DeliveryHistory      []DeliveryRecord
	SupplierLeadTimeDays int

	// ReferenceTime anchors "today"; zero means time.Now().
	ReferenceTime time.Time
}

// DeliveryRecord is the slim delivery-history shape the planner consumes.
type DeliveryRecord struct {
	PlannedLiters float64
	ActualLiters  *float64
	OccurredAt    time.Time
}

// DateWindow is an inclusive earliest/latest date pair.
type DateWindow struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// DeliveryRecommendation is the result of PlanDelivery.
type DeliveryRecommendation struct {
	RecommendedVolume       float64    `json:"recommended_volume"`
	RecommendedDeliveryDate time.Time  `json:"recommended_delivery_date"`
	RecommendedOrderDate    time.Time  `json:"recommended_order_date"`
	DeliveryWindow          DateWindow `json:"delivery_window"`
	Urgency                 Urgency    `json:"urgency"`
	Confidence              int        `json:"confidence"`
	SafetyStock             float64    `json:"safety_stock"`
}

// DemandOptions configures ForecastDemand.
type DemandOptions struct {
	PredictionDays       int
	IncludeSeasonality   bool
	IncludeTrendAnalysis bool

	// ReferenceTime anchors "today"; zero means time.Now().
	ReferenceTime time.Time
}

// DefaultDemandOptions returns the production defaults.
func DefaultDemandOptions() DemandOptions {
	return DemandOptions{
		PredictionDays:       7,
		IncludeSeasonality:   true,
		IncludeTrendAnalysis: true,
	}
}

// FuelTypeForecast is one fuel type's forecast for one day.
type FuelTypeForecast struct {
	PredictedVolume float64        `json:"predicted_volume"`
	Confidence      float64        `json:"confidence"`
	Trend           TrendDirection `json:"trend"`
	SeasonalFactor  float64        `json:"seasonal_factor"`
}

// DemandForecastDay is one day of the short-horizon demand forecast.
type DemandForecastDay struct {
	Date        time.Time                   `json:"date"`
	DayName     string                      `json:"day_name"`
	PerFuelType map[string]FuelTypeForecast `json:"per_fuel_type"`
}
