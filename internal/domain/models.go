// internal/domain/models.go
package domain

import "time"

// SPBU represents one managed fuel station
type SPBU struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SalesPoint is one historical fuel sale. Immutable once recorded; the
// forecasting engine receives slices of these and never mutates them.
type SalesPoint struct {
	FuelType   string    `json:"fuel_type" db:"fuel_type"`
	Liters     float64   `json:"liters" db:"liters"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// DeliveryPoint is one historical delivery. ActualLiters is nil while a
// delivery is still in transit.
type DeliveryPoint struct {
	FuelType      string    `json:"fuel_type" db:"fuel_type"`
	PlannedLiters float64   `json:"planned_liters" db:"planned_liters"`
	ActualLiters  *float64  `json:"actual_liters,omitempty" db:"actual_liters"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
}

// TankState is a point-in-time snapshot of one tank
type TankState struct {
	FuelType     string  `json:"fuel_type" db:"fuel_type"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
	Capacity     float64 `json:"capacity" db:"capacity"`
}

// Tank is the persisted tank row
type Tank struct {
	ID           int64     `json:"id" db:"id"`
	SPBUID       int64     `json:"spbu_id" db:"spbu_id"`
	FuelType     string    `json:"fuel_type" db:"fuel_type"`
	CurrentStock float64   `json:"current_stock" db:"current_stock"`
	Capacity     float64   `json:"capacity" db:"capacity"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FuelTypeSales is the per-fuel-type slice of one aggregated sales day
type FuelTypeSales struct {
	FuelType     string  `json:"fuel_type" db:"fuel_type"`
	Liters       float64 `json:"liters" db:"liters"`
	Transactions int     `json:"transactions" db:"transactions"`
}

// DailySalesRow is one calendar day of sales grouped by fuel type, the
// input shape consumed by the demand forecaster
type DailySalesRow struct {
	Date      time.Time       `json:"date"`
	FuelTypes []FuelTypeSales `json:"fuel_types"`
}

// SalesFilter selects the history window for forecast inputs
type SalesFilter struct {
	SPBUID       int64  `json:"spbu_id"`
	FuelType     string `json:"fuel_type"`
	LookbackDays int    `json:"lookback_days"`
}

// NewSale is the write payload for recording a sale; recording one
// triggers forecast recalculation for the affected tank.
type NewSale struct {
	SPBUID     int64     `json:"spbu_id" binding:"required"`
	TankID     int64     `json:"tank_id" binding:"required"`
	FuelType   string    `json:"fuel_type" binding:"required"`
	Liters     float64   `json:"liters" binding:"required"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ForecastUpdate is the pub/sub payload broadcast after a recalculation
type ForecastUpdate struct {
	SPBUID      int64     `json:"spbu_id"`
	TankID      int64     `json:"tank_id"`
	FuelType    string    `json:"fuel_type"`
	RecalcAt    time.Time `json:"recalc_at"`
	DaysUntilStockout int `json:"days_until_stockout"`
}
