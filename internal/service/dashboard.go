package service

import "github.com/fuelops/spbu-backoffice/internal/forecast"

// DashboardRole selects which dashboard aggregation path is in effect.
// Super-admin aggregates across stations; admin and operator see one station.
type DashboardRole string

const (
	RoleSuperAdmin DashboardRole = "super_admin"
	RoleAdmin      DashboardRole = "admin"
	RoleOperator   DashboardRole = "operator"
)

// ParseDashboardRole maps a request parameter onto a role, defaulting to
// operator for anything unrecognized.
func ParseDashboardRole(s string) DashboardRole {
	switch DashboardRole(s) {
	case RoleSuperAdmin, RoleAdmin, RoleOperator:
		return DashboardRole(s)
	default:
		return RoleOperator
	}
}

// TankForecast is one tank's row on the dashboard: the raw engine output
// plus the display fields the UI renders.
type TankForecast struct {
	TankID            int64                       `json:"tank_id"`
	FuelType          string                      `json:"fuel_type"`
	CurrentStock      float64                     `json:"current_stock"`
	Capacity          float64                     `json:"capacity"`
	FillPercentage    float64                     `json:"fill_percentage"`
	DaysUntilStockout int                         `json:"days_until_stockout"`
	Prediction        forecast.StockoutPrediction `json:"prediction"`
}

// DashboardSummary is the aggregated forecast view for one station.
type DashboardSummary struct {
	SPBUID        int64          `json:"spbu_id"`
	Tanks         []TankForecast `json:"tanks"`
	CriticalTanks int            `json:"critical_tanks"`
}
