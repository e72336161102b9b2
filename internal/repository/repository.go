// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/fuelops/spbu-backoffice/internal/domain"
)

// SalesRepository loads and records fuel sales. The forecast engine never
// touches the database itself; services load a history window here and pass
// it in.
type SalesRepository interface {
	// GetSalesHistory returns the raw sales for one station and fuel type
	// within the lookback window, oldest first.
	GetSalesHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.SalesPoint, error)

	// GetDailySales returns per-day per-fuel-type aggregates for one
	// station within the lookback window, oldest first.
	GetDailySales(ctx context.Context, spbuID int64, lookbackDays int) ([]domain.DailySalesRow, error)

	// RecordSale inserts a new sale and decrements the tank stock in one
	// transaction.
	RecordSale(ctx context.Context, sale domain.NewSale) error
}

// DeliveryRepository loads delivery history for the delivery planner.
type DeliveryRepository interface {
	GetDeliveryHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.DeliveryPoint, error)
}

// TankRepository loads tank snapshots.
type TankRepository interface {
	GetTank(ctx context.Context, tankID int64) (*domain.Tank, error)
	GetTanksBySPBU(ctx context.Context, spbuID int64) ([]domain.Tank, error)
}
