package postgres

import (
	"context"
	"fmt"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/repository"
)

type deliveryRepository struct {
	db *DB
}

func NewDeliveryRepository(db *DB) repository.DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) GetDeliveryHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.DeliveryPoint, error) {
	lookback := filter.LookbackDays
	if lookback <= 0 {
		lookback = 90
	}

	query := `
		SELECT fuel_type, planned_liters, actual_liters, occurred_at
		FROM deliveries
		WHERE spbu_id = $1
		  AND fuel_type = $2
		  AND occurred_at >= NOW() - ($3 || ' days')::interval
		ORDER BY occurred_at ASC
	`

	var deliveries []domain.DeliveryPoint
	if err := r.db.SelectContext(ctx, &deliveries, query, filter.SPBUID, filter.FuelType, lookback); err != nil {
		return nil, fmt.Errorf("error getting delivery history: %w", err)
	}

	return deliveries, nil
}
