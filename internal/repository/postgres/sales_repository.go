package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/repository"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSalesHistory(ctx context.Context, filter domain.SalesFilter) ([]domain.SalesPoint, error) {
	lookback := filter.LookbackDays
	if lookback <= 0 {
		lookback = 60
	}

	query := `
		SELECT fuel_type, liters, occurred_at
		FROM sales
		WHERE spbu_id = $1
		  AND fuel_type = $2
		  AND occurred_at >= NOW() - ($3 || ' days')::interval
		ORDER BY occurred_at ASC
	`

	var sales []domain.SalesPoint
	if err := r.db.SelectContext(ctx, &sales, query, filter.SPBUID, filter.FuelType, lookback); err != nil {
		return nil, fmt.Errorf("error getting sales history: %w", err)
	}

	return sales, nil
}

// dailySalesRow is the flat scan target for the grouped query; rows are
// folded into domain.DailySalesRow by date afterwards.
type dailySalesRow struct {
	Date         time.Time `db:"sale_date"`
	FuelType     string    `db:"fuel_type"`
	Liters       float64   `db:"liters"`
	Transactions int       `db:"transactions"`
}

func (r *salesRepository) GetDailySales(ctx context.Context, spbuID int64, lookbackDays int) ([]domain.DailySalesRow, error) {
	if lookbackDays <= 0 {
		lookbackDays = 60
	}

	query := `
		SELECT
			DATE(occurred_at) AS sale_date,
			fuel_type,
			SUM(liters) AS liters,
			COUNT(*) AS transactions
		FROM sales
		WHERE spbu_id = $1
		  AND occurred_at >= NOW() - ($2 || ' days')::interval
		GROUP BY DATE(occurred_at), fuel_type
		ORDER BY sale_date ASC, fuel_type ASC
	`

	var rows []dailySalesRow
	if err := r.db.SelectContext(ctx, &rows, query, spbuID, lookbackDays); err != nil {
		return nil, fmt.Errorf("error getting daily sales: %w", err)
	}

	var result []domain.DailySalesRow
	for _, row := range rows {
		if len(result) == 0 || !result[len(result)-1].Date.Equal(row.Date) {
			result = append(result, domain.DailySalesRow{Date: row.Date})
		}
		last := &result[len(result)-1]
		last.FuelTypes = append(last.FuelTypes, domain.FuelTypeSales{
			FuelType:     row.FuelType,
			Liters:       row.Liters,
			Transactions: row.Transactions,
		})
	}

	return result, nil
}

func (r *salesRepository) RecordSale(ctx context.Context, sale domain.NewSale) error {
	occurredAt := sale.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales (spbu_id, tank_id, fuel_type, liters, occurred_at, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, sale.SPBUID, sale.TankID, sale.FuelType, sale.Liters, occurredAt)
		if err != nil {
			return fmt.Errorf("error inserting sale: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE tanks
			SET current_stock = GREATEST(0, current_stock - $1), updated_at = NOW()
			WHERE id = $2
		`, sale.Liters, sale.TankID)
		if err != nil {
			return fmt.Errorf("error updating tank stock: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error checking tank update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("tank %d not found", sale.TankID)
		}
		return nil
	})
}
