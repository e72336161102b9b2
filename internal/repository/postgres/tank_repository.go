package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/repository"
)

type tankRepository struct {
	db *DB
}

func NewTankRepository(db *DB) repository.TankRepository {
	return &tankRepository{db: db}
}

func (r *tankRepository) GetTank(ctx context.Context, tankID int64) (*domain.Tank, error) {
	query := `
		SELECT id, spbu_id, fuel_type, current_stock, capacity, updated_at
		FROM tanks
		WHERE id = $1
	`

	var tank domain.Tank
	if err := r.db.GetContext(ctx, &tank, query, tankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tank %d not found", tankID)
		}
		return nil, fmt.Errorf("error getting tank: %w", err)
	}

	return &tank, nil
}

func (r *tankRepository) GetTanksBySPBU(ctx context.Context, spbuID int64) ([]domain.Tank, error) {
	query := `
		SELECT id, spbu_id, fuel_type, current_stock, capacity, updated_at
		FROM tanks
		WHERE spbu_id = $1
		ORDER BY fuel_type ASC
	`

	var tanks []domain.Tank
	if err := r.db.SelectContext(ctx, &tanks, query, spbuID); err != nil {
		return nil, fmt.Errorf("error getting tanks: %w", err)
	}

	return tanks, nil
}
