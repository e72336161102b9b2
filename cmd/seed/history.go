package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// seedSPBUs upserts stations from spbus.csv (code,name).
func seedSPBUs(ctx context.Context, tx *sql.Tx, dataDir string) error {
	path := filepath.Join(dataDir, "spbus.csv")
	log.Printf("Seeding spbus from %s\n", path)

	const query = `
		INSERT INTO spbus (code, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
	`

	count := 0
	err := forEachRecord(path, func(record []string) error {
		if len(record) < 2 {
			return fmt.Errorf("invalid spbu record (expected code,name): %v", record)
		}
		if _, err := tx.ExecContext(ctx, query, strings.TrimSpace(record[0]), strings.TrimSpace(record[1])); err != nil {
			return fmt.Errorf("failed to upsert spbu %s: %w", record[0], err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded spbus (%d records)\n", count)
	return nil
}

// seedTanks upserts tanks from tanks.csv (spbu_code,fuel_type,capacity,current_stock).
func seedTanks(ctx context.Context, tx *sql.Tx, dataDir string) error {
	path := filepath.Join(dataDir, "tanks.csv")
	log.Printf("Seeding tanks from %s\n", path)

	const query = `
		INSERT INTO tanks (spbu_id, fuel_type, capacity, current_stock, updated_at)
		SELECT s.id, $2, $3, $4, NOW()
		FROM spbus s
		WHERE s.code = $1
		ON CONFLICT (spbu_id, fuel_type) DO UPDATE SET
			capacity = EXCLUDED.capacity,
			current_stock = EXCLUDED.current_stock,
			updated_at = NOW()
	`

	count := 0
	err := forEachRecord(path, func(record []string) error {
		if len(record) < 4 {
			return fmt.Errorf("invalid tank record (expected 4 columns): %v", record)
		}

		capacity, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return fmt.Errorf("invalid capacity %q: %w", record[2], err)
		}
		stock, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return fmt.Errorf("invalid current_stock %q: %w", record[3], err)
		}

		res, err := tx.ExecContext(ctx, query, strings.TrimSpace(record[0]), strings.TrimSpace(record[1]), capacity, stock)
		if err != nil {
			return fmt.Errorf("failed to upsert tank %s/%s: %w", record[0], record[1], err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("spbu code %s not found for tank %s", record[0], record[1])
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded tanks (%d records)\n", count)
	return nil
}

// seedSales loads sales.csv (spbu_code,fuel_type,liters,occurred_at).
func seedSales(ctx context.Context, db *sql.DB, dataDir string) error {
	path := filepath.Join(dataDir, "sales.csv")
	log.Printf("Seeding sales from %s\n", path)

	spbuIDs, err := loadSPBUCodeMap(ctx, db)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO sales (spbu_id, tank_id, fuel_type, liters, occurred_at, created_at)
		SELECT t.spbu_id, t.id, $2, $3, $4, NOW()
		FROM tanks t
		WHERE t.spbu_id = $1 AND t.fuel_type = $2
	`

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare sales statement: %w", err)
	}
	defer stmt.Close()

	rowCount := 0
	err = forEachRecord(path, func(record []string) error {
		if len(record) < 4 {
			return fmt.Errorf("invalid sales record (expected 4 columns): %v", record)
		}

		code := strings.TrimSpace(record[0])
		spbuID, ok := spbuIDs[code]
		if !ok {
			return fmt.Errorf("spbu code %s not found", code)
		}

		liters, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return fmt.Errorf("invalid liters %q: %w", record[2], err)
		}
		occurredAt, err := parseTimestamp(record[3])
		if err != nil {
			return err
		}

		res, err := stmt.ExecContext(ctx, spbuID, strings.TrimSpace(record[1]), liters, occurredAt)
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("no tank for spbu %s fuel type %s", code, record[1])
		}

		rowCount++
		if rowCount%5000 == 0 {
			log.Printf("Seeded %d sales...", rowCount)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded sales (%d records)\n", rowCount)
	return nil
}

// seedDeliveries loads deliveries.csv
// (spbu_code,fuel_type,planned_liters,actual_liters,occurred_at).
// actual_liters may be empty for in-transit deliveries.
func seedDeliveries(ctx context.Context, db *sql.DB, dataDir string) error {
	path := filepath.Join(dataDir, "deliveries.csv")
	log.Printf("Seeding deliveries from %s\n", path)

	spbuIDs, err := loadSPBUCodeMap(ctx, db)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO deliveries (spbu_id, fuel_type, planned_liters, actual_liters, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare deliveries statement: %w", err)
	}
	defer stmt.Close()

	rowCount := 0
	err = forEachRecord(path, func(record []string) error {
		if len(record) < 5 {
			return fmt.Errorf("invalid delivery record (expected 5 columns): %v", record)
		}

		code := strings.TrimSpace(record[0])
		spbuID, ok := spbuIDs[code]
		if !ok {
			return fmt.Errorf("spbu code %s not found", code)
		}

		planned, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return fmt.Errorf("invalid planned_liters %q: %w", record[2], err)
		}
		actual, err := parseNullableFloat(record[3])
		if err != nil {
			return fmt.Errorf("invalid actual_liters: %w", err)
		}
		occurredAt, err := parseTimestamp(record[4])
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, spbuID, strings.TrimSpace(record[1]), planned, actual, occurredAt); err != nil {
			return fmt.Errorf("failed to insert delivery: %w", err)
		}
		rowCount++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded deliveries (%d records)\n", rowCount)
	return nil
}

// forEachRecord streams a headered CSV file through fn.
func forEachRecord(path string, fn func(record []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func loadSPBUCodeMap(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	rows, err := db.QueryContext(ctx, "SELECT code, id FROM spbus")
	if err != nil {
		return nil, fmt.Errorf("failed to load spbu codes: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var (
			code string
			id   int64
		)
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("failed to scan spbu codes: %w", err)
		}
		result[code] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spbu codes: %w", err)
	}

	return result, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func parseNullableFloat(value string) (sql.NullFloat64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullFloat64{}, nil
	}

	cleaned := strings.ReplaceAll(value, ",", "")
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid float value %s: %w", value, err)
	}

	return sql.NullFloat64{Float64: num, Valid: true}, nil
}
