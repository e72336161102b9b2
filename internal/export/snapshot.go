// Package export buffers forecast updates and flushes them as CSV snapshots,
// locally and optionally to S3-compatible object storage. Downstream BI jobs
// consume the uploaded files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/storage"
)

const defaultFlushSize = 100

var csvHeader = []string{"spbu_id", "tank_id", "fuel_type", "days_until_stockout", "recalc_at"}

// SnapshotExporter accumulates forecast updates and writes them out in
// batches. Safe for concurrent use.
type SnapshotExporter struct {
	dir       string
	store     storage.ObjectStorage
	flushSize int

	mu     sync.Mutex
	buffer []domain.ForecastUpdate
}

// NewSnapshotExporter writes snapshots under dir. store may be nil, in which
// case snapshots stay local.
func NewSnapshotExporter(dir string, store storage.ObjectStorage) *SnapshotExporter {
	return &SnapshotExporter{
		dir:       dir,
		store:     store,
		flushSize: defaultFlushSize,
	}
}

// HandleUpdate buffers one update, flushing when the batch is full.
func (e *SnapshotExporter) HandleUpdate(ctx context.Context, update domain.ForecastUpdate) {
	e.mu.Lock()
	e.buffer = append(e.buffer, update)
	full := len(e.buffer) >= e.flushSize
	e.mu.Unlock()

	if full {
		if err := e.Flush(ctx); err != nil {
			log.Error().Err(err).Msg("snapshot flush failed")
		}
	}
}

// Flush writes all buffered updates to a timestamped CSV file and uploads it
// when object storage is configured. A failed upload keeps the local file.
func (e *SnapshotExporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	batch := e.buffer
	e.buffer = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	name := fmt.Sprintf("forecast_updates_%s.csv", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(e.dir, name)

	if err := writeSnapshotCSV(path, batch); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("rows", len(batch)).Msg("snapshot written")

	if e.store == nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	key := "snapshots/" + name
	if err := e.store.UploadObject(ctx, key, data); err != nil {
		return fmt.Errorf("uploading snapshot %s: %w", key, err)
	}
	log.Info().Str("key", key).Msg("snapshot uploaded")
	return nil
}

func writeSnapshotCSV(path string, batch []domain.ForecastUpdate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	for _, u := range batch {
		record := []string{
			strconv.FormatInt(u.SPBUID, 10),
			strconv.FormatInt(u.TankID, 10),
			u.FuelType,
			strconv.Itoa(u.DaysUntilStockout),
			u.RecalcAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing snapshot row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
