package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/storage"
)

type capturingStore struct {
	keys []string
	data [][]byte
}

func (s *capturingStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *capturingStore) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (s *capturingStore) UploadObject(ctx context.Context, key string, data []byte) error {
	s.keys = append(s.keys, key)
	s.data = append(s.data, data)
	return nil
}

func sampleUpdate(tankID int64) domain.ForecastUpdate {
	return domain.ForecastUpdate{
		SPBUID:            7,
		TankID:            tankID,
		FuelType:          "pertalite",
		RecalcAt:          time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC),
		DaysUntilStockout: 12,
	}
}

func TestFlush_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	exp := NewSnapshotExporter(dir, nil)

	exp.HandleUpdate(context.Background(), sampleUpdate(1))
	exp.HandleUpdate(context.Background(), sampleUpdate(2))
	require.NoError(t, exp.Flush(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"7", "1", "pertalite", "12", "2025-06-01T10:00:00Z"}, rows[1])
	assert.Equal(t, "2", rows[2][1])
}

func TestFlush_EmptyBufferWritesNothing(t *testing.T) {
	dir := t.TempDir()
	exp := NewSnapshotExporter(dir, nil)

	require.NoError(t, exp.Flush(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFlush_UploadsToObjectStorage(t *testing.T) {
	dir := t.TempDir()
	store := &capturingStore{}
	exp := NewSnapshotExporter(dir, store)

	exp.HandleUpdate(context.Background(), sampleUpdate(1))
	require.NoError(t, exp.Flush(context.Background()))

	require.Len(t, store.keys, 1)
	assert.Contains(t, store.keys[0], "snapshots/forecast_updates_")
	assert.Contains(t, string(store.data[0]), "pertalite")
}

func TestHandleUpdate_FlushesWhenBatchFull(t *testing.T) {
	dir := t.TempDir()
	exp := NewSnapshotExporter(dir, nil)
	exp.flushSize = 3

	for i := int64(1); i <= 3; i++ {
		exp.HandleUpdate(context.Background(), sampleUpdate(i))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "batch of flushSize updates should flush automatically")
}
