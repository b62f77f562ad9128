package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight/measures/pkg/timewindow"
)

func juneWindow() timewindow.Range {
	return timewindow.Range{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sampleClient() *MemoryClient {
	return NewMemoryClient(map[string][]Record{
		"orders": {
			{"entityId": "e1", "dimensionId": "d1", "date": "2025-06-03", "qty": 10},
			{"entityId": "e1", "dimensionId": "d1", "date": "2025-06-30", "qty": 5},
			{"entityId": "e1", "dimensionId": "d1", "date": "2025-07-01", "qty": 7}, // end is exclusive
			{"entityId": "e1", "dimensionId": "d2", "date": "2025-06-10", "qty": 3},
			{"entityId": "E2", "dimensionId": "d1", "date": "2025-06-10", "qty": 9},
			{"entityId": "e1", "dimensionId": "d1", "qty": 1}, // no date
		},
	}, FieldConfig{})
}

func TestMemoryClientFetchRecords(t *testing.T) {
	client := sampleClient()

	t.Run("scopes by entity dimension and window", func(t *testing.T) {
		records, err := client.FetchRecords(context.Background(), Query{
			Dataset:     "orders",
			EntityID:    "e1",
			DimensionID: "d1",
			Window:      juneWindow(),
		})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 10, records[0]["qty"])
		assert.Equal(t, 5, records[1]["qty"], "records on the last day inside the window are kept")
	})

	t.Run("entity match ignores case", func(t *testing.T) {
		records, err := client.FetchRecords(context.Background(), Query{
			Dataset:  "orders",
			EntityID: "e2",
			Window:   juneWindow(),
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 9, records[0]["qty"])
	})

	t.Run("zero window includes undated records", func(t *testing.T) {
		records, err := client.FetchRecords(context.Background(), Query{
			Dataset:     "orders",
			EntityID:    "e1",
			DimensionID: "d1",
		})
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("unknown dataset is an error", func(t *testing.T) {
		_, err := client.FetchRecords(context.Background(), Query{Dataset: "ghost"})
		require.ErrorIs(t, err, ErrDatasetNotFound)
	})

	t.Run("missing dataset key is an error", func(t *testing.T) {
		_, err := client.FetchRecords(context.Background(), Query{})
		require.ErrorIs(t, err, ErrDatasetRequired)
	})
}

func TestMemoryClientNativeTimestamps(t *testing.T) {
	client := NewMemoryClient(map[string][]Record{
		"shipments": {
			{"entityId": "e1", "date": time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "qty": 2},
		},
	}, FieldConfig{})

	records, err := client.FetchRecords(context.Background(), Query{
		Dataset:  "shipments",
		EntityID: "e1",
		Window:   juneWindow(),
	})
	require.NoError(t, err)
	assert.Len(t, records, 1, "start boundary is inclusive")
}

func TestMemoryClientDateFieldOverride(t *testing.T) {
	client := NewMemoryClient(map[string][]Record{
		"approvals": {
			{"entityId": "e1", "approvedAt": "2025-06-20", "date": "2020-01-01"},
		},
	}, FieldConfig{})

	records, err := client.FetchRecords(context.Background(), Query{
		Dataset:   "approvals",
		EntityID:  "e1",
		Window:    juneWindow(),
		DateField: "approvedAt",
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadFile(t *testing.T) {
	content := `
datasets:
  orders:
    - entityId: e1
      dimensionId: d1
      date: 2025-06-03
      qty: 10
    - entityId: e1
      dimensionId: d1
      date: 2025-06-12
      qty: 4
`
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	client, err := LoadFile(path, FieldConfig{})
	require.NoError(t, err)

	records, err := client.FetchRecords(context.Background(), Query{
		Dataset:     "orders",
		EntityID:    "e1",
		DimensionID: "d1",
		Window:      juneWindow(),
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestQueryFingerprintDeterministic(t *testing.T) {
	q := Query{Dataset: "orders", EntityID: "e1", DimensionID: "d1", Window: juneWindow()}

	assert.Equal(t, q.Fingerprint(), q.Fingerprint())
	assert.NotEqual(t, q.Fingerprint(), Query{Dataset: "orders", EntityID: "e2"}.Fingerprint())
}
