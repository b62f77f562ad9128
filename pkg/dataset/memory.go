package dataset

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// MemoryClient serves records from an in-memory dataset map. It backs the CLI
// eval command and tests; production deployments substitute the hosted
// tabular platform's client behind the same interface.
type MemoryClient struct {
	mu       sync.RWMutex
	datasets map[string][]Record
	fields   FieldConfig
}

// NewMemoryClient creates a client over the given datasets
func NewMemoryClient(datasets map[string][]Record, fields FieldConfig) *MemoryClient {
	if fields.Entity == "" {
		fields.Entity = "entityId"
	}
	if fields.Dimension == "" {
		fields.Dimension = "dimensionId"
	}
	if fields.Date == "" {
		fields.Date = "date"
	}

	if datasets == nil {
		datasets = make(map[string][]Record)
	}

	return &MemoryClient{datasets: datasets, fields: fields}
}

// fixtureFile is the YAML shape of a fixtures file
type fixtureFile struct {
	Datasets map[string][]Record `yaml:"datasets"`
}

// LoadFile creates a MemoryClient from a YAML fixtures file
func LoadFile(path string, fields FieldConfig) (*MemoryClient, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided fixtures path
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures file %s: %w", path, err)
	}

	return NewMemoryClient(file.Datasets, fields), nil
}

// AddRecords appends records to a dataset, creating it if needed
func (c *MemoryClient) AddRecords(dataset string, records ...Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.datasets[dataset] = append(c.datasets[dataset], records...)
}

// FetchRecords implements Client
func (c *MemoryClient) FetchRecords(_ context.Context, query Query) ([]Record, error) {
	if query.Dataset == "" {
		return nil, ErrDatasetRequired
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	records, ok := c.datasets[query.Dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, query.Dataset)
	}

	dateField := query.DateField
	if dateField == "" {
		dateField = c.fields.Date
	}

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if query.EntityID != "" && !fieldEquals(record, c.fields.Entity, query.EntityID) {
			continue
		}
		if query.DimensionID != "" && !fieldEquals(record, c.fields.Dimension, query.DimensionID) {
			continue
		}
		if !query.Window.IsZero() {
			recordDate, ok := recordTime(record, dateField)
			if !ok || !query.Window.Contains(recordDate) {
				continue
			}
		}

		matched = append(matched, record)
	}

	return matched, nil
}

var _ Client = (*MemoryClient)(nil)

func fieldEquals(record Record, field, want string) bool {
	value, ok := record[field]
	if !ok || value == nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(cast.ToString(value)), strings.TrimSpace(want))
}

// recordTime extracts a record's date, tolerating native timestamps and the
// common date string layouts
func recordTime(record Record, field string) (time.Time, bool) {
	value, ok := record[field]
	if !ok || value == nil {
		return time.Time{}, false
	}

	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}
