// Package dataset provides access to raw tabular records for measure evaluation
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainsight/measures/pkg/timewindow"
)

var (
	// ErrDatasetNotFound is returned when a referenced dataset does not exist
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetRequired is returned when a query has no dataset key
	ErrDatasetRequired = errors.New("query requires a dataset key")
)

// Record is one flat row of tabular data
type Record = map[string]any

// Query describes one fetch: a dataset restricted to an entity, a dimension
// and a half-open date window. Empty entity/dimension and a zero window mean
// "no restriction".
type Query struct {
	Dataset     string
	EntityID    string
	DimensionID string
	Window      timewindow.Range
	DateField   string
}

// Fingerprint returns a deterministic cache key for the query
func (q Query) Fingerprint() string {
	var b strings.Builder

	fmt.Fprintf(&b, "dataset=%s|entity=%s|dimension=%s", q.Dataset, q.EntityID, q.DimensionID)
	if !q.Window.IsZero() {
		fmt.Fprintf(&b, "|window=%s", q.Window)
	}
	if q.DateField != "" {
		fmt.Fprintf(&b, "|dateField=%s", q.DateField)
	}

	return b.String()
}

// Client fetches raw records. Implementations own transport, retries and
// caching; callers only need record-level field access after the fetch.
type Client interface {
	FetchRecords(ctx context.Context, query Query) ([]Record, error)
}
