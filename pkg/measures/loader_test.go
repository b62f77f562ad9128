package measures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const measureListYAML = `
measures:
  - key: orders_total
    name: Total Ordered Quantity
    components:
      - id: base
        sortOrder: 1
        source:
          type: table
          dataset: orders
          field: qty
  - key: net_orders
    name: Net Orders
    metadata:
      category: fulfillment
      unit: units
      tags: [core, orders]
    components:
      - id: gross
        sortOrder: 1
        operation: sum
        source:
          type: measure
          measure: orders_total
      - id: returns
        sortOrder: 2
        operation: subtract
        aggregation: sum
        filters:
          logic: AND
          conditions:
            - column: status
              operator: equals
              value: returned
        source:
          type: table
          dataset: returns
          field: qty
`

const singleMeasureYAML = `
key: shipments_ytd
name: Shipments Year To Date
timeIntelligence:
  type: ytd
components:
  - id: base
    sortOrder: 1
    aggregation: count
    source:
      type: table
      dataset: shipments
`

func TestParseDefinitions(t *testing.T) {
	t.Run("measure list", func(t *testing.T) {
		parsed, err := ParseDefinitions([]byte(measureListYAML))
		require.NoError(t, err)
		require.Len(t, parsed, 2)

		assert.Equal(t, "orders_total", parsed[0].Key)
		assert.Equal(t, "net_orders", parsed[1].Key)
		assert.Equal(t, []string{"core", "orders"}, parsed[1].Tags())

		returns := parsed[1].Components[1]
		assert.Equal(t, OperationSubtract, returns.EffectiveOperation())
		require.NotNil(t, returns.Filters)
		require.Len(t, returns.Filters.Conditions, 1)
		assert.Equal(t, "status", returns.Filters.Conditions[0].Column)
	})

	t.Run("single measure document", func(t *testing.T) {
		parsed, err := ParseDefinitions([]byte(singleMeasureYAML))
		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, "shipments_ytd", parsed[0].Key)
		require.NotNil(t, parsed[0].TimeIntelligence)
		assert.Equal(t, AggregationCount, parsed[0].Components[0].EffectiveAggregation())
	})

	t.Run("garbage content", func(t *testing.T) {
		_, err := ParseDefinitions([]byte(":\n:::"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), []byte(measureListYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shipments.yml"), []byte(singleMeasureYAML), 0o600))
	// Non-YAML files are ignored by discovery
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600))

	registry, err := Load(&Config{Paths: []string{dir}}, logrus.New())
	require.NoError(t, err)

	assert.Equal(t, 3, registry.Len())
	assert.Equal(t, []string{"net_orders", "orders_total", "shipments_ytd"}, registry.Keys())
}

func TestLoadRejectsUnresolvableReference(t *testing.T) {
	dir := t.TempDir()
	content := `
key: broken
name: Broken
components:
  - id: ref
    sortOrder: 1
    source:
      type: measure
      measure: does_not_exist
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(content), 0o600))

	_, err := Load(&Config{Paths: []string{dir}}, logrus.New())
	require.ErrorIs(t, err, ErrUnknownDependency)
}

func TestLoadSkipsMissingPath(t *testing.T) {
	registry, err := Load(&Config{Paths: []string{filepath.Join(t.TempDir(), "nope")}}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
}
