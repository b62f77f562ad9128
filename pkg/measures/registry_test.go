package measures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

// tableMeasure builds a minimal single-component table measure
func tableMeasure(key, dataset, field string) *Measure {
	return &Measure{
		Key:  key,
		Name: key,
		Components: []Component{
			{
				ID:        key + "-c1",
				Source:    Source{Type: SourceTypeTable, Dataset: dataset, Field: field},
				SortOrder: intPtr(1),
			},
		},
	}
}

// measureRef builds a measure with a single measure-typed component
func measureRef(key, target string) *Measure {
	return &Measure{
		Key:  key,
		Name: key,
		Components: []Component{
			{
				ID:        key + "-c1",
				Source:    Source{Type: SourceTypeMeasure, Measure: target},
				SortOrder: intPtr(1),
			},
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(tableMeasure("orders_total", "orders", "qty")))

	got, err := r.Get("orders_total")
	require.NoError(t, err)
	assert.Equal(t, "orders_total", got.Key)

	_, err = r.Get("missing")
	require.ErrorIs(t, err, ErrMeasureNotFound)
}

func TestRegistryRejectsDuplicateKey(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(tableMeasure("orders_total", "orders", "qty")))
	err := r.Register(tableMeasure("orders_total", "orders", "qty"))
	require.ErrorIs(t, err, ErrDuplicateMeasure)
}

func TestRegistryValidatesOnRegister(t *testing.T) {
	tests := []struct {
		name    string
		measure *Measure
		wantErr error
	}{
		{
			name:    "missing key",
			measure: &Measure{Name: "x", Components: []Component{{ID: "c", SortOrder: intPtr(1), Source: Source{Type: SourceTypeTable, Dataset: "d", Field: "f"}}}},
			wantErr: ErrKeyRequired,
		},
		{
			name:    "no components",
			measure: &Measure{Key: "x", Name: "x"},
			wantErr: ErrNoComponents,
		},
		{
			name: "missing sortOrder",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", Source: Source{Type: SourceTypeTable, Dataset: "d", Field: "f"}},
			}},
			wantErr: ErrMissingSortOrder,
		},
		{
			name: "unknown source type",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Source: Source{Type: "view"}},
			}},
			wantErr: ErrUnknownSourceType,
		},
		{
			name: "table source without dataset",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Source: Source{Type: SourceTypeTable, Field: "f"}},
			}},
			wantErr: ErrDatasetRequired,
		},
		{
			name: "table source without field",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Source: Source{Type: SourceTypeTable, Dataset: "d"}},
			}},
			wantErr: ErrFieldRequired,
		},
		{
			name: "count aggregation does not need a field",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Aggregation: AggregationCount, Source: Source{Type: SourceTypeTable, Dataset: "d"}},
			}},
		},
		{
			name: "conditional without config",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Source: Source{Type: SourceTypeConditional}},
			}},
			wantErr: ErrConditionalConfigRequired,
		},
		{
			name: "nested conditional branch",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Source: Source{Type: SourceTypeConditional}, Conditional: &ConditionalConfig{
					PrimarySource:  Source{Type: SourceTypeConditional},
					FallbackSource: Source{Type: SourceTypeMeasure, Measure: "y"},
				}},
			}},
			wantErr: ErrNestedConditional,
		},
		{
			name: "unknown operation",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Operation: "power", Source: Source{Type: SourceTypeTable, Dataset: "d", Field: "f"}},
			}},
			wantErr: ErrUnknownOperation,
		},
		{
			name: "unknown aggregation",
			measure: &Measure{Key: "x", Name: "x", Components: []Component{
				{ID: "c", SortOrder: intPtr(1), Aggregation: "median", Source: Source{Type: SourceTypeTable, Dataset: "d", Field: "f"}},
			}},
			wantErr: ErrUnknownAggregation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.measure)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistryFinalize(t *testing.T) {
	t.Run("forward references resolve after all registrations", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(measureRef("b", "a")))
		require.NoError(t, r.Register(tableMeasure("a", "orders", "qty")))
		require.NoError(t, r.Finalize())
	})

	t.Run("unregistered reference is rejected", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(measureRef("b", "never_registered")))
		require.ErrorIs(t, r.Finalize(), ErrUnknownDependency)
	})

	t.Run("reference inside conditional branch is checked", func(t *testing.T) {
		r := NewRegistry()
		m := &Measure{Key: "cond", Name: "cond", Components: []Component{
			{
				ID:        "c1",
				SortOrder: intPtr(1),
				Source:    Source{Type: SourceTypeConditional},
				Conditional: &ConditionalConfig{
					PrimarySource:  Source{Type: SourceTypeTable, Dataset: "orders", Field: "qty"},
					FallbackSource: Source{Type: SourceTypeMeasure, Measure: "ghost"},
				},
			},
		}}
		require.NoError(t, r.Register(m))
		require.ErrorIs(t, r.Finalize(), ErrUnknownDependency)
	})
}

func TestMeasureDependencies(t *testing.T) {
	m := &Measure{Key: "net", Name: "net", Components: []Component{
		{ID: "c1", SortOrder: intPtr(2), Source: Source{Type: SourceTypeMeasure, Measure: "returns"}},
		{ID: "c2", SortOrder: intPtr(1), Source: Source{Type: SourceTypeMeasure, Measure: "gross"}},
		{
			ID:        "c3",
			SortOrder: intPtr(3),
			Source:    Source{Type: SourceTypeConditional},
			Conditional: &ConditionalConfig{
				PrimarySource:  Source{Type: SourceTypeMeasure, Measure: "actuals"},
				FallbackSource: Source{Type: SourceTypeMeasure, Measure: "gross"},
			},
		},
	}}

	assert.Equal(t, []string{"actuals", "gross", "returns"}, m.Dependencies())
}

func TestMeasureOrderedComponents(t *testing.T) {
	m := &Measure{Key: "x", Name: "x", Components: []Component{
		{ID: "third", SortOrder: intPtr(5)},
		{ID: "first", SortOrder: intPtr(1)},
		{ID: "second-a", SortOrder: intPtr(3)},
		{ID: "second-b", SortOrder: intPtr(3)}, // tie broken by declaration order
	}}

	ordered := m.OrderedComponents()
	ids := make([]string, len(ordered))
	for i := range ordered {
		ids[i] = ordered[i].ID
	}

	assert.Equal(t, []string{"first", "second-a", "second-b", "third"}, ids)
}

func TestRegistryGetAllSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(tableMeasure("zeta", "d", "f")))
	require.NoError(t, r.Register(tableMeasure("alpha", "d", "f")))
	require.NoError(t, r.Register(tableMeasure("mid", "d", "f")))

	all := r.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Key)
	assert.Equal(t, "mid", all[1].Key)
	assert.Equal(t, "zeta", all[2].Key)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Keys())
}
