package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight/measures/pkg/dataset"
	"github.com/chainsight/measures/pkg/measures"
)

func TestAggregate(t *testing.T) {
	records := []dataset.Record{
		{"qty": 10, "region": "emea"},
		{"qty": 5, "region": "emea"},
		{"qty": "x", "region": "apac"}, // non-numeric, dropped
		{"qty": nil, "region": "apac"}, // null, dropped
		{"region": "amer"},             // field missing, dropped
	}

	tests := []struct {
		name    string
		field   string
		agg     measures.Aggregation
		records []dataset.Record
		want    float64
		wantErr error
	}{
		{name: "sum drops non-numeric", field: "qty", agg: measures.AggregationSum, records: records, want: 15},
		{name: "count ignores field", field: "qty", agg: measures.AggregationCount, records: records, want: 5},
		{name: "countDistinct over non-null values", field: "region", agg: measures.AggregationCountDistinct, records: records, want: 3},
		{name: "average of numeric values", field: "qty", agg: measures.AggregationAverage, records: records, want: 7.5},
		{name: "avg alias", field: "qty", agg: measures.AggregationAvg, records: records, want: 7.5},
		{name: "min", field: "qty", agg: measures.AggregationMin, records: records, want: 5},
		{name: "max", field: "qty", agg: measures.AggregationMax, records: records, want: 10},
		{name: "sum over empty set clamps to zero", field: "qty", agg: measures.AggregationSum, records: nil, want: 0},
		{name: "average over empty set clamps to zero", field: "qty", agg: measures.AggregationAverage, records: nil, want: 0},
		{name: "count over empty set", field: "qty", agg: measures.AggregationCount, records: nil, want: 0},
		{
			name:    "field absent from every record is a hard failure",
			field:   "missing",
			agg:     measures.AggregationSum,
			records: records,
			wantErr: ErrMissingField,
		},
		{
			name:    "string numerics coerce",
			field:   "qty",
			agg:     measures.AggregationSum,
			records: []dataset.Record{{"qty": "3.5"}, {"qty": "1.5"}},
			want:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := aggregate(tt.records, tt.field, tt.agg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
