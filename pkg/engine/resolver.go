package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/chainsight/measures/pkg/dataset"
	"github.com/chainsight/measures/pkg/measures"
	"github.com/chainsight/measures/pkg/observability"
)

// resolveComponent produces one numeric value for a component. Any failure is
// wrapped in a ResolutionError naming the owning measure and the component.
func (ev *evaluation) resolveComponent(ctx context.Context, m *measures.Measure, c *measures.Component) (float64, error) {
	value, err := ev.resolveSource(ctx, m, c, c.Source)

	status := "success"
	if err != nil {
		status = "failed"
	}
	observability.ComponentResolutionsTotal.WithLabelValues(string(c.Source.Type), status).Inc()

	if err != nil {
		return 0, newResolutionError(m.Key, c.ID, err)
	}

	return value, nil
}

func (ev *evaluation) resolveSource(ctx context.Context, m *measures.Measure, c *measures.Component, src measures.Source) (float64, error) {
	switch src.Type {
	case measures.SourceTypeTable:
		records, err := ev.fetchFiltered(ctx, m, c, src)
		if err != nil {
			return 0, err
		}
		return aggregate(records, src.Field, c.EffectiveAggregation())
	case measures.SourceTypeMeasure:
		return ev.evaluateMeasure(ctx, src.Measure)
	case measures.SourceTypeConditional:
		return ev.resolveConditional(ctx, m, c)
	default:
		return 0, fmt.Errorf("%w: %q", measures.ErrUnknownSourceType, src.Type)
	}
}

// resolveConditional checks every declared predicate against the context and
// resolves the primary source when all hold, the fallback otherwise.
func (ev *evaluation) resolveConditional(ctx context.Context, m *measures.Measure, c *measures.Component) (float64, error) {
	cfg := c.Conditional
	preds := cfg.Conditions
	now := ev.exec.now()

	usePrimary := true
	if preds.IsPastMonth != nil && ev.mctx.IsPastMonth(now) != *preds.IsPastMonth {
		usePrimary = false
	}
	if preds.IsFutureMonth != nil && ev.mctx.IsFutureMonth(now) != *preds.IsFutureMonth {
		usePrimary = false
	}
	if preds.IsCurrentMonth != nil && ev.mctx.IsCurrentMonth(now) != *preds.IsCurrentMonth {
		usePrimary = false
	}

	// hasData is probed last: the calendar predicates are free, the probe
	// may hit the data source
	if usePrimary && preds.HasData != nil {
		hasData, err := ev.probeHasData(ctx, m, c, cfg.PrimarySource)
		if err != nil {
			return 0, err
		}
		if hasData != *preds.HasData {
			usePrimary = false
		}
	}

	if usePrimary {
		return ev.resolveSource(ctx, m, c, cfg.PrimarySource)
	}

	return ev.resolveSource(ctx, m, c, cfg.FallbackSource)
}

// probeHasData checks whether the source's underlying resolution would see
// any records. Table sources fetch and filter without aggregating; measure
// sources are evaluated through the memo table, so the probe's work is
// retained if the branch is taken.
func (ev *evaluation) probeHasData(ctx context.Context, m *measures.Measure, c *measures.Component, src measures.Source) (bool, error) {
	switch src.Type {
	case measures.SourceTypeTable:
		records, err := ev.fetchFiltered(ctx, m, c, src)
		if err != nil {
			return false, err
		}
		return len(records) > 0, nil
	case measures.SourceTypeMeasure:
		if _, err := ev.evaluateMeasure(ctx, src.Measure); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", measures.ErrUnknownSourceType, src.Type)
	}
}

// fetchFiltered fetches the raw records for a table source, scoped to the
// context's entity, dimension and resolved date window, then applies the
// component's filters and any caller-supplied extra filters.
func (ev *evaluation) fetchFiltered(ctx context.Context, m *measures.Measure, c *measures.Component, src measures.Source) ([]dataset.Record, error) {
	// Component time intelligence overrides the measure's, which overrides
	// the context's
	ti := c.TimeIntelligence
	if ti == nil {
		ti = m.TimeIntelligence
	}
	if ti == nil {
		ti = ev.mctx.TimeIntelligence
	}

	window, err := ev.mctx.Window(ti)
	if err != nil {
		return nil, err
	}

	query := dataset.Query{
		Dataset:     src.Dataset,
		EntityID:    ev.mctx.EntityID,
		DimensionID: ev.mctx.DimensionID,
		Window:      window,
	}
	if ti != nil {
		query.DateField = ti.DateField
	}

	records, err := ev.exec.datasets.FetchRecords(ctx, query)

	status := "success"
	if err != nil {
		status = "failed"
	}
	observability.DatasetFetchesTotal.WithLabelValues(src.Dataset, status).Inc()

	if err != nil {
		return nil, err
	}

	records = c.Filters.Apply(records)
	records = ev.extra.Apply(records)

	return records, nil
}

// aggregate reduces fetched records to a scalar. Values that cannot be
// coerced to a number are dropped, not zero-filled. A field that no record
// carries at all is a hard failure; an empty record set clamps to 0.
func aggregate(records []dataset.Record, field string, agg measures.Aggregation) (float64, error) {
	if agg == measures.AggregationCount {
		return float64(len(records)), nil
	}

	fieldSeen := false
	values := make([]float64, 0, len(records))
	distinct := make(map[string]struct{})

	for _, record := range records {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}
		fieldSeen = true

		distinct[strings.TrimSpace(cast.ToString(value))] = struct{}{}

		number, err := cast.ToFloat64E(value)
		if err != nil || math.IsNaN(number) {
			continue
		}
		values = append(values, number)
	}

	if len(records) > 0 && !fieldSeen {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}

	switch agg {
	case measures.AggregationCountDistinct:
		return float64(len(distinct)), nil
	case measures.AggregationSum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum, nil
	case measures.AggregationAverage, measures.AggregationAvg:
		if len(values) == 0 {
			return 0, nil
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case measures.AggregationMin:
		if len(values) == 0 {
			return 0, nil
		}
		minValue := values[0]
		for _, v := range values[1:] {
			if v < minValue {
				minValue = v
			}
		}
		return minValue, nil
	case measures.AggregationMax:
		if len(values) == 0 {
			return 0, nil
		}
		maxValue := values[0]
		for _, v := range values[1:] {
			if v > maxValue {
				maxValue = v
			}
		}
		return maxValue, nil
	default:
		return 0, fmt.Errorf("%w: %q", measures.ErrUnknownAggregation, agg)
	}
}
