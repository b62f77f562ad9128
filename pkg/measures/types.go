// Package measures holds measure definitions, their registry and the
// dependency graph among them
package measures

import (
	"fmt"
	"sort"

	"github.com/chainsight/measures/pkg/filter"
	"github.com/chainsight/measures/pkg/timewindow"
)

// SourceType tags where a component's value comes from
type SourceType string

const (
	// SourceTypeTable aggregates raw records from an external tabular dataset
	SourceTypeTable SourceType = "table"
	// SourceTypeMeasure recursively evaluates another measure
	SourceTypeMeasure SourceType = "measure"
	// SourceTypeConditional chooses between two sub-sources at runtime
	SourceTypeConditional SourceType = "conditional"
)

// Operation folds a component's value into the measure accumulator
type Operation string

const (
	OperationSum      Operation = "sum"
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationDivide   Operation = "divide"
	OperationFallback Operation = "fallback"
	// OperationConditional folds like sum; the branching lives in the source
	OperationConditional Operation = "conditional"
)

// Aggregation reduces fetched records to a scalar
type Aggregation string

const (
	AggregationSum           Aggregation = "sum"
	AggregationCount         Aggregation = "count"
	AggregationCountDistinct Aggregation = "countDistinct"
	AggregationAverage       Aggregation = "average"
	AggregationAvg           Aggregation = "avg"
	AggregationMin           Aggregation = "min"
	AggregationMax           Aggregation = "max"
)

// Source is the tagged union over table, measure and conditional sources.
// Exactly the fields for its Type are set; Validate enforces this.
type Source struct {
	Type SourceType `yaml:"type" json:"type"`

	// Dataset and Field apply to table sources
	Dataset string `yaml:"dataset,omitempty" json:"dataset,omitempty"`
	Field   string `yaml:"field,omitempty" json:"field,omitempty"`

	// Measure applies to measure sources
	Measure string `yaml:"measure,omitempty" json:"measure,omitempty"`
}

// Validate checks the source. Conditional branches pass nested=true, which
// forbids another conditional level.
func (s *Source) Validate(nested bool) error {
	switch s.Type {
	case SourceTypeTable:
		if s.Dataset == "" {
			return ErrDatasetRequired
		}
		return nil
	case SourceTypeMeasure:
		if s.Measure == "" {
			return ErrMeasureRefRequired
		}
		return nil
	case SourceTypeConditional:
		if nested {
			return ErrNestedConditional
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceType, s.Type)
	}
}

// ConditionalPredicates are the context predicates a conditional source can
// gate on. Only declared (non-nil) predicates are checked; each must evaluate
// to its declared value for the primary source to be chosen.
type ConditionalPredicates struct {
	HasData        *bool `yaml:"hasData,omitempty" json:"hasData,omitempty"`
	IsPastMonth    *bool `yaml:"isPastMonth,omitempty" json:"isPastMonth,omitempty"`
	IsFutureMonth  *bool `yaml:"isFutureMonth,omitempty" json:"isFutureMonth,omitempty"`
	IsCurrentMonth *bool `yaml:"isCurrentMonth,omitempty" json:"isCurrentMonth,omitempty"`
}

// ConditionalConfig selects between a primary and a fallback source
type ConditionalConfig struct {
	Conditions     ConditionalPredicates `yaml:"conditions" json:"conditions"`
	PrimarySource  Source                `yaml:"primarySource" json:"primarySource"`
	FallbackSource Source                `yaml:"fallbackSource" json:"fallbackSource"`
}

// Component is one term of a measure's formula
type Component struct {
	ID               string                         `yaml:"id" json:"id"`
	Name             string                         `yaml:"name,omitempty" json:"name,omitempty"`
	Source           Source                         `yaml:"source" json:"source"`
	Operation        Operation                      `yaml:"operation,omitempty" json:"operation,omitempty"`
	Aggregation      Aggregation                    `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
	Filters          *filter.Logic                  `yaml:"filters,omitempty" json:"filters,omitempty"`
	SortOrder        *int                           `yaml:"sortOrder" json:"sortOrder"`
	Conditional      *ConditionalConfig             `yaml:"conditional,omitempty" json:"conditional,omitempty"`
	TimeIntelligence *timewindow.TimeIntelligence   `yaml:"timeIntelligence,omitempty" json:"timeIntelligence,omitempty"`
}

// EffectiveOperation returns the declared operation, defaulting to sum
func (c *Component) EffectiveOperation() Operation {
	if c.Operation == "" {
		return OperationSum
	}
	return c.Operation
}

// EffectiveAggregation returns the declared aggregation, defaulting to sum
func (c *Component) EffectiveAggregation() Aggregation {
	if c.Aggregation == "" {
		return AggregationSum
	}
	return c.Aggregation
}

// Validate checks a component for configuration errors
func (c *Component) Validate() error {
	if c.ID == "" {
		return ErrComponentIDRequired
	}
	if c.SortOrder == nil {
		return fmt.Errorf("%w: component %s", ErrMissingSortOrder, c.ID)
	}

	if err := c.Source.Validate(false); err != nil {
		return fmt.Errorf("component %s: %w", c.ID, err)
	}

	if c.Source.Type == SourceTypeConditional {
		if c.Conditional == nil {
			return fmt.Errorf("%w: component %s", ErrConditionalConfigRequired, c.ID)
		}
		if err := c.Conditional.PrimarySource.Validate(true); err != nil {
			return fmt.Errorf("component %s primary source: %w", c.ID, err)
		}
		if err := c.Conditional.FallbackSource.Validate(true); err != nil {
			return fmt.Errorf("component %s fallback source: %w", c.ID, err)
		}
	}

	switch c.EffectiveOperation() {
	case OperationSum, OperationAdd, OperationSubtract, OperationMultiply,
		OperationDivide, OperationFallback, OperationConditional:
	default:
		return fmt.Errorf("%w: %q on component %s", ErrUnknownOperation, c.Operation, c.ID)
	}

	switch c.EffectiveAggregation() {
	case AggregationSum, AggregationCount, AggregationCountDistinct,
		AggregationAverage, AggregationAvg, AggregationMin, AggregationMax:
	default:
		return fmt.Errorf("%w: %q on component %s", ErrUnknownAggregation, c.Aggregation, c.ID)
	}

	if c.Source.Type == SourceTypeTable && c.Source.Field == "" && c.EffectiveAggregation() != AggregationCount {
		return fmt.Errorf("%w: component %s", ErrFieldRequired, c.ID)
	}

	if c.Filters != nil {
		if err := c.Filters.Validate(); err != nil {
			return fmt.Errorf("component %s filters: %w", c.ID, err)
		}
	}

	if c.TimeIntelligence != nil {
		if err := c.TimeIntelligence.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", c.ID, err)
		}
	}

	return nil
}

// measureRefs collects the measure keys this component references, including
// conditional branches
func (c *Component) measureRefs() []string {
	var refs []string

	if c.Source.Type == SourceTypeMeasure {
		refs = append(refs, c.Source.Measure)
	}
	if c.Source.Type == SourceTypeConditional && c.Conditional != nil {
		if c.Conditional.PrimarySource.Type == SourceTypeMeasure {
			refs = append(refs, c.Conditional.PrimarySource.Measure)
		}
		if c.Conditional.FallbackSource.Type == SourceTypeMeasure {
			refs = append(refs, c.Conditional.FallbackSource.Measure)
		}
	}

	return refs
}

// Metadata carries display and classification attributes
type Metadata struct {
	Category   string             `yaml:"category,omitempty" json:"category,omitempty"`
	Unit       string             `yaml:"unit,omitempty" json:"unit,omitempty"`
	Tags       []string           `yaml:"tags,omitempty" json:"tags,omitempty"`
	Thresholds map[string]float64 `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
}

// Measure is a named formula definition. Immutable once registered.
type Measure struct {
	Key              string                       `yaml:"key" json:"key"`
	Name             string                       `yaml:"name" json:"name"`
	Description      string                       `yaml:"description,omitempty" json:"description,omitempty"`
	Components       []Component                  `yaml:"components" json:"components"`
	TimeIntelligence *timewindow.TimeIntelligence `yaml:"timeIntelligence,omitempty" json:"timeIntelligence,omitempty"`
	Metadata         *Metadata                    `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Validate checks the measure for configuration errors
func (m *Measure) Validate() error {
	if m.Key == "" {
		return ErrKeyRequired
	}
	if m.Name == "" {
		return fmt.Errorf("%w: measure %s", ErrNameRequired, m.Key)
	}
	if len(m.Components) == 0 {
		return fmt.Errorf("%w: measure %s", ErrNoComponents, m.Key)
	}

	for i := range m.Components {
		if err := m.Components[i].Validate(); err != nil {
			return fmt.Errorf("measure %s: %w", m.Key, err)
		}
	}

	if m.TimeIntelligence != nil {
		if err := m.TimeIntelligence.Validate(); err != nil {
			return fmt.Errorf("measure %s: %w", m.Key, err)
		}
	}

	return nil
}

// Dependencies returns the sorted set of measure keys this measure directly
// depends on, including references inside conditional branches
func (m *Measure) Dependencies() []string {
	seen := make(map[string]bool)
	for i := range m.Components {
		for _, ref := range m.Components[i].measureRefs() {
			seen[ref] = true
		}
	}

	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	return deps
}

// OrderedComponents returns components sorted by sortOrder, with ties broken
// by declaration order. This defines the fold order for composition.
func (m *Measure) OrderedComponents() []Component {
	ordered := make([]Component, len(m.Components))
	copy(ordered, m.Components)

	sort.SliceStable(ordered, func(i, j int) bool {
		return *ordered[i].SortOrder < *ordered[j].SortOrder
	})

	return ordered
}

// Tags returns the measure's metadata tags, if any
func (m *Measure) Tags() []string {
	if m.Metadata == nil {
		return nil
	}
	return m.Metadata.Tags
}
