// Package filter evaluates column-level predicates against flat records
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

var (
	// ErrUnknownOperator is returned when a condition uses an unrecognized operator
	ErrUnknownOperator = errors.New("unknown filter operator")
	// ErrUnknownLogic is returned when the combining logic is not AND or OR
	ErrUnknownLogic = errors.New("filter logic must be AND or OR")
	// ErrColumnRequired is returned when a condition has no column
	ErrColumnRequired = errors.New("filter condition requires a column")
	// ErrValuesRequired is returned when a membership operator has no values list
	ErrValuesRequired = errors.New("in/notIn operators require a values list")
)

// LogicOp combines condition results
type LogicOp string

const (
	// LogicAnd requires every condition to match
	LogicAnd LogicOp = "AND"
	// LogicOr requires at least one condition to match
	LogicOr LogicOp = "OR"
)

// Operator identifies a single comparison
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "notEquals"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "notIn"
	OpIsNull             Operator = "isNull"
	OpIsNotNull          Operator = "isNotNull"
)

// Condition is one column-level predicate
type Condition struct {
	Column   string   `yaml:"column" json:"column"`
	Operator Operator `yaml:"operator" json:"operator"`
	Value    any      `yaml:"value,omitempty" json:"value,omitempty"`
	Values   []any    `yaml:"values,omitempty" json:"values,omitempty"`
}

// Logic is an AND/OR combination of conditions. An empty condition list is a
// pass-through: every record matches.
type Logic struct {
	Logic      LogicOp     `yaml:"logic" json:"logic"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// Validate checks the filter for configuration errors
func (l *Logic) Validate() error {
	switch l.Logic {
	case LogicAnd, LogicOr, "":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogic, l.Logic)
	}

	for i := range l.Conditions {
		if err := l.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}

	return nil
}

// Validate checks a single condition for configuration errors
func (c *Condition) Validate() error {
	if c.Column == "" {
		return ErrColumnRequired
	}

	switch c.Operator {
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: column %s", ErrValuesRequired, c.Column)
		}
	case OpEquals, OpNotEquals,
		OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual,
		OpContains, OpStartsWith, OpEndsWith,
		OpIsNull, OpIsNotNull:
	default:
		return fmt.Errorf("%w: %q on column %s", ErrUnknownOperator, c.Operator, c.Column)
	}

	return nil
}

// Matches evaluates the filter against one record
func (l *Logic) Matches(record map[string]any) bool {
	if l == nil || len(l.Conditions) == 0 {
		return true
	}

	for i := range l.Conditions {
		matched := l.Conditions[i].matches(record)

		if l.Logic == LogicOr {
			if matched {
				return true
			}
		} else if !matched {
			// AND is the default logic
			return false
		}
	}

	return l.Logic != LogicOr
}

// Apply returns the records that match the filter
func (l *Logic) Apply(records []map[string]any) []map[string]any {
	if l == nil || len(l.Conditions) == 0 {
		return records
	}

	matched := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if l.Matches(record) {
			matched = append(matched, record)
		}
	}

	return matched
}

func (c *Condition) matches(record map[string]any) bool {
	value, present := record[c.Column]
	isNull := !present || value == nil

	switch c.Operator {
	case OpIsNull:
		return isNull
	case OpIsNotNull:
		return !isNull
	}

	// A missing or null field never matches a value operator
	if isNull {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return looseEqual(value, c.Value)
	case OpNotEquals:
		return !looseEqual(value, c.Value)
	case OpLessThan:
		return compare(value, c.Value) < 0
	case OpLessThanOrEqual:
		return compare(value, c.Value) <= 0
	case OpGreaterThan:
		return compare(value, c.Value) > 0
	case OpGreaterThanOrEqual:
		return compare(value, c.Value) >= 0
	case OpContains:
		return strings.Contains(normalize(value), normalize(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(normalize(value), normalize(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(normalize(value), normalize(c.Value))
	case OpIn:
		return contains(c.Values, value)
	case OpNotIn:
		return !contains(c.Values, value)
	default:
		return false
	}
}

// looseEqual compares numerically when both operands coerce to numbers,
// otherwise case-insensitively on trimmed strings.
func looseEqual(a, b any) bool {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa == fb
	}

	return strings.EqualFold(strings.TrimSpace(cast.ToString(a)), strings.TrimSpace(cast.ToString(b)))
}

// compare orders numerically when both operands coerce to numbers, otherwise
// lexically on normalized strings.
func compare(a, b any) int {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(normalize(a), normalize(b))
}

func contains(values []any, value any) bool {
	for _, candidate := range values {
		if looseEqual(value, candidate) {
			return true
		}
	}

	return false
}

func normalize(v any) string {
	return strings.ToLower(strings.TrimSpace(cast.ToString(v)))
}
