package measures

import "errors"

// Configuration errors. All of these are fatal: a misconfigured measure must
// never compute a plausible-looking wrong number.
var (
	// ErrKeyRequired is returned when a measure has no key
	ErrKeyRequired = errors.New("measure key is required")
	// ErrNameRequired is returned when a measure has no name
	ErrNameRequired = errors.New("measure name is required")
	// ErrNoComponents is returned when a measure declares no components
	ErrNoComponents = errors.New("measure requires at least one component")
	// ErrDuplicateMeasure is returned when a key is registered twice
	ErrDuplicateMeasure = errors.New("measure key already registered")
	// ErrMeasureNotFound is returned when a key is not in the registry
	ErrMeasureNotFound = errors.New("measure not found")
	// ErrComponentIDRequired is returned when a component has no id
	ErrComponentIDRequired = errors.New("component id is required")
	// ErrMissingSortOrder is returned when a component omits its sortOrder
	ErrMissingSortOrder = errors.New("component sortOrder is required")
	// ErrUnknownSourceType is returned for an unrecognized source type
	ErrUnknownSourceType = errors.New("unknown component source type")
	// ErrDatasetRequired is returned when a table source has no dataset key
	ErrDatasetRequired = errors.New("table source requires a dataset")
	// ErrFieldRequired is returned when a table source has no field to aggregate
	ErrFieldRequired = errors.New("table source requires a field")
	// ErrMeasureRefRequired is returned when a measure source names no measure
	ErrMeasureRefRequired = errors.New("measure source requires a measure key")
	// ErrConditionalConfigRequired is returned when a conditional source has no conditional block
	ErrConditionalConfigRequired = errors.New("conditional source requires a conditional block")
	// ErrNestedConditional is returned when a conditional branch is itself conditional
	ErrNestedConditional = errors.New("conditional branches must be table or measure sources")
	// ErrUnknownOperation is returned for an unrecognized fold operation
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrUnknownAggregation is returned for an unrecognized aggregation
	ErrUnknownAggregation = errors.New("unknown aggregation")
	// ErrUnknownDependency is returned when a measure references an unregistered key
	ErrUnknownDependency = errors.New("measure references unregistered measure")
	// ErrCircularDependency is returned when the dependency graph contains a cycle
	ErrCircularDependency = errors.New("circular dependency detected")
)
