package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a table source's field is absent from
	// every fetched record. Records missing the field individually are
	// dropped; a field no record carries is a misconfiguration.
	ErrMissingField = errors.New("field not present on any fetched record")
	// ErrDependencyFailed is returned for a measure whose dependency failed
	// earlier in the same batch
	ErrDependencyFailed = errors.New("dependency failed")
)

// ResolutionError names the measure and component that failed to resolve. A
// failed resolution never degrades to zero: zero is a legitimate business
// value and must not be confused with "could not compute".
type ResolutionError struct {
	MeasureKey  string
	ComponentID string
	Err         error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("measure %s: component %s: %v", e.MeasureKey, e.ComponentID, e.Err)
}

// Unwrap returns the underlying cause
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func newResolutionError(measureKey, componentID string, err error) *ResolutionError {
	return &ResolutionError{MeasureKey: measureKey, ComponentID: componentID, Err: err}
}
