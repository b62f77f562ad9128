// Package timewindow resolves time-intelligence directives into concrete date ranges
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownType is returned when a time-intelligence type is not recognized
	ErrUnknownType = errors.New("unknown time intelligence type")
	// ErrPeriodsRequired is returned when rolling/forward directives omit a window length
	ErrPeriodsRequired = errors.New("periods must be positive for rolling and forward windows")
	// ErrInvalidPeriod is returned when the context month is out of range
	ErrInvalidPeriod = errors.New("month must be between 1 and 12")
)

// Type identifies a relative time-window policy
type Type string

const (
	// TypeSamePeriodLastYear resolves to the same month one year earlier
	TypeSamePeriodLastYear Type = "sameperiodlastyear"
	// TypeYTD resolves to January 1 up to (excluding) the context month
	TypeYTD Type = "ytd"
	// TypeRolling resolves to N months ending at the context month
	TypeRolling Type = "rolling"
	// TypeForward resolves to N months beginning after the context month
	TypeForward Type = "forward"
	// TypeLastYear resolves to the full previous calendar year
	TypeLastYear Type = "lastyear"
	// TypePastLastYear resolves to the full calendar year two years back
	TypePastLastYear Type = "pastlastyear"
)

// TimeIntelligence describes a relative time window for a measure or component
type TimeIntelligence struct {
	Type      Type       `yaml:"type" json:"type"`
	Periods   int        `yaml:"periods,omitempty" json:"periods,omitempty"`
	DateField string     `yaml:"dateField,omitempty" json:"dateField,omitempty"`
	StartDate *time.Time `yaml:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `yaml:"endDate,omitempty" json:"endDate,omitempty"`
}

// Validate checks the directive for configuration errors
func (ti *TimeIntelligence) Validate() error {
	switch ti.Type {
	case TypeSamePeriodLastYear, TypeYTD, TypeLastYear, TypePastLastYear:
		return nil
	case TypeRolling, TypeForward:
		if ti.Periods <= 0 {
			return fmt.Errorf("%w: got %d", ErrPeriodsRequired, ti.Periods)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, ti.Type)
	}
}

// Range is a half-open date interval [Start, End)
type Range struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Contains reports whether t falls inside the half-open interval.
// Callers filtering raw records must use this (>= Start, < End) rather than
// equality on a single date, so boundary records are never dropped.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// IsZero reports whether the range is unset
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

// MonthStart returns the first instant of the given month in UTC
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// Resolve computes the concrete half-open range for a directive against a
// context period. A nil directive resolves to the context month itself.
// Explicit StartDate/EndDate on the directive always override computed bounds.
func Resolve(ti *TimeIntelligence, year, month int) (Range, error) {
	if month < 1 || month > 12 {
		return Range{}, fmt.Errorf("%w: got %d", ErrInvalidPeriod, month)
	}

	monthStart := MonthStart(year, month)

	var r Range

	if ti == nil {
		r = Range{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}
		return r, nil
	}

	switch ti.Type {
	case TypeSamePeriodLastYear:
		start := MonthStart(year-1, month)
		r = Range{Start: start, End: start.AddDate(0, 1, 0)}
	case TypeYTD:
		r = Range{Start: MonthStart(year, 1), End: monthStart}
	case TypeRolling:
		if ti.Periods <= 0 {
			return Range{}, fmt.Errorf("%w: got %d", ErrPeriodsRequired, ti.Periods)
		}
		r = Range{Start: monthStart.AddDate(0, -ti.Periods, 0), End: monthStart}
	case TypeForward:
		if ti.Periods <= 0 {
			return Range{}, fmt.Errorf("%w: got %d", ErrPeriodsRequired, ti.Periods)
		}
		start := monthStart.AddDate(0, 1, 0)
		r = Range{Start: start, End: start.AddDate(0, ti.Periods, 0)}
	case TypeLastYear:
		r = Range{Start: MonthStart(year-1, 1), End: MonthStart(year, 1)}
	case TypePastLastYear:
		r = Range{Start: MonthStart(year-2, 1), End: MonthStart(year-1, 1)}
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownType, ti.Type)
	}

	if ti.StartDate != nil {
		r.Start = *ti.StartDate
	}
	if ti.EndDate != nil {
		r.End = *ti.EndDate
	}

	return r, nil
}
