// Package engine evaluates measures against an execution context
package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/chainsight/measures/pkg/timewindow"
)

var (
	// ErrNilContext is returned when evaluation is attempted without a context
	ErrNilContext = errors.New("execution context is required")
	// ErrPeriodRequired is returned when the context carries neither a
	// year/month period nor an explicit date
	ErrPeriodRequired = errors.New("execution context requires year and month or an explicit date")
)

// Context carries the point-in-time parameters a measure is evaluated
// against: entity, dimension and period, plus open-ended extra values
// available to filters.
type Context struct {
	EntityID    string `yaml:"entityId" json:"entityId"`
	DimensionID string `yaml:"dimensionId" json:"dimensionId"`

	Year  int `yaml:"year,omitempty" json:"year,omitempty"`
	Month int `yaml:"month,omitempty" json:"month,omitempty"`

	// Date is an optional explicit date replacing year/month
	Date *time.Time `yaml:"date,omitempty" json:"date,omitempty"`
	// DateRange overrides every computed window when set
	DateRange *timewindow.Range `yaml:"dateRange,omitempty" json:"dateRange,omitempty"`

	TimeIntelligence *timewindow.TimeIntelligence `yaml:"timeIntelligence,omitempty" json:"timeIntelligence,omitempty"`

	Extra map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Validate checks that the context identifies a period
func (c *Context) Validate() error {
	if c == nil {
		return ErrNilContext
	}
	if c.Date == nil && c.DateRange == nil && (c.Year == 0 || c.Month == 0) {
		return ErrPeriodRequired
	}

	return nil
}

// Period returns the context's year and month, derived from the explicit
// date when one is set
func (c *Context) Period() (year, month int) {
	if c.Date != nil {
		return c.Date.Year(), int(c.Date.Month())
	}

	return c.Year, c.Month
}

// IsCurrentMonth reports whether the context period is the month of now
func (c *Context) IsCurrentMonth(now time.Time) bool {
	year, month := c.Period()
	return year == now.Year() && month == int(now.Month())
}

// IsPastMonth reports whether the context period is before the month of now
func (c *Context) IsPastMonth(now time.Time) bool {
	year, month := c.Period()
	return timewindow.MonthStart(year, month).Before(timewindow.MonthStart(now.Year(), int(now.Month())))
}

// IsFutureMonth reports whether the context period is after the month of now
func (c *Context) IsFutureMonth(now time.Time) bool {
	year, month := c.Period()
	return timewindow.MonthStart(year, month).After(timewindow.MonthStart(now.Year(), int(now.Month())))
}

// Fingerprint returns a deterministic identity for the context. Memoized
// results are keyed by (measure key, fingerprint): different entity,
// dimension or period combinations never share a cache entry.
func (c *Context) Fingerprint() string {
	var b strings.Builder

	year, month := c.Period()
	fmt.Fprintf(&b, "entity=%s|dimension=%s|year=%d|month=%d", c.EntityID, c.DimensionID, year, month)

	if c.Date != nil {
		fmt.Fprintf(&b, "|date=%s", c.Date.Format("2006-01-02"))
	}
	if c.DateRange != nil {
		fmt.Fprintf(&b, "|range=%s", c.DateRange)
	}
	if c.TimeIntelligence != nil {
		fmt.Fprintf(&b, "|ti=%s:%d", c.TimeIntelligence.Type, c.TimeIntelligence.Periods)
	}

	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for key := range c.Extra {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "|%s=%s", key, cast.ToString(c.Extra[key]))
		}
	}

	return b.String()
}

// Window resolves the date range for a time-intelligence directive against
// this context. An explicit DateRange on the context overrides everything;
// an explicit Date with no directive resolves to that single day.
func (c *Context) Window(ti *timewindow.TimeIntelligence) (timewindow.Range, error) {
	if c.DateRange != nil {
		return *c.DateRange, nil
	}
	if c.Date != nil && ti == nil {
		return timewindow.Range{Start: *c.Date, End: c.Date.AddDate(0, 0, 1)}, nil
	}

	year, month := c.Period()

	window, err := timewindow.Resolve(ti, year, month)
	if err != nil {
		return timewindow.Range{}, err
	}

	// An explicit context date refines ytd: the window runs up to that date
	// rather than stopping at the month boundary. A directive-level EndDate
	// still overrides.
	if c.Date != nil && ti != nil && ti.Type == timewindow.TypeYTD && ti.EndDate == nil {
		window.End = *c.Date
	}

	return window, nil
}
