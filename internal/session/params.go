// Package session holds the operator's parameters and recomputes the
// dashboard views when they change.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/tables"
)

// ErrInvalidDateRange is returned for a range whose start is after its end.
var ErrInvalidDateRange = errors.New("invalid date range")

// Params is the operator-controlled state the views derive from.
type Params struct {
	DateRange        model.DateRange
	Metrics          model.Selection
	Categories       model.Selection
	IncludeDirtbikes bool
}

// Validate checks the date range.
func (p Params) Validate() error {
	if err := p.DateRange.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	return nil
}

// Defaults configures DefaultParams.
type Defaults struct {
	// Days is the width of the initial window ending on the last loaded date.
	// Zero or less covers the whole table.
	Days             int
	Metrics          []string
	IncludeDirtbikes bool
	// Today anchors the window when the time-series table is empty.
	Today time.Time
}

// DefaultParams builds the session's starting state: a window over the most
// recent loaded dates, the configured metrics and every loaded category.
func DefaultParams(base *tables.BaseTables, d Defaults) Params {
	span, ok := base.TimeSeries().Span()
	if !ok {
		today := model.Date(d.Today)
		span = model.DateRange{Start: today, End: today}
	}
	if d.Days > 0 && span.Days() > d.Days {
		span.Start = span.End.AddDate(0, 0, -(d.Days - 1))
	}
	return Params{
		DateRange:        span,
		Metrics:          model.NewSelection(d.Metrics...),
		Categories:       model.NewSelection(base.Categories().Codes()...),
		IncludeDirtbikes: d.IncludeDirtbikes,
	}
}

// Change is one operator action. Each kind replaces exactly one field.
type Change interface {
	apply(Params) Params
	String() string
}

// DateRangeChanged replaces the date window.
type DateRangeChanged struct {
	Range model.DateRange
}

func (c DateRangeChanged) apply(p Params) Params {
	p.DateRange = model.DateRange{Start: model.Date(c.Range.Start), End: model.Date(c.Range.End)}
	return p
}

func (c DateRangeChanged) String() string {
	return "date range " + c.Range.String()
}

// MetricsChanged replaces the selected logical metric keys.
type MetricsChanged struct {
	Metrics model.Selection
}

func (c MetricsChanged) apply(p Params) Params {
	p.Metrics = model.NewSelection(c.Metrics...)
	return p
}

func (c MetricsChanged) String() string {
	return "metrics [" + c.Metrics.String() + "]"
}

// CategoriesChanged replaces the selected category codes.
type CategoriesChanged struct {
	Categories model.Selection
}

func (c CategoriesChanged) apply(p Params) Params {
	p.Categories = model.NewSelection(c.Categories...)
	return p
}

func (c CategoriesChanged) String() string {
	return "categories [" + c.Categories.String() + "]"
}

// DirtbikesToggled sets whether dirtbikes are counted.
type DirtbikesToggled struct {
	Include bool
}

func (c DirtbikesToggled) apply(p Params) Params {
	p.IncludeDirtbikes = c.Include
	return p
}

func (c DirtbikesToggled) String() string {
	return fmt.Sprintf("include dirtbikes %t", c.Include)
}
