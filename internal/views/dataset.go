// Package views derives the immutable row projections the charts render
// from the base tables.
package views

import (
	"time"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/tables"
)

// FieldDate is the x-axis field of every dataset row.
const FieldDate = tables.ColumnDate

// DatasetRow is one date with the projected values, aligned with the
// snapshot's Columns.
type DatasetRow struct {
	Date   time.Time
	Values []float64
}

// DatasetSnapshot is a date-filtered, column-projected view of the
// time-series table. It is never modified after it is handed out.
type DatasetSnapshot struct {
	Version uint64
	Range   model.DateRange
	// Requested holds the columns asked for, Columns the subset the table has.
	Requested []string
	Columns   []string
	Rows      []DatasetRow
}

// Dataset returns the rows with start <= date <= end projected onto the
// requested columns. Columns the table lacks are dropped. The table is
// already sorted, so the lower bound is found by binary search and rows are
// emitted in table order.
func Dataset(table *tables.TimeSeriesTable, dateRange model.DateRange, columns []string) *DatasetSnapshot {
	snap := &DatasetSnapshot{
		Range:     dateRange,
		Requested: append([]string(nil), columns...),
		Columns:   make([]string, 0, len(columns)),
	}
	for _, col := range columns {
		if table.HasColumn(col) {
			snap.Columns = append(snap.Columns, col)
		}
	}

	start := table.SearchDate(dateRange.Start)
	for i := start; i < table.Len(); i++ {
		date := table.Date(i)
		if date.After(dateRange.End) {
			break
		}
		row := DatasetRow{Date: date, Values: make([]float64, len(snap.Columns))}
		for j, col := range snap.Columns {
			row.Values[j], _ = table.Value(i, col)
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

// Fields returns "date" followed by the projected columns.
func (s *DatasetSnapshot) Fields() []string {
	return append([]string{FieldDate}, s.Columns...)
}

// Len returns the number of rows.
func (s *DatasetSnapshot) Len() int {
	return len(s.Rows)
}

// Value returns a time.Time for the date field and a float64 for columns.
func (s *DatasetSnapshot) Value(row int, field string) (any, bool) {
	if row < 0 || row >= len(s.Rows) {
		return nil, false
	}
	if field == FieldDate {
		return s.Rows[row].Date, true
	}
	for j, col := range s.Columns {
		if col == field {
			return s.Rows[row].Values[j], true
		}
	}
	return nil, false
}

// Column returns the values of one projected column across all rows.
func (s *DatasetSnapshot) Column(name string) ([]float64, bool) {
	for j, col := range s.Columns {
		if col != name {
			continue
		}
		out := make([]float64, len(s.Rows))
		for i, row := range s.Rows {
			out[i] = row.Values[j]
		}
		return out, true
	}
	return nil, false
}
