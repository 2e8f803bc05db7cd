// Package tables holds the immutable base tables the dashboard views read.
package tables

import (
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/towstat/internal/model"
)

// TimeSeriesTable is a date-sorted table of metric columns. It has no
// mutators; accessors hand out copies.
type TimeSeriesTable struct {
	columns []string
	index   map[string]int
	dates   []time.Time
	values  [][]float64
}

// NewTimeSeriesTable builds a table over the given metric columns and sorts
// the records ascending by date. Values missing from a record become zero.
// Duplicate dates and duplicate columns are rejected.
func NewTimeSeriesTable(columns []string, records []model.TimeSeriesRecord) (*TimeSeriesTable, error) {
	t := &TimeSeriesTable{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		dates:   make([]time.Time, 0, len(records)),
		values:  make([][]float64, 0, len(records)),
	}
	for i, col := range columns {
		if _, ok := t.index[col]; ok {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		t.index[col] = i
	}

	sorted := append([]model.TimeSeriesRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	for i, rec := range sorted {
		date := model.Date(rec.Date)
		if i > 0 && date.Equal(t.dates[len(t.dates)-1]) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, date.Format(model.DateLayout))
		}
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = rec.Values[col]
		}
		t.dates = append(t.dates, date)
		t.values = append(t.values, row)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *TimeSeriesTable) Len() int {
	return len(t.dates)
}

// Columns returns the metric column names in table order.
func (t *TimeSeriesTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table carries the column.
func (t *TimeSeriesTable) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Date returns the date of row i.
func (t *TimeSeriesTable) Date(i int) time.Time {
	return t.dates[i]
}

// Value returns the value of column name in row i.
func (t *TimeSeriesTable) Value(i int, name string) (float64, bool) {
	col, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.values[i][col], true
}

// SearchDate returns the first row index whose date is not before d.
func (t *TimeSeriesTable) SearchDate(d time.Time) int {
	return sort.Search(len(t.dates), func(i int) bool {
		return !t.dates[i].Before(d)
	})
}

// Span returns the range from the first to the last date. ok is false for an
// empty table.
func (t *TimeSeriesTable) Span() (model.DateRange, bool) {
	if len(t.dates) == 0 {
		return model.DateRange{}, false
	}
	return model.DateRange{Start: t.dates[0], End: t.dates[len(t.dates)-1]}, true
}

// CategoryTable lists pickup categories in load order.
type CategoryTable struct {
	records []model.CategoryRecord
	index   map[string]int
}

// NewCategoryTable builds a category table, rejecting duplicate codes.
func NewCategoryTable(records []model.CategoryRecord) (*CategoryTable, error) {
	t := &CategoryTable{
		records: append([]model.CategoryRecord(nil), records...),
		index:   make(map[string]int, len(records)),
	}
	for i, rec := range t.records {
		if _, ok := t.index[rec.Code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, rec.Code)
		}
		t.index[rec.Code] = i
	}
	return t, nil
}

// Len returns the number of categories.
func (t *CategoryTable) Len() int {
	return len(t.records)
}

// Record returns row i by value.
func (t *CategoryTable) Record(i int) model.CategoryRecord {
	return t.records[i]
}

// Lookup finds a category by code.
func (t *CategoryTable) Lookup(code string) (model.CategoryRecord, bool) {
	i, ok := t.index[code]
	if !ok {
		return model.CategoryRecord{}, false
	}
	return t.records[i], true
}

// Codes returns every code in table order.
func (t *CategoryTable) Codes() []string {
	out := make([]string, len(t.records))
	for i, rec := range t.records {
		out[i] = rec.Code
	}
	return out
}

// StaticTable is a header plus string rows handed to the renderer as is.
type StaticTable struct {
	header []string
	rows   [][]string
}

// NewStaticTable copies header and rows into a read-only table.
func NewStaticTable(header []string, rows [][]string) *StaticTable {
	t := &StaticTable{header: append([]string(nil), header...)}
	t.rows = make([][]string, len(rows))
	for i, row := range rows {
		t.rows[i] = append([]string(nil), row...)
	}
	return t
}

// Header returns a copy of the column titles.
func (t *StaticTable) Header() []string {
	return append([]string(nil), t.header...)
}

// Rows returns a copy of the rows.
func (t *StaticTable) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Len returns the number of rows.
func (t *StaticTable) Len() int {
	return len(t.rows)
}

// BaseTables bundles every table loaded at startup. It is built once and
// shared read-only by all views.
type BaseTables struct {
	timeSeries *TimeSeriesTable
	categories *CategoryTable
	oldest     *StaticTable
}

// New bundles loaded tables. Nil tables are replaced with empty ones.
func New(ts *TimeSeriesTable, categories *CategoryTable, oldest *StaticTable) *BaseTables {
	if ts == nil {
		ts, _ = NewTimeSeriesTable(nil, nil)
	}
	if categories == nil {
		categories, _ = NewCategoryTable(nil)
	}
	if oldest == nil {
		oldest = NewStaticTable(nil, nil)
	}
	return &BaseTables{timeSeries: ts, categories: categories, oldest: oldest}
}

// TimeSeries returns the date-sorted metric table.
func (b *BaseTables) TimeSeries() *TimeSeriesTable {
	return b.timeSeries
}

// Categories returns the category table.
func (b *BaseTables) Categories() *CategoryTable {
	return b.categories
}

// Oldest returns the oldest-vehicles table.
func (b *BaseTables) Oldest() *StaticTable {
	return b.oldest
}
