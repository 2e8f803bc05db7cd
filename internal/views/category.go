package views

import (
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/tables"
)

// Category fields exposed to charts.
const (
	FieldCode             = tables.ColumnCode
	FieldLabel            = tables.ColumnLabel
	FieldWithDirtbikes    = tables.ColumnWithDirtbikes
	FieldWithoutDirtbikes = tables.ColumnWithoutDirtbikes
)

var categoryFields = []string{FieldCode, FieldLabel, FieldWithDirtbikes, FieldWithoutDirtbikes}

// CategorySnapshot is the subset of categories whose code was selected.
type CategorySnapshot struct {
	Version  uint64
	Selected model.Selection
	Rows     []model.CategoryRecord
}

// Categories filters the category table to the selected codes, keeping
// table order. Selected codes the table lacks are ignored.
func Categories(table *tables.CategoryTable, selected model.Selection) *CategorySnapshot {
	snap := &CategorySnapshot{Selected: selected}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		if selected.Contains(rec.Code) {
			snap.Rows = append(snap.Rows, rec)
		}
	}
	return snap
}

// Fields returns the four category fields.
func (s *CategorySnapshot) Fields() []string {
	return append([]string(nil), categoryFields...)
}

// Len returns the number of rows.
func (s *CategorySnapshot) Len() int {
	return len(s.Rows)
}

// Value returns strings for code and label and ints for the quantities.
func (s *CategorySnapshot) Value(row int, field string) (any, bool) {
	if row < 0 || row >= len(s.Rows) {
		return nil, false
	}
	rec := s.Rows[row]
	switch field {
	case FieldCode:
		return rec.Code, true
	case FieldLabel:
		return rec.Label, true
	case FieldWithDirtbikes:
		return rec.QuantityWithDirtbikes, true
	case FieldWithoutDirtbikes:
		return rec.QuantityWithoutDirtbikes, true
	}
	return nil, false
}

// Quantity returns the row's count for the dirtbike toggle.
func Quantity(rec model.CategoryRecord, includeDirtbikes bool) int {
	if includeDirtbikes {
		return rec.QuantityWithDirtbikes
	}
	return rec.QuantityWithoutDirtbikes
}
