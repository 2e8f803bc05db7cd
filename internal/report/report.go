package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/towstat/internal/chart"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/tables"
	"github.com/verte-zerg/towstat/internal/views"
)

// Options controls the text report.
type Options struct {
	PlotWidth  int
	PlotHeight int
	// Oldest caps the oldest-vehicles table. Zero or less prints every row.
	Oldest     int
	ForceColor bool
}

// Write renders the dataset plot and summary, the category quantities and the
// oldest vehicles of one set of views.
func Write(w io.Writer, v session.Views, opts Options) error {
	if err := WriteDataset(w, v.Dataset, opts); err != nil {
		return err
	}
	if err := writeLines(w, "On lot ("+variantLabel(v.IncludeDirtbikes)+")", categoryTable(v.Categories, v.IncludeDirtbikes)); err != nil {
		return err
	}
	if v.Oldest != nil && v.Oldest.Len() > 0 {
		return writeLines(w, "Oldest vehicles", oldestTable(v.Oldest, opts.Oldest))
	}
	return nil
}

// WriteDataset renders the dataset snapshot as a plot followed by a per-column
// summary.
func WriteDataset(w io.Writer, ds *views.DatasetSnapshot, opts Options) error {
	if ds == nil || ds.Len() == 0 {
		_, err := fmt.Fprintln(w, "No data in the selected date range.")
		return err
	}
	series := make([]Series, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		values, _ := ds.Column(col)
		series = append(series, Series{Name: chart.SeriesName(col), Values: values})
	}
	if err := Plot(w, series, PlotOptions{
		Title:      "Vehicles on lot " + ds.Range.String(),
		Width:      opts.PlotWidth,
		Height:     opts.PlotHeight,
		XStart:     ds.Rows[0].Date.Format(model.DateLayout),
		XEnd:       ds.Rows[ds.Len()-1].Date.Format(model.DateLayout),
		ForceColor: opts.ForceColor,
	}); err != nil {
		return err
	}
	return writeLines(w, "Summary", summaryTable(ds))
}

func summaryTable(ds *views.DatasetSnapshot) table {
	t := table{
		headers: []string{"Metric", "Min", "Mean", "Max", "Last"},
		right:   map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, col := range ds.Columns {
		values, _ := ds.Column(col)
		if len(values) == 0 {
			continue
		}
		t.rows = append(t.rows, []string{
			chart.SeriesName(col),
			chart.FormatValue(floats.Min(values)),
			chart.FormatValue(stat.Mean(values, nil)),
			chart.FormatValue(floats.Max(values)),
			chart.FormatValue(values[len(values)-1]),
		})
	}
	return t
}

func categoryTable(cs *views.CategorySnapshot, includeDirtbikes bool) table {
	t := table{
		headers:  []string{"Code", "Category", "Quantity"},
		right:    map[int]bool{2: true},
		maxWidth: 32,
	}
	if cs == nil {
		return t
	}
	total := 0
	for _, rec := range cs.Rows {
		q := views.Quantity(rec, includeDirtbikes)
		total += q
		t.rows = append(t.rows, []string{rec.Code, rec.Label, strconv.Itoa(q)})
	}
	if len(cs.Rows) > 1 {
		t.rows = append(t.rows, []string{"", "Selected", strconv.Itoa(total)})
	}
	return t
}

func oldestTable(st *tables.StaticTable, limit int) table {
	rows := st.Rows()
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	headers := st.Header()
	right := map[int]bool{}
	for i, h := range headers {
		if h == "age_days" {
			right[i] = true
		}
	}
	return table{headers: headers, rows: rows, right: right, maxWidth: 32}
}

func writeLines(w io.Writer, title string, t table) error {
	lines := t.lines()
	if len(lines) <= 1 {
		_, err := fmt.Fprintf(w, "%s: none\n\n", title)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Join(lines, "\n"))
	return err
}

func variantLabel(includeDirtbikes bool) string {
	if includeDirtbikes {
		return "with dirtbikes"
	}
	return "without dirtbikes"
}
