package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
)

// Column names of the input files.
const (
	ColumnDate             = "date"
	ColumnCode             = "code"
	ColumnLabel            = "label"
	ColumnWithDirtbikes    = "quantityWithDirtbikes"
	ColumnWithoutDirtbikes = "quantityWithoutDirtbikes"
)

// Sources names the base files. Oldest may be empty.
type Sources struct {
	TimeSeries string
	Categories string
	Oldest     string
}

// LoadCSV reads every base file. Any failure is returned as a *LoadError.
func LoadCSV(src Sources) (*BaseTables, error) {
	ts, err := loadFile(src.TimeSeries, ReadTimeSeries)
	if err != nil {
		return nil, err
	}
	cats, err := loadFile(src.Categories, ReadCategories)
	if err != nil {
		return nil, err
	}
	var oldest *StaticTable
	if src.Oldest != "" {
		oldest, err = loadFile(src.Oldest, ReadStatic)
		if err != nil {
			return nil, err
		}
	}
	base := New(ts, cats, oldest)
	monitoring.Logf("loaded %d time-series rows, %d categories, %d oldest vehicles",
		base.TimeSeries().Len(), base.Categories().Len(), base.Oldest().Len())
	return base, nil
}

func loadFile[T any](path string, read func(io.Reader, string) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, &LoadError{Path: "<unset>", Err: errors.New("no file configured")}
	}
	file, err := os.Open(path)
	if err != nil {
		return zero, &LoadError{Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return read(file, path)
}

// ReadTimeSeries parses a CSV with a date column and numeric metric columns.
func ReadTimeSeries(r io.Reader, path string) (*TimeSeriesTable, error) {
	header, rows, err := readCSV(r, path)
	if err != nil {
		return nil, err
	}
	dateCol := findColumn(header, ColumnDate)
	if dateCol < 0 {
		return nil, &LoadError{Path: path, Line: 1, Column: ColumnDate, Err: ErrMissingColumn}
	}
	columns := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != dateCol {
			columns = append(columns, name)
		}
	}

	records := make([]model.TimeSeriesRecord, 0, len(rows))
	for n, row := range rows {
		line := n + 2
		date, err := model.ParseDate(row[dateCol])
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: ColumnDate, Err: fmt.Errorf("%w: %q", ErrBadDate, row[dateCol])}
		}
		values := make(map[string]float64, len(columns))
		for i, name := range header {
			if i == dateCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, &LoadError{Path: path, Line: line, Column: name, Err: fmt.Errorf("%w: %q", ErrBadNumber, row[i])}
			}
			values[name] = v
		}
		records = append(records, model.TimeSeriesRecord{Date: date, Values: values})
	}

	table, err := NewTimeSeriesTable(columns, records)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return table, nil
}

// ReadCategories parses a CSV with code, label and both quantity columns.
func ReadCategories(r io.Reader, path string) (*CategoryTable, error) {
	header, rows, err := readCSV(r, path)
	if err != nil {
		return nil, err
	}
	required := []string{ColumnCode, ColumnLabel, ColumnWithDirtbikes, ColumnWithoutDirtbikes}
	idx := make(map[string]int, len(required))
	for _, name := range required {
		i := findColumn(header, name)
		if i < 0 {
			return nil, &LoadError{Path: path, Line: 1, Column: name, Err: ErrMissingColumn}
		}
		idx[name] = i
	}

	records := make([]model.CategoryRecord, 0, len(rows))
	for n, row := range rows {
		line := n + 2
		with, err := parseQuantity(row[idx[ColumnWithDirtbikes]])
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: ColumnWithDirtbikes, Err: err}
		}
		without, err := parseQuantity(row[idx[ColumnWithoutDirtbikes]])
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: ColumnWithoutDirtbikes, Err: err}
		}
		records = append(records, model.CategoryRecord{
			Code:                     strings.TrimSpace(row[idx[ColumnCode]]),
			Label:                    strings.TrimSpace(row[idx[ColumnLabel]]),
			QuantityWithDirtbikes:    with,
			QuantityWithoutDirtbikes: without,
		})
	}

	table, err := NewCategoryTable(records)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return table, nil
}

// ReadStatic parses any CSV into a pass-through table.
func ReadStatic(r io.Reader, path string) (*StaticTable, error) {
	header, rows, err := readCSV(r, path)
	if err != nil {
		return nil, err
	}
	return NewStaticTable(header, rows), nil
}

func readCSV(r io.Reader, path string) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, nil, &LoadError{Path: path, Line: perr.Line, Err: perr.Err}
		}
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, nil, &LoadError{Path: path, Err: ErrEmptyFile}
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, records[1:], nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func parseQuantity(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return v, nil
}

// WriteTimeSeries writes the table as CSV with the date column first.
func WriteTimeSeries(w io.Writer, t *TimeSeriesTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{ColumnDate}, t.columns...)); err != nil {
		return err
	}
	for i, date := range t.dates {
		row := make([]string, 0, len(t.columns)+1)
		row = append(row, date.Format(model.DateLayout))
		for _, v := range t.values[i] {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCategories writes the table as CSV.
func WriteCategories(w io.Writer, t *CategoryTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnCode, ColumnLabel, ColumnWithDirtbikes, ColumnWithoutDirtbikes}); err != nil {
		return err
	}
	for _, rec := range t.records {
		if err := cw.Write([]string{
			rec.Code,
			rec.Label,
			strconv.Itoa(rec.QuantityWithDirtbikes),
			strconv.Itoa(rec.QuantityWithoutDirtbikes),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatic writes a pass-through table as CSV.
func WriteStatic(w io.Writer, t *StaticTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return err
	}
	return cw.Error()
}
