// Package chart reshapes view snapshots into field-keyed records and
// renders them as HTML or PNG charts.
package chart

// Source is a tabular snapshot a chart can read from.
type Source interface {
	Fields() []string
	Len() int
	Value(row int, field string) (any, bool)
}

// Encoding declares the x-axis field and the series fields of a chart.
type Encoding struct {
	X      string
	Series []string
}

// Fields returns X followed by the series, without duplicates.
func (e Encoding) Fields() []string {
	out := make([]string, 0, len(e.Series)+1)
	seen := make(map[string]struct{}, len(e.Series)+1)
	for _, f := range append([]string{e.X}, e.Series...) {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Record is one row keyed by field name.
type Record map[string]any

// Shape copies every source row into a record holding only the encoded
// fields. Fields the source lacks are left out of the record.
func Shape(src Source, enc Encoding) []Record {
	fields := enc.Fields()
	out := make([]Record, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		rec := make(Record, len(fields))
		for _, f := range fields {
			if v, ok := src.Value(i, f); ok {
				rec[f] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

// SeriesValues extracts one series as float64s. Missing or non-numeric
// values become zero.
func SeriesValues(records []Record, field string) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = toFloat(rec[field])
	}
	return out
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
