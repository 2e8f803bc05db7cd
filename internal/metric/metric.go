// Package metric maps logical metric selections to concrete table columns.
package metric

import (
	"strings"
)

// Measure is the quantity a metric column holds.
type Measure int

const (
	// Count is the number of vehicles on the lot.
	Count Measure = iota
	// AverageAge is the mean age in days of vehicles on the lot.
	AverageAge
)

func (m Measure) suffix() string {
	if m == AverageAge {
		return "avg"
	}
	return "num"
}

func (m Measure) String() string {
	if m == AverageAge {
		return "average age"
	}
	return "count"
}

// Variant selects whether a metric's value counts dirtbikes.
type Variant int

const (
	// WithDirtbikes counts every vehicle.
	WithDirtbikes Variant = iota
	// WithoutDirtbikes excludes dirtbikes, scooters and ATVs.
	WithoutDirtbikes
)

// VariantFor maps the dirtbike inclusion toggle to a Variant.
func VariantFor(includeDirtbikes bool) Variant {
	if includeDirtbikes {
		return WithDirtbikes
	}
	return WithoutDirtbikes
}

const nonDirtbikeMarker = "_nondb"

// Metric is the identity of a logical metric key such as "total_num".
type Metric struct {
	Name    string
	Measure Measure
}

// Parse splits a logical key into name and measure. Keys without a
// "_num" or "_avg" suffix, or with nothing before it, do not parse.
func Parse(key string) (Metric, bool) {
	for _, m := range []Measure{Count, AverageAge} {
		suffix := "_" + m.suffix()
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		name := strings.TrimSuffix(key, suffix)
		if name == "" {
			return Metric{}, false
		}
		return Metric{Name: name, Measure: m}, true
	}
	return Metric{}, false
}

// Key returns the logical key, which is also the with-dirtbikes column.
func (m Metric) Key() string {
	return m.Column(WithDirtbikes)
}

// Column returns the concrete column for the variant.
func (m Metric) Column(v Variant) string {
	if v == WithoutDirtbikes {
		return m.Name + nonDirtbikeMarker + "_" + m.Measure.suffix()
	}
	return m.Name + "_" + m.Measure.suffix()
}

// Resolve maps logical keys to the columns to project. With dirtbikes
// included every key is returned unchanged; otherwise parsable keys are
// rewritten to their non-dirtbike column and the rest pass through. The
// result is deduplicated and keeps the input order.
func Resolve(keys []string, includeDirtbikes bool) []string {
	variant := VariantFor(includeDirtbikes)
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		column := key
		if variant == WithoutDirtbikes {
			if m, ok := Parse(key); ok {
				column = m.Column(variant)
			}
		}
		if _, ok := seen[column]; ok {
			continue
		}
		seen[column] = struct{}{}
		out = append(out, column)
	}
	return out
}
