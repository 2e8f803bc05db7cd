// Package model defines shared data structures.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by input files and flags.
const DateLayout = "2006-01-02"

// Date truncates t to a calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

// DateRange is an inclusive calendar date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from two dates, rejecting start after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Date(start), End: Date(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate reports whether Start <= End.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("date range start %s is after end %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether d falls within the range, both bounds inclusive.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Equal compares two ranges by calendar date.
func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Shift moves both bounds by the given number of days.
func (r DateRange) Shift(days int) DateRange {
	return DateRange{Start: r.Start.AddDate(0, 0, days), End: r.End.AddDate(0, 0, days)}
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Selection is an order-insensitive set of keys held in canonical sorted form.
type Selection []string

// NewSelection trims, deduplicates and sorts keys. Empty keys are dropped.
func NewSelection(keys ...string) Selection {
	seen := make(map[string]struct{}, len(keys))
	out := make(Selection, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// ParseSelection splits a comma separated list into a Selection.
func ParseSelection(input string) Selection {
	return NewSelection(strings.Split(input, ",")...)
}

// Contains reports membership.
func (s Selection) Contains(key string) bool {
	i := sort.SearchStrings(s, key)
	return i < len(s) && s[i] == key
}

// Equal compares two selections as sets.
func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Keys returns a copy of the selection's keys.
func (s Selection) Keys() []string {
	return append([]string(nil), s...)
}

func (s Selection) String() string {
	return strings.Join(s, ",")
}

// TimeSeriesRecord is one dated row of metric values.
type TimeSeriesRecord struct {
	Date   time.Time
	Values map[string]float64
}

// CategoryRecord is one pickup category with on-lot quantities.
type CategoryRecord struct {
	Code                     string
	Label                    string
	QuantityWithDirtbikes    int
	QuantityWithoutDirtbikes int
}

// VehicleRecord is one impounded vehicle as exported by the lot system.
// Zero ReleasedOn means still on the lot; zero CodeChangedOn means the
// pickup code never changed.
type VehicleRecord struct {
	PropertyNumber     string
	ReceivedOn         time.Time
	ReleasedOn         time.Time
	PickupCode         string
	CodeChangedOn      time.Time
	OriginalPickupCode string
	PropertyType       string
}

// DailyStat is the per-day quantity and age of vehicles in one category.
type DailyStat struct {
	Date              time.Time
	Category          string
	IncludesDirtbikes bool
	Quantity          int
	AverageAge        float64
	MedianAge         float64
}

// OldestVehicle is one row of the oldest-vehicles table.
type OldestVehicle struct {
	PropertyNumber string
	ReceivedOn     time.Time
	AgeDays        int
	Category       string
	PropertyType   string
}
