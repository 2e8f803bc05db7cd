// Package aggregate turns impound lot vehicle records into the daily
// statistics, category counts and oldest-vehicle list the dashboard loads.
package aggregate

import (
	"regexp"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/towstat/internal/metric"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
)

// PoliceHoldCodes are counted as police holds instead of police action.
var PoliceHoldCodes = []string{"111B", "111M", "111N", "111P", "111S", "200P"}

// DirtbikeTypes are the property types that are not full size vehicles.
var DirtbikeTypes = []string{"DB", "SCOT", "ATV"}

// The lot system stores missing dates as dates before this one.
var nullDateCutoff = time.Date(1900, 12, 31, 0, 0, 0, 0, time.UTC)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// IsNullDate reports whether t stands for a missing date.
func IsNullDate(t time.Time) bool {
	return t.IsZero() || t.Before(nullDateCutoff)
}

// IsDirtbike reports whether the property type is a dirtbike, scooter or ATV.
func IsDirtbike(propertyType string) bool {
	for _, t := range DirtbikeTypes {
		if propertyType == t {
			return true
		}
	}
	return false
}

// Classify maps a pickup code to its category. Sub-codes are merged into
// their base code; empty and unknown codes fall into nocode.
func Classify(code string) metric.Category {
	nocode, _ := metric.CategoryByCode("1000")
	if code == "" {
		return nocode
	}
	for _, hold := range PoliceHoldCodes {
		if code == hold {
			c, _ := metric.CategoryByCode("1111")
			return c
		}
	}
	base := nonDigits.ReplaceAllString(code, "")
	if base == "" || base == metric.Total.Code {
		return nocode
	}
	if c, ok := metric.CategoryByCode(base); ok {
		return c
	}
	return nocode
}

// Options bounds an aggregation run.
type Options struct {
	// AsOf is the end date for vehicles still on the lot.
	AsOf time.Time
	// From and To limit the emitted dates. Zero values are unbounded.
	From time.Time
	To   time.Time
	// Oldest is the number of oldest on-lot vehicles to report.
	Oldest int
}

// Result is the output of Run.
type Result struct {
	Stats      []model.DailyStat
	Categories []model.CategoryRecord
	Oldest     []model.OldestVehicle
	Vehicles   int
	Skipped    int
}

type bucket struct {
	all   []float64
	nondb []float64
}

// Accumulator collects the age of every vehicle on the lot per day and
// category.
type Accumulator struct {
	asOf    time.Time
	days    map[time.Time]map[string]*bucket
	added   int
	skipped int
}

// NewAccumulator returns an empty accumulator. Vehicles without a release
// date are counted through asOf.
func NewAccumulator(asOf time.Time) *Accumulator {
	return &Accumulator{asOf: model.Date(asOf), days: map[time.Time]map[string]*bucket{}}
}

// Add records one vehicle. A vehicle whose pickup code changed is split at
// the change date; the second segment continues the vehicle's age. Vehicles
// without a usable received date are skipped and reported false.
func (a *Accumulator) Add(v model.VehicleRecord) bool {
	if IsNullDate(v.ReceivedOn) {
		monitoring.Logf("skipping %s: missing received date", v.PropertyNumber)
		a.skipped++
		return false
	}
	received := model.Date(v.ReceivedOn)
	released := a.asOf
	if !IsNullDate(v.ReleasedOn) {
		released = model.Date(v.ReleasedOn)
	}
	dirtbike := IsDirtbike(v.PropertyType)

	changed := model.Date(v.CodeChangedOn)
	if IsNullDate(v.CodeChangedOn) || changed.Before(received) {
		a.addSegment(received, released, Classify(v.PickupCode), dirtbike, 0)
	} else {
		a.addSegment(received, changed.AddDate(0, 0, -1), Classify(v.OriginalPickupCode), dirtbike, 0)
		a.addSegment(changed, released, Classify(v.PickupCode), dirtbike, daysBetween(received, changed))
	}
	a.added++
	return true
}

func (a *Accumulator) addSegment(start, end time.Time, category metric.Category, dirtbike bool, offset int) {
	for i, d := 0, start; !d.After(end); i, d = i+1, d.AddDate(0, 0, 1) {
		age := float64(i + offset + 1)
		day := a.days[d]
		if day == nil {
			day = map[string]*bucket{}
			a.days[d] = day
		}
		for _, name := range []string{category.Name, metric.Total.Name} {
			b := day[name]
			if b == nil {
				b = &bucket{}
				day[name] = b
			}
			b.all = append(b.all, age)
			if !dirtbike {
				b.nondb = append(b.nondb, age)
			}
		}
	}
}

// Dates returns every date with at least one vehicle, ascending.
func (a *Accumulator) Dates() []time.Time {
	out := make([]time.Time, 0, len(a.days))
	for d := range a.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Ages returns the ages recorded for a category on a date.
func (a *Accumulator) Ages(date time.Time, category string, includeDirtbikes bool) []float64 {
	b := a.days[model.Date(date)][category]
	if b == nil {
		return nil
	}
	if includeDirtbikes {
		return append([]float64(nil), b.all...)
	}
	return append([]float64(nil), b.nondb...)
}

// DailyStats emits one row per date, catalog category and dirtbike variant
// for dates within [from, to]. Zero bounds are open.
func (a *Accumulator) DailyStats(from, to time.Time) []model.DailyStat {
	var out []model.DailyStat
	for _, d := range a.Dates() {
		if !from.IsZero() && d.Before(model.Date(from)) {
			continue
		}
		if !to.IsZero() && d.After(model.Date(to)) {
			continue
		}
		for _, c := range metric.AllCategories() {
			for _, include := range []bool{true, false} {
				out = append(out, summarize(d, c.Name, include, a.Ages(d, c.Name, include)))
			}
		}
	}
	return out
}

// CategoryCounts returns the on-lot quantity of every category on date, in
// catalog order.
func (a *Accumulator) CategoryCounts(date time.Time) []model.CategoryRecord {
	out := make([]model.CategoryRecord, 0, len(metric.Categories))
	for _, c := range metric.Categories {
		out = append(out, model.CategoryRecord{
			Code:                     c.Code,
			Label:                    c.Label,
			QuantityWithDirtbikes:    len(a.Ages(date, c.Name, true)),
			QuantityWithoutDirtbikes: len(a.Ages(date, c.Name, false)),
		})
	}
	return out
}

func summarize(date time.Time, category string, includeDirtbikes bool, ages []float64) model.DailyStat {
	st := model.DailyStat{
		Date:              date,
		Category:          category,
		IncludesDirtbikes: includeDirtbikes,
		Quantity:          len(ages),
	}
	if len(ages) == 0 {
		return st
	}
	st.AverageAge = stat.Mean(ages, nil)
	st.MedianAge = median(ages)
	return st
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// Oldest returns up to n vehicles still on the lot at asOf, oldest first.
func Oldest(vehicles []model.VehicleRecord, asOf time.Time, n int) []model.OldestVehicle {
	asOf = model.Date(asOf)
	var out []model.OldestVehicle
	for _, v := range vehicles {
		if IsNullDate(v.ReceivedOn) {
			continue
		}
		received := model.Date(v.ReceivedOn)
		if received.After(asOf) {
			continue
		}
		if !IsNullDate(v.ReleasedOn) && model.Date(v.ReleasedOn).Before(asOf) {
			continue
		}
		out = append(out, model.OldestVehicle{
			PropertyNumber: v.PropertyNumber,
			ReceivedOn:     received,
			AgeDays:        daysBetween(received, asOf) + 1,
			Category:       Classify(v.PickupCode).Name,
			PropertyType:   v.PropertyType,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AgeDays != out[j].AgeDays {
			return out[i].AgeDays > out[j].AgeDays
		}
		return out[i].PropertyNumber < out[j].PropertyNumber
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Run aggregates every vehicle. Category counts are taken on the last
// emitted date, or on AsOf when no date was emitted.
func Run(vehicles []model.VehicleRecord, opts Options) Result {
	asOf := model.Date(opts.AsOf)
	acc := NewAccumulator(asOf)
	for _, v := range vehicles {
		acc.Add(v)
	}
	to := opts.To
	if to.IsZero() {
		to = asOf
	}
	res := Result{
		Stats:    acc.DailyStats(opts.From, to),
		Vehicles: acc.added,
		Skipped:  acc.skipped,
	}
	countDate := model.Date(to)
	if len(res.Stats) > 0 {
		countDate = res.Stats[len(res.Stats)-1].Date
	}
	res.Categories = acc.CategoryCounts(countDate)
	res.Oldest = Oldest(vehicles, countDate, opts.Oldest)
	monitoring.Logf("aggregated %d vehicles (%d skipped) into %d daily stats", res.Vehicles, res.Skipped, len(res.Stats))
	return res
}

// FilterNew drops stats whose date is already stored.
func FilterNew(stats []model.DailyStat, existing map[time.Time]struct{}) []model.DailyStat {
	if len(existing) == 0 {
		return stats
	}
	out := make([]model.DailyStat, 0, len(stats))
	for _, st := range stats {
		if _, ok := existing[model.Date(st.Date)]; ok {
			continue
		}
		out = append(out, st)
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
