package tables

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/towstat/internal/metric"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/store"
)

// storePath labels LoadErrors raised while reading the SQLite cache.
const storePath = "<store>"

// LoadStore builds the base tables from the SQLite cache written by the
// aggregate command. Any failure is returned as a *LoadError.
func LoadStore(ctx context.Context, st *store.Store) (*BaseTables, error) {
	stats, err := st.ListDailyStats(ctx, nil, nil)
	if err != nil {
		return nil, &LoadError{Path: storePath, Column: "daily_stats", Err: err}
	}
	ts, err := PivotDailyStats(stats)
	if err != nil {
		return nil, &LoadError{Path: storePath, Column: "daily_stats", Err: err}
	}
	records, err := st.ListCategories(ctx)
	if err != nil {
		return nil, &LoadError{Path: storePath, Column: "category_counts", Err: err}
	}
	cats, err := NewCategoryTable(records)
	if err != nil {
		return nil, &LoadError{Path: storePath, Column: "category_counts", Err: err}
	}
	oldest, err := st.ListOldest(ctx)
	if err != nil {
		return nil, &LoadError{Path: storePath, Column: "oldest_vehicles", Err: err}
	}
	base := New(ts, cats, OldestTable(oldest))
	monitoring.Logf("loaded %d time-series rows, %d categories, %d oldest vehicles from store",
		base.TimeSeries().Len(), base.Categories().Len(), base.Oldest().Len())
	return base, nil
}

// PivotDailyStats turns long-format daily stats into the wide time-series
// table with {category}[_nondb]_{num|avg} columns.
func PivotDailyStats(stats []model.DailyStat) (*TimeSeriesTable, error) {
	byDate := map[time.Time]map[string]float64{}
	var dates []time.Time
	present := map[string]struct{}{}
	for _, st := range stats {
		date := model.Date(st.Date)
		values, ok := byDate[date]
		if !ok {
			values = map[string]float64{}
			byDate[date] = values
			dates = append(dates, date)
		}
		variant := metric.VariantFor(st.IncludesDirtbikes)
		values[metric.Metric{Name: st.Category, Measure: metric.Count}.Column(variant)] = float64(st.Quantity)
		values[metric.Metric{Name: st.Category, Measure: metric.AverageAge}.Column(variant)] = st.AverageAge
		present[st.Category] = struct{}{}
	}

	records := make([]model.TimeSeriesRecord, 0, len(dates))
	for _, date := range dates {
		records = append(records, model.TimeSeriesRecord{Date: date, Values: byDate[date]})
	}
	return NewTimeSeriesTable(metricColumns(present), records)
}

// metricColumns orders columns by catalog position, unknown categories last.
func metricColumns(present map[string]struct{}) []string {
	var names []string
	for _, c := range metric.AllCategories() {
		if _, ok := present[c.Name]; ok {
			names = append(names, c.Name)
			delete(present, c.Name)
		}
	}
	var extra []string
	for name := range present {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	names = append(names, extra...)

	columns := make([]string, 0, len(names)*4)
	for _, name := range names {
		for _, variant := range []metric.Variant{metric.WithDirtbikes, metric.WithoutDirtbikes} {
			columns = append(columns,
				metric.Metric{Name: name, Measure: metric.Count}.Column(variant),
				metric.Metric{Name: name, Measure: metric.AverageAge}.Column(variant),
			)
		}
	}
	return columns
}

// OldestHeader lists the columns of the oldest-vehicles table.
var OldestHeader = []string{"property_number", "received_on", "age_days", "category", "property_type"}

// OldestTable renders oldest vehicles as a pass-through table.
func OldestTable(vehicles []model.OldestVehicle) *StaticTable {
	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, []string{
			v.PropertyNumber,
			v.ReceivedOn.Format(model.DateLayout),
			strconv.Itoa(v.AgeDays),
			v.Category,
			v.PropertyType,
		})
	}
	return NewStaticTable(OldestHeader, rows)
}
