package session

import (
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/tables"
)

func day(n int) time.Time {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC)
}

func testBase(t *testing.T) *tables.BaseTables {
	t.Helper()
	columns := []string{"total_num", "total_nondb_num", "accident_num", "accident_nondb_num"}
	records := make([]model.TimeSeriesRecord, 0, 10)
	for i := 1; i <= 10; i++ {
		records = append(records, model.TimeSeriesRecord{
			Date: day(i),
			Values: map[string]float64{
				"total_num":          float64(10 * i),
				"total_nondb_num":    float64(10*i - 1),
				"accident_num":       float64(i),
				"accident_nondb_num": float64(i - 1),
			},
		})
	}
	ts, err := tables.NewTimeSeriesTable(columns, records)
	require.NoError(t, err)
	cats, err := tables.NewCategoryTable([]model.CategoryRecord{
		{Code: "111", Label: "Police Action", QuantityWithDirtbikes: 5, QuantityWithoutDirtbikes: 3},
		{Code: "112", Label: "Accident", QuantityWithDirtbikes: 2, QuantityWithoutDirtbikes: 1},
	})
	require.NoError(t, err)
	return tables.New(ts, cats, nil)
}

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	s, err := New(testBase(t), Params{
		DateRange:        model.DateRange{Start: day(1), End: day(10)},
		Metrics:          model.NewSelection("total_num"),
		Categories:       model.NewSelection("111", "112"),
		IncludeDirtbikes: true,
	})
	require.NoError(t, err)
	return s
}

func TestCategoryChangeKeepsDatasetSnapshot(t *testing.T) {
	s := newScheduler(t)
	before := s.Views()

	after, err := s.Apply(CategoriesChanged{Categories: model.NewSelection("111")})
	require.NoError(t, err)
	require.Same(t, before.Dataset, after.Dataset)
	require.Equal(t, before.Dataset.Version, after.Dataset.Version)
	require.NotSame(t, before.Categories, after.Categories)
	require.Equal(t, before.Categories.Version+1, after.Categories.Version)
	require.Len(t, after.Categories.Rows, 1)

	stats := s.Stats()
	require.Equal(t, 1, stats.DatasetRecomputes)
	require.Equal(t, 2, stats.CategoryRecomputes)
}

func TestDatasetChangesKeepCategorySnapshot(t *testing.T) {
	changes := []Change{
		DateRangeChanged{Range: model.DateRange{Start: day(3), End: day(6)}},
		MetricsChanged{Metrics: model.NewSelection("total_num", "accident_num")},
		DirtbikesToggled{Include: false},
	}
	for _, change := range changes {
		t.Run(change.String(), func(t *testing.T) {
			s := newScheduler(t)
			before := s.Views()
			after, err := s.Apply(change)
			require.NoError(t, err)
			require.Same(t, before.Categories, after.Categories)
			require.NotSame(t, before.Dataset, after.Dataset)
			require.Greater(t, after.Dataset.Version, before.Dataset.Version)
		})
	}
}

func TestNoStaleDatasetAfterChange(t *testing.T) {
	s := newScheduler(t)

	views, err := s.Apply(DateRangeChanged{Range: model.DateRange{Start: day(3), End: day(6)}})
	require.NoError(t, err)
	require.Len(t, views.Dataset.Rows, 4)
	require.True(t, views.Dataset.Rows[0].Date.Equal(day(3)))
	require.Equal(t, []string{"date", "total_num"}, views.Dataset.Fields())

	views, err = s.Apply(DirtbikesToggled{Include: false})
	require.NoError(t, err)
	require.Equal(t, []string{"total_nondb_num"}, views.Dataset.Columns)
	v, ok := views.Dataset.Value(0, "total_nondb_num")
	require.True(t, ok)
	require.Equal(t, 29.0, v)
	require.False(t, views.IncludeDirtbikes)

	views, err = s.Apply(MetricsChanged{Metrics: model.NewSelection()})
	require.NoError(t, err)
	require.Equal(t, []string{"date"}, views.Dataset.Fields())
	require.Len(t, views.Dataset.Rows, 4)
}

func TestRepeatedValueDoesNotRecompute(t *testing.T) {
	s := newScheduler(t)
	before := s.Views()

	_, err := s.Apply(MetricsChanged{Metrics: model.NewSelection("total_num", "total_num")})
	require.NoError(t, err)
	_, err = s.Apply(CategoriesChanged{Categories: model.NewSelection("112", "111")})
	require.NoError(t, err)
	_, err = s.Apply(DateRangeChanged{Range: model.DateRange{Start: day(1).Add(5 * time.Hour), End: day(10)}})
	require.NoError(t, err)

	after := s.Views()
	require.Same(t, before.Dataset, after.Dataset)
	require.Same(t, before.Categories, after.Categories)
	require.Equal(t, Stats{Changes: 3, DatasetRecomputes: 1, CategoryRecomputes: 1}, s.Stats())
}

func TestToggleRoundTripRestoresColumns(t *testing.T) {
	s := newScheduler(t)
	_, err := s.Apply(MetricsChanged{Metrics: model.NewSelection("total_num", "accident_num")})
	require.NoError(t, err)
	original := s.Columns()

	_, err = s.Apply(DirtbikesToggled{Include: false})
	require.NoError(t, err)
	require.Equal(t, []string{"accident_nondb_num", "total_nondb_num"}, s.Columns())

	_, err = s.Apply(DirtbikesToggled{Include: true})
	require.NoError(t, err)
	require.Equal(t, original, s.Columns())
}

func TestInvalidRangeLeavesStateUntouched(t *testing.T) {
	s := newScheduler(t)
	before := s.Views()
	params := s.Params()

	_, err := s.Apply(DateRangeChanged{Range: model.DateRange{Start: day(6), End: day(3)}})
	require.True(t, errors.Is(err, ErrInvalidDateRange))
	require.Equal(t, params, s.Params())
	require.Same(t, before.Dataset, s.Views().Dataset)
	require.Equal(t, 0, s.Stats().Changes)

	_, err = New(testBase(t), Params{DateRange: model.DateRange{Start: day(2), End: day(1)}})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestDefaultParams(t *testing.T) {
	base := testBase(t)
	p := DefaultParams(base, Defaults{Days: 3, Metrics: []string{"total_num"}, IncludeDirtbikes: true})
	require.True(t, p.DateRange.Equal(model.DateRange{Start: day(8), End: day(10)}))
	require.Equal(t, model.NewSelection("111", "112"), p.Categories)
	require.Equal(t, model.NewSelection("total_num"), p.Metrics)

	all := DefaultParams(base, Defaults{})
	require.True(t, all.DateRange.Equal(model.DateRange{Start: day(1), End: day(10)}))

	empty := DefaultParams(tables.New(nil, nil, nil), Defaults{Days: 7, Today: day(15).Add(13 * time.Hour)})
	require.True(t, empty.DateRange.Equal(model.DateRange{Start: day(15), End: day(15)}))
	require.Empty(t, empty.Categories)
}
