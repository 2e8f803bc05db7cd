package report

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/tables"
)

func testViews(t *testing.T, includeDirtbikes bool) session.Views {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })

	day := func(n int) time.Time { return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC) }
	records := []model.TimeSeriesRecord{
		{Date: day(1), Values: map[string]float64{"total_num": 10, "total_nondb_num": 8}},
		{Date: day(2), Values: map[string]float64{"total_num": 12, "total_nondb_num": 9}},
		{Date: day(3), Values: map[string]float64{"total_num": 17, "total_nondb_num": 15}},
	}
	ts, err := tables.NewTimeSeriesTable([]string{"total_num", "total_nondb_num"}, records)
	if err != nil {
		t.Fatalf("NewTimeSeriesTable: %v", err)
	}
	cats, err := tables.NewCategoryTable([]model.CategoryRecord{
		{Code: "111", Label: "Police Action", QuantityWithDirtbikes: 5, QuantityWithoutDirtbikes: 3},
		{Code: "112", Label: "Accident", QuantityWithDirtbikes: 2, QuantityWithoutDirtbikes: 1},
	})
	if err != nil {
		t.Fatalf("NewCategoryTable: %v", err)
	}
	oldest := tables.OldestTable([]model.OldestVehicle{
		{PropertyNumber: "P1", ReceivedOn: day(1), AgeDays: 3, Category: "police_action", PropertyType: "CAR"},
		{PropertyNumber: "P2", ReceivedOn: day(2), AgeDays: 2, Category: "accident", PropertyType: "VAN"},
	})
	s, err := session.New(tables.New(ts, cats, oldest), session.Params{
		DateRange:        model.DateRange{Start: day(1), End: day(3)},
		Metrics:          model.NewSelection("total_num"),
		Categories:       model.NewSelection("111", "112"),
		IncludeDirtbikes: includeDirtbikes,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s.Views()
}

func TestWriteRendersEverySection(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testViews(t, true), Options{PlotWidth: 20, PlotHeight: 4}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Vehicles on lot 2020-01-01..2020-01-03",
		"Summary",
		"Total count",
		"On lot (with dirtbikes)",
		"Police Action",
		"Selected",
		"Oldest vehicles",
		"P1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestWriteUsesSelectedVariant(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testViews(t, false), Options{PlotWidth: 20, PlotHeight: 4, Oldest: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Total count (no dirtbikes)") {
		t.Fatalf("expected non-dirtbike series label:\n%s", out)
	}
	if !strings.Contains(out, "On lot (without dirtbikes)") {
		t.Fatalf("expected variant in category title:\n%s", out)
	}
	// 3 + 1 without dirtbikes
	if !strings.Contains(out, "Selected             4") {
		t.Fatalf("expected selected total of 4:\n%s", out)
	}
	if strings.Contains(out, "P2") {
		t.Fatalf("expected oldest table capped at one row:\n%s", out)
	}
}

func TestWriteEmptyRange(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, session.Views{}, Options{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No data in the selected date range.") {
		t.Fatalf("expected empty dataset note, got %q", out)
	}
	if !strings.Contains(out, "On lot (without dirtbikes): none") {
		t.Fatalf("expected empty category note, got %q", out)
	}
}
