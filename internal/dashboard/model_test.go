package dashboard

import (
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/tables"
)

func day(n int) time.Time {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC)
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })

	records := make([]model.TimeSeriesRecord, 0, 20)
	for i := 1; i <= 20; i++ {
		records = append(records, model.TimeSeriesRecord{
			Date:   day(i),
			Values: map[string]float64{"total_num": float64(i), "total_nondb_num": float64(i) / 2},
		})
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
		{PropertyNumber: "P1", ReceivedOn: day(1), AgeDays: 20, Category: "police_action", PropertyType: "CAR"},
	})
	sched, err := session.New(tables.New(ts, cats, oldest), session.Params{
		DateRange:        model.DateRange{Start: day(11), End: day(20)},
		Metrics:          model.NewSelection("total_num"),
		Categories:       model.NewSelection("111", "112"),
		IncludeDirtbikes: true,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	m := NewModel(sched)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewShowsTabsAndSettings(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	if !containsAll(out, []string{"Time Series", "On Lot", "Oldest", "Range: 2020-01-11..2020-01-20", "Dirtbikes: included", "Total count"}) {
		t.Fatalf("view missing expected segments:\n%s", out)
	}
}

func TestToggleDirtbikesRerendersOnlyDataset(t *testing.T) {
	m := newTestModel(t)
	before := m.renders
	catVersion := m.views.Categories.Version

	m.Update(key("d"))
	if m.views.IncludeDirtbikes {
		t.Fatalf("expected dirtbikes excluded after toggle")
	}
	if m.views.Categories.Version != catVersion {
		t.Fatalf("category snapshot should not be recomputed")
	}
	// dataset content plus the quantity column of the On Lot table
	if got := m.renders - before; got != 2 {
		t.Fatalf("expected 2 renders, got %d", got)
	}
	if !strings.Contains(m.timeline.View(), "Total count (no dirtbikes)") {
		t.Fatalf("expected non-dirtbike series in timeline:\n%s", m.timeline.View())
	}
}

func TestShiftWindowMovesByItsLength(t *testing.T) {
	m := newTestModel(t)
	m.Update(key("-"))
	got := m.sched.Params().DateRange
	want := model.DateRange{Start: day(1), End: day(10)}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if m.views.Dataset.Len() != 10 {
		t.Fatalf("expected 10 rows, got %d", m.views.Dataset.Len())
	}
}

func TestUnchangedViewsAreNotRerendered(t *testing.T) {
	m := newTestModel(t)
	before := m.renders
	m.apply(session.CategoriesChanged{Categories: model.NewSelection("111", "112")})
	if m.renders != before {
		t.Fatalf("expected no re-render for identical selection, got %d", m.renders-before)
	}
}

func TestSettingsFormAppliesChanges(t *testing.T) {
	m := newTestModel(t)
	m.Update(key("/"))
	if !m.settingsMode {
		t.Fatalf("expected settings mode")
	}
	m.settings[fieldStart].SetValue("2020-01-03")
	m.settings[fieldEnd].SetValue("2020-01-05")
	m.settings[fieldCategories].SetValue("112")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.settingsMode {
		t.Fatalf("expected settings mode to close, error %q", m.settingsError)
	}
	if m.views.Dataset.Len() != 3 {
		t.Fatalf("expected 3 dataset rows, got %d", m.views.Dataset.Len())
	}
	if m.views.Categories.Len() != 1 || m.views.Categories.Rows[0].Code != "112" {
		t.Fatalf("unexpected categories %+v", m.views.Categories.Rows)
	}
}

func TestSettingsFormRejectsInvertedRange(t *testing.T) {
	m := newTestModel(t)
	m.Update(key("/"))
	m.settings[fieldStart].SetValue("2020-01-09")
	m.settings[fieldEnd].SetValue("2020-01-02")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if !m.settingsMode || m.settingsError == "" {
		t.Fatalf("expected the form to stay open with an error")
	}
	if got := m.sched.Params().DateRange; !got.Equal(model.DateRange{Start: day(11), End: day(20)}) {
		t.Fatalf("expected range untouched, got %s", got)
	}
}

func TestOnLotTabShowsSelectedVariant(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	out := m.View()
	if !containsAll(out, []string{"On lot", "7", "Police Action"}) {
		t.Fatalf("on-lot tab missing expected segments:\n%s", out)
	}
	m.Update(key("d"))
	if !strings.Contains(m.View(), "4") {
		t.Fatalf("expected non-dirtbike total 4:\n%s", m.View())
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
