package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/towstat/internal/config"
	"github.com/verte-zerg/towstat/internal/monitoring"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("towstat %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func setupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	return dir
}

func TestSampleAggregateShow(t *testing.T) {
	dir := setupHome(t)
	vehicles := filepath.Join(dir, "vehicles.csv")

	runCLI(t, "sample", "--count", "300", "--seed", "3", "--history-days", "60", "--as-of", "2020-03-01", "-o", vehicles)
	runCLI(t, "aggregate", vehicles, "--as-of", "2020-03-01")

	for _, path := range []string{config.DefaultTimeSeriesPath(), config.DefaultCategoriesPath(), config.DefaultOldestPath(), config.DefaultDBPath()} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}

	out := runCLI(t, "show", "--width", "40", "--start", "2020-02-01", "--end", "2020-03-01")
	for _, want := range []string{"Vehicles on lot 2020-02-01..2020-03-01", "Total count", "On lot (with dirtbikes)", "Oldest vehicles"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in show output:\n%s", want, out)
		}
	}

	fromDB := runCLI(t, "show", "--from-db", "--width", "40", "--start", "2020-02-01", "--end", "2020-03-01", "--include-dirtbikes=false")
	if !strings.Contains(fromDB, "Total count (no dirtbikes)") {
		t.Fatalf("expected non-dirtbike series from the store:\n%s", fromDB)
	}
}

func TestAggregateKeepsStoredDates(t *testing.T) {
	dir := setupHome(t)
	vehicles := filepath.Join(dir, "vehicles.csv")
	runCLI(t, "sample", "--count", "50", "--seed", "9", "--history-days", "20", "--as-of", "2020-01-20", "-o", vehicles)
	runCLI(t, "aggregate", vehicles, "--as-of", "2020-01-20")
	first, err := os.ReadFile(config.DefaultTimeSeriesPath())
	if err != nil {
		t.Fatalf("read time series: %v", err)
	}
	runCLI(t, "aggregate", vehicles, "--as-of", "2020-01-20")
	second, err := os.ReadFile(config.DefaultTimeSeriesPath())
	if err != nil {
		t.Fatalf("read time series: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected a repeated run to keep the stored rows")
	}
}

func TestExportHTML(t *testing.T) {
	dir := setupHome(t)
	vehicles := filepath.Join(dir, "vehicles.csv")
	page := filepath.Join(dir, "out.html")
	runCLI(t, "sample", "--count", "80", "--seed", "5", "--history-days", "30", "--as-of", "2020-01-30", "-o", vehicles)
	runCLI(t, "aggregate", vehicles, "--as-of", "2020-01-30")
	runCLI(t, "export", "html", "-o", page, "--metrics", "total_num,accident_avg")

	data, err := os.ReadFile(page)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	for _, want := range []string{"Vehicles on lot", "On lot by category", "Accident average age"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in exported page", want)
		}
	}
}

func TestMissingInputIsFatal(t *testing.T) {
	setupHome(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error without input files")
	}
}

func TestSuffixPath(t *testing.T) {
	if got := suffixPath("out/chart.png", "-categories"); got != "out/chart-categories.png" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := suffixPath("chart", "-x"); got != "chart-x" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Data.TimeSeries != nil || cfg.Dashboard.Days != nil {
		t.Fatalf("expected every template value commented out")
	}
}
