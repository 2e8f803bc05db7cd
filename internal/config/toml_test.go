package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.TimeSeries != nil || cfg.Dashboard.Days != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[data]
timeseries = "/srv/towstat/ts.csv"
use-db = true

[dashboard]
metrics = ["total_num", "accident_avg"]
days = 30
include-dirtbikes = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.TimeSeries == nil || *cfg.Data.TimeSeries != "/srv/towstat/ts.csv" {
		t.Fatalf("unexpected timeseries path %v", cfg.Data.TimeSeries)
	}
	if cfg.Data.Categories != nil {
		t.Fatalf("expected unset categories path")
	}
	if cfg.Data.UseDB == nil || !*cfg.Data.UseDB {
		t.Fatalf("expected use-db true")
	}
	if cfg.Dashboard.Metrics == nil || len(*cfg.Dashboard.Metrics) != 2 {
		t.Fatalf("unexpected metrics %v", cfg.Dashboard.Metrics)
	}
	if cfg.Dashboard.Days == nil || *cfg.Dashboard.Days != 30 {
		t.Fatalf("unexpected days %v", cfg.Dashboard.Days)
	}
	if cfg.Dashboard.IncludeDirtbikes == nil || *cfg.Dashboard.IncludeDirtbikes {
		t.Fatalf("expected include-dirtbikes false")
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[dashboard]\nweeks = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "towstat", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "towstat", "towstat.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
