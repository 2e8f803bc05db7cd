// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data      DataConfig      `toml:"data"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// DataConfig maps the base table sources.
type DataConfig struct {
	TimeSeries *string `toml:"timeseries"`
	Categories *string `toml:"categories"`
	Oldest     *string `toml:"oldest"`
	UseDB      *bool   `toml:"use-db"`
	DBPath     *string `toml:"db"`
}

// DashboardConfig maps the starting parameters of a session.
type DashboardConfig struct {
	Metrics          *[]string `toml:"metrics"`
	Days             *int      `toml:"days"`
	IncludeDirtbikes *bool     `toml:"include-dirtbikes"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
