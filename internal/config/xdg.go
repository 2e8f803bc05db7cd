// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "towstat"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDataDir holds the base CSV files written by the aggregate command.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), appName)
}

// DefaultTimeSeriesPath returns the default time-series CSV path.
func DefaultTimeSeriesPath() string {
	return filepath.Join(DefaultDataDir(), "timeseries.csv")
}

// DefaultCategoriesPath returns the default category CSV path.
func DefaultCategoriesPath() string {
	return filepath.Join(DefaultDataDir(), "categories.csv")
}

// DefaultOldestPath returns the default oldest-vehicles CSV path.
func DefaultOldestPath() string {
	return filepath.Join(DefaultDataDir(), "oldest.csv")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}
