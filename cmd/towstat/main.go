// Package main provides the CLI entrypoint for towstat.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/towstat/internal/config"
	"github.com/verte-zerg/towstat/internal/dashboard"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/report"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/store"
	"github.com/verte-zerg/towstat/internal/tables"
)

const (
	defaultMetrics = "total_num"
	defaultDays    = 90
	defaultOldest  = 25
)

var (
	dataTimeSeries string
	dataCategories string
	dataOldest     string
	dataFromDB     bool
	dataDBPath     string

	viewMetrics    string
	viewDays       int
	viewDirtbikes  bool
	viewStart      string
	viewEnd        string
	viewCategories string

	logFile string

	showWidth  int
	showOldest int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "towstat",
		Short:         "Impound lot statistics dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dataTimeSeries, "timeseries", config.DefaultTimeSeriesPath(), "time-series CSV")
	flags.StringVar(&dataCategories, "categories", config.DefaultCategoriesPath(), "category CSV")
	flags.StringVar(&dataOldest, "oldest", config.DefaultOldestPath(), "oldest-vehicles CSV (optional)")
	flags.BoolVar(&dataFromDB, "from-db", false, "load base tables from the SQLite store instead of CSV")
	flags.StringVar(&dataDBPath, "db", config.DefaultDBPath(), "SQLite store path")
	flags.StringVar(&viewMetrics, "metrics", defaultMetrics, "comma separated metric keys")
	flags.IntVar(&viewDays, "days", defaultDays, "initial window in days ending on the last loaded date (0 = all)")
	flags.BoolVar(&viewDirtbikes, "include-dirtbikes", true, "count dirtbikes, scooters and ATVs")
	flags.StringVar(&viewStart, "start", "", "window start (YYYY-MM-DD), overrides --days")
	flags.StringVar(&viewEnd, "end", "", "window end (YYYY-MM-DD)")
	flags.StringVar(&viewCategories, "select", "", "comma separated category codes (default: all)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write diagnostics to this file while the dashboard runs")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAggregateCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	sched, err := openSession(cmd)
	if err != nil {
		return err
	}

	restore, err := redirectDiagnostics(logFile)
	if err != nil {
		return err
	}
	defer restore()

	program := tea.NewProgram(dashboard.NewModel(sched), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	monitoring.Logf("session closed: %s", sched.Stats())
	return nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the dashboard views as a text report",
		Args:  cobra.NoArgs,
		RunE:  runShowCmd,
	}
	cmd.Flags().IntVar(&showWidth, "width", 0, "plot width (default: terminal width)")
	cmd.Flags().IntVar(&showOldest, "oldest-rows", defaultOldest, "oldest vehicles to print (0 = all)")
	return cmd
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	sched, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), sched.Views(), report.Options{PlotWidth: showWidth, Oldest: showOldest}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// openSession loads the config, the base tables and the starting parameters.
// A LoadError stops the command before any view is built.
func openSession(cmd *cobra.Command) (*session.Scheduler, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "timeseries", &dataTimeSeries, fileCfg.Data.TimeSeries)
	applyStringConfig(cmd, "categories", &dataCategories, fileCfg.Data.Categories)
	applyStringConfig(cmd, "oldest", &dataOldest, fileCfg.Data.Oldest)
	applyBoolConfig(cmd, "from-db", &dataFromDB, fileCfg.Data.UseDB)
	applyStringConfig(cmd, "db", &dataDBPath, fileCfg.Data.DBPath)
	applyListConfig(cmd, "metrics", &viewMetrics, fileCfg.Dashboard.Metrics)
	applyIntConfig(cmd, "days", &viewDays, fileCfg.Dashboard.Days)
	applyBoolConfig(cmd, "include-dirtbikes", &viewDirtbikes, fileCfg.Dashboard.IncludeDirtbikes)

	base, err := loadBase(cmd.Context())
	if err != nil {
		return nil, err
	}

	params := session.DefaultParams(base, session.Defaults{
		Days:             viewDays,
		Metrics:          model.ParseSelection(viewMetrics),
		IncludeDirtbikes: viewDirtbikes,
		Today:            time.Now(),
	})
	if params.DateRange, err = overrideRange(params.DateRange, viewStart, viewEnd); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("select") {
		params.Categories = model.ParseSelection(viewCategories)
	}
	sched, err := session.New(base, params)
	if err != nil {
		return nil, fmt.Errorf("invalid starting parameters: %w", err)
	}
	return sched, nil
}

func loadBase(ctx context.Context) (*tables.BaseTables, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !dataFromDB {
		oldest := dataOldest
		if _, err := os.Stat(oldest); err != nil && os.IsNotExist(err) {
			logErrf("oldest-vehicles file %s not found; skipping\n", oldest)
			oldest = ""
		}
		base, err := tables.LoadCSV(tables.Sources{TimeSeries: dataTimeSeries, Categories: dataCategories, Oldest: oldest})
		if err != nil {
			logErrln("Run `towstat aggregate <vehicles.csv>` or `towstat sample` to create the input files.")
			return nil, err
		}
		return base, nil
	}

	st, err := store.Open(dataDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return tables.LoadStore(ctx, st)
}

func overrideRange(r model.DateRange, start, end string) (model.DateRange, error) {
	if start != "" {
		parsed, err := model.ParseDate(start)
		if err != nil {
			return r, fmt.Errorf("invalid --start value: %w", err)
		}
		r.Start = parsed
	}
	if end != "" {
		parsed, err := model.ParseDate(end)
		if err != nil {
			return r, fmt.Errorf("invalid --end value: %w", err)
		}
		r.End = parsed
	}
	return r, nil
}

// redirectDiagnostics keeps monitoring output off the terminal while the
// dashboard owns it.
func redirectDiagnostics(path string) (func(), error) {
	if path == "" {
		monitoring.SetLogger(nil)
		return func() { monitoring.SetLogger(log.Printf) }, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	monitoring.SetLogger(log.New(file, "towstat ", log.LstdFlags).Printf)
	return func() {
		monitoring.SetLogger(log.Printf)
		if cerr := file.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyListConfig(cmd *cobra.Command, name string, target *string, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = strings.Join(*value, ",")
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# towstat configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# timeseries = %q     # Time-series CSV
# categories = %q     # Category CSV
# oldest = %q         # Oldest-vehicles CSV (optional)
# use-db = false      # Load base tables from the SQLite store
# db = %q             # SQLite store path

[dashboard]
# metrics = [%q]      # Metric keys shown at startup
# days = %d           # Initial window in days (0 = all)
# include-dirtbikes = true
`,
		config.DefaultTimeSeriesPath(),
		config.DefaultCategoriesPath(),
		config.DefaultOldestPath(),
		config.DefaultDBPath(),
		defaultMetrics,
		defaultDays,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
