package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/towstat/internal/aggregate"
	"github.com/verte-zerg/towstat/internal/config"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/store"
	"github.com/verte-zerg/towstat/internal/tables"
)

const (
	defaultSampleCount = 5000
	defaultSampleDays  = 365
)

var (
	aggregateAsOf   string
	aggregateFrom   string
	aggregateTo     string
	aggregateOldest int
	aggregateOutDir string
	aggregateForce  bool
	aggregateNoDB   bool

	sampleCount int
	sampleSeed  int64
	sampleDays  int
	sampleAsOf  string
	sampleOut   string
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate <vehicles.csv>",
		Short: "Build the base tables from a vehicle export",
		Args:  cobra.ExactArgs(1),
		RunE:  runAggregateCmd,
	}
	cmd.Flags().StringVar(&aggregateAsOf, "as-of", "", "end date for vehicles still on the lot (default: today)")
	cmd.Flags().StringVar(&aggregateFrom, "from", "", "first date to emit (YYYY-MM-DD)")
	cmd.Flags().StringVar(&aggregateTo, "to", "", "last date to emit (YYYY-MM-DD, default: --as-of)")
	cmd.Flags().IntVar(&aggregateOldest, "oldest-count", defaultOldest, "oldest vehicles to keep (-1 = all)")
	cmd.Flags().StringVar(&aggregateOutDir, "out-dir", config.DefaultDataDir(), "directory for the base CSV files")
	cmd.Flags().BoolVar(&aggregateForce, "force", false, "recompute dates already in the store")
	cmd.Flags().BoolVar(&aggregateNoDB, "no-db", false, "skip the SQLite store and write CSV only")
	return cmd
}

func runAggregateCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dataDBPath, fileCfg.Data.DBPath)

	opts := aggregate.Options{AsOf: time.Now(), Oldest: aggregateOldest}
	for _, f := range []struct {
		flag   string
		value  string
		target *time.Time
	}{
		{"--as-of", aggregateAsOf, &opts.AsOf},
		{"--from", aggregateFrom, &opts.From},
		{"--to", aggregateTo, &opts.To},
	} {
		if f.value == "" {
			continue
		}
		parsed, err := model.ParseDate(f.value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", f.flag, err)
		}
		*f.target = parsed
	}

	vehicles, err := aggregate.LoadVehicles(args[0])
	if err != nil {
		return err
	}
	res := aggregate.Run(vehicles, opts)
	if res.Skipped > 0 {
		logErrf("Skipped %d vehicles without a received date\n", res.Skipped)
	}

	stats := res.Stats
	if !aggregateNoDB {
		stats, err = persist(cmd.Context(), res)
		if err != nil {
			return err
		}
	}

	ts, err := tables.PivotDailyStats(stats)
	if err != nil {
		return fmt.Errorf("failed to build time-series table: %w", err)
	}
	cats, err := tables.NewCategoryTable(res.Categories)
	if err != nil {
		return fmt.Errorf("failed to build category table: %w", err)
	}
	if err := os.MkdirAll(aggregateOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{filepath.Base(config.DefaultTimeSeriesPath()), func(w io.Writer) error { return tables.WriteTimeSeries(w, ts) }},
		{filepath.Base(config.DefaultCategoriesPath()), func(w io.Writer) error { return tables.WriteCategories(w, cats) }},
		{filepath.Base(config.DefaultOldestPath()), func(w io.Writer) error { return tables.WriteStatic(w, tables.OldestTable(res.Oldest)) }},
	}
	for _, out := range outputs {
		path := filepath.Join(aggregateOutDir, out.name)
		if err := writeFileAtomic(path, out.write); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logErrf("Wrote %s\n", path)
	}
	return nil
}

// persist stores the new daily stats and the latest category and oldest
// tables, then returns every stored daily stat so the CSV covers the full
// history.
func persist(ctx context.Context, res aggregate.Result) ([]model.DailyStat, error) {
	if ctx == nil {
		ctx = context.Background()
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

	stats := res.Stats
	if !aggregateForce {
		existing, err := st.ListDates(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list stored dates: %w", err)
		}
		stats = aggregate.FilterNew(stats, existing)
		if skipped := len(res.Stats) - len(stats); skipped > 0 {
			logErrf("Kept %d stored rows (use --force to recompute)\n", skipped)
		}
	}
	if err := st.UpsertDailyStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to store daily stats: %w", err)
	}
	if err := st.ReplaceCategories(ctx, res.Categories); err != nil {
		return nil, fmt.Errorf("failed to store categories: %w", err)
	}
	if err := st.ReplaceOldest(ctx, res.Oldest); err != nil {
		return nil, fmt.Errorf("failed to store oldest vehicles: %w", err)
	}
	all, err := st.ListDailyStats(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	logErrf("Stored %d daily stat rows in %s\n", len(stats), dataDBPath)
	return all, nil
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic vehicle export",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleCount, "count", defaultSampleCount, "number of vehicles")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().IntVar(&sampleDays, "history-days", defaultSampleDays, "days of history ending on --as-of")
	cmd.Flags().StringVar(&sampleAsOf, "as-of", "", "last received date (default: today)")
	cmd.Flags().StringVarP(&sampleOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if sampleDays <= 0 {
		return fmt.Errorf("--history-days must be > 0")
	}
	asOf := model.Date(time.Now())
	if sampleAsOf != "" {
		parsed, err := model.ParseDate(sampleAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of value: %w", err)
		}
		asOf = parsed
	}
	vehicles := aggregate.NewGenerator(sampleSeed).Generate(sampleCount, asOf.AddDate(0, 0, -(sampleDays-1)), asOf)
	write := func(w io.Writer) error { return aggregate.WriteVehicles(w, vehicles) }
	if sampleOut == "" {
		return write(cmd.OutOrStdout())
	}
	if err := writeFileAtomic(sampleOut, write); err != nil {
		return fmt.Errorf("failed to write %s: %w", sampleOut, err)
	}
	logErrf("Wrote %d vehicles to %s\n", len(vehicles), sampleOut)
	return nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".towstat-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := write(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
