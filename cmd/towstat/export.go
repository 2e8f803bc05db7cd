package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/towstat/internal/chart"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/views"
)

var (
	exportHTMLOut string
	exportPNGOut  string
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the dashboard charts to a file",
	}
	htmlCmd := &cobra.Command{
		Use:   "html",
		Short: "Write an interactive HTML page",
		Args:  cobra.NoArgs,
		RunE:  runExportHTMLCmd,
	}
	htmlCmd.Flags().StringVarP(&exportHTMLOut, "out", "o", "towstat.html", "output file")
	pngCmd := &cobra.Command{
		Use:   "png",
		Short: "Write the time series and category charts as PNG images",
		Args:  cobra.NoArgs,
		RunE:  runExportPNGCmd,
	}
	pngCmd.Flags().StringVarP(&exportPNGOut, "out", "o", "towstat.png", "time-series image; the category chart gets a -categories suffix")
	cmd.AddCommand(htmlCmd, pngCmd)
	return cmd
}

func datasetEncoding(v session.Views) chart.Encoding {
	return chart.Encoding{X: views.FieldDate, Series: v.Dataset.Columns}
}

func categoryEncoding(v session.Views) chart.Encoding {
	field := views.FieldWithoutDirtbikes
	if v.IncludeDirtbikes {
		field = views.FieldWithDirtbikes
	}
	return chart.Encoding{X: views.FieldLabel, Series: []string{field}}
}

func datasetTitles(v session.Views) chart.Titles {
	return chart.Titles{Title: "Vehicles on lot", Subtitle: v.Dataset.Range.String()}
}

func categoryTitles(v session.Views) chart.Titles {
	sub := "without dirtbikes"
	if v.IncludeDirtbikes {
		sub = "with dirtbikes"
	}
	return chart.Titles{Title: "On lot by category", Subtitle: sub}
}

func runExportHTMLCmd(cmd *cobra.Command, _ []string) error {
	sched, err := openSession(cmd)
	if err != nil {
		return err
	}
	v := sched.Views()
	charters := []components.Charter{
		chart.Line(v.Dataset, datasetEncoding(v), datasetTitles(v)),
		chart.Bar(v.Categories, categoryEncoding(v), categoryTitles(v)),
	}

	file, err := os.Create(exportHTMLOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportHTMLOut, err)
	}
	if err := chart.RenderHTML(file, charters...); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportHTMLOut, err)
	}
	logErrf("Wrote %s\n", exportHTMLOut)
	return nil
}

func runExportPNGCmd(cmd *cobra.Command, _ []string) error {
	sched, err := openSession(cmd)
	if err != nil {
		return err
	}
	v := sched.Views()

	line, err := chart.LinePlot(v.Dataset, datasetEncoding(v), datasetTitles(v))
	if err != nil {
		return fmt.Errorf("failed to build time-series plot: %w", err)
	}
	if err := chart.SavePNG(line, exportPNGOut); err != nil {
		return err
	}
	logErrf("Wrote %s\n", exportPNGOut)

	bar, err := chart.BarPlot(v.Categories, categoryEncoding(v), categoryTitles(v))
	if err != nil {
		return fmt.Errorf("failed to build category plot: %w", err)
	}
	barPath := suffixPath(exportPNGOut, "-categories")
	if err := chart.SavePNG(bar, barPath); err != nil {
		return err
	}
	logErrf("Wrote %s\n", barPath)
	return nil
}

func suffixPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
