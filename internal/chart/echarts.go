package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/towstat/internal/metric"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/views"
)

// Titles labels a rendered chart.
type Titles struct {
	Title    string
	Subtitle string
}

// Line builds a line chart with one series per encoded series field.
func Line(src Source, enc Encoding, t Titles) *charts.Line {
	records := Shape(src, enc)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: t.Title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: t.Title, Subtitle: t.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(xLabels(records, enc.X))
	for _, field := range enc.Series {
		data := make([]opts.LineData, 0, len(records))
		for _, rec := range records {
			v, ok := rec[field]
			if !ok {
				continue
			}
			data = append(data, opts.LineData{Value: v})
		}
		if len(data) == 0 {
			continue
		}
		line.AddSeries(SeriesName(field), data)
	}
	return line
}

// Bar builds a bar chart with one bar group per record.
func Bar(src Source, enc Encoding, t Titles) *charts.Bar {
	records := Shape(src, enc)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: t.Title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: t.Title, Subtitle: t.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(xLabels(records, enc.X))
	for _, field := range enc.Series {
		data := make([]opts.BarData, 0, len(records))
		for _, rec := range records {
			data = append(data, opts.BarData{Value: rec[field]})
		}
		bar.AddSeries(SeriesName(field), data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	}
	return bar
}

// RenderHTML writes the charts as one HTML page.
func RenderHTML(w io.Writer, charters ...components.Charter) error {
	page := components.NewPage()
	page.AddCharts(charters...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// SeriesName returns the legend label of a field.
func SeriesName(field string) string {
	switch field {
	case views.FieldWithDirtbikes:
		return "With dirtbikes"
	case views.FieldWithoutDirtbikes:
		return "Without dirtbikes"
	}
	return metric.Label(field)
}

func xLabels(records []Record, field string) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = FormatValue(rec[field])
	}
	return out
}

// FormatValue renders a record value for axis labels and text tables.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(model.DateLayout)
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return fmt.Sprintf("%.0f", x)
		}
		return fmt.Sprintf("%.2f", x)
	}
	return fmt.Sprint(v)
}
