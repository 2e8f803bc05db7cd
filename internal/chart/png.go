package chart

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/verte-zerg/towstat/internal/model"
)

// Image size of PNG exports.
const (
	pngWidth  = 14 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// LinePlot plots each series against the x field. Date x values are placed
// on a time axis; any other x value uses the row index.
func LinePlot(src Source, enc Encoding, t Titles) (*plot.Plot, error) {
	records := Shape(src, enc)
	p := plot.New()
	p.Title.Text = t.Title
	p.X.Label.Text = enc.X
	p.Legend.Top = true

	timeAxis := false
	xs := make([]float64, len(records))
	for i, rec := range records {
		if d, ok := rec[enc.X].(time.Time); ok {
			xs[i] = float64(d.Unix())
			timeAxis = true
			continue
		}
		xs[i] = float64(i)
	}
	if timeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: model.DateLayout}
	}

	for i, field := range enc.Series {
		pts := make(plotter.XYs, 0, len(records))
		for j, rec := range records {
			if _, ok := rec[field]; !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: xs[j], Y: toFloat(rec[field])})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", field, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(SeriesName(field), line)
	}
	return p, nil
}

// BarPlot draws grouped bars, one group per record labelled by the x field.
func BarPlot(src Source, enc Encoding, t Titles) (*plot.Plot, error) {
	records := Shape(src, enc)
	p := plot.New()
	p.Title.Text = t.Title
	p.Legend.Top = true
	if len(records) == 0 || len(enc.Series) == 0 {
		return p, nil
	}

	width := vg.Points(20)
	offset := -width * vg.Length(len(enc.Series)-1) / 2
	for i, field := range enc.Series {
		bars, err := plotter.NewBarChart(plotter.Values(SeriesValues(records, field)), width)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", field, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = offset + width*vg.Length(i)
		p.Add(bars)
		p.Legend.Add(SeriesName(field), bars)
	}
	p.NominalX(xLabels(records, enc.X)...)
	return p, nil
}

// SavePNG writes the plot to path at the export size.
func SavePNG(p *plot.Plot, path string) error {
	if err := p.Save(pngWidth, pngHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes the plot as PNG at the export size.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
