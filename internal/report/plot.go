// Package report renders dashboard views as plain terminal text.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named sequence of values sharing the plot's x-axis.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls a braille line plot.
type PlotOptions struct {
	Title string
	// Width and Height are in terminal cells. Zero picks defaults, with the
	// width following the terminal.
	Width  int
	Height int
	// XStart and XEnd label both ends of the x-axis.
	XStart string
	XEnd   string
	// PerSeriesScale scales each series to its own min/max instead of a
	// shared value axis.
	PerSeriesScale bool
	ForceColor     bool
}

type valueRange struct {
	min float64
	max float64
}

type dashPattern struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"
	fallbackTermWidth = 80
)

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var seriesColors = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// Plot draws the series as a braille line chart. Series without values are
// skipped; nothing is written when no series has values.
func Plot(w io.Writer, series []Series, opts PlotOptions) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	ranges := seriesRanges(series, opts.PerSeriesScale)
	labels := axisLabels(height, ranges, opts.PerSeriesScale)
	labelWidth := 0
	for _, l := range labels {
		if lw := runewidth.StringWidth(l); lw > labelWidth {
			labelWidth = lw
		}
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), labelWidth)
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	grids := make([][][]uint8, len(series))
	for si, s := range series {
		grids[si] = newGrid(height, width)
		values := resample(s.Values, width)
		pattern := dashPatterns[si%len(dashPatterns)]
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, valueToDotRow(v, ranges[si], height*4)
			if prevX >= 0 {
				bresenham(prevX, prevY, px, py, func(dx, dy int) {
					if pattern.draws(dx) {
						setDot(grids[si], dx, dy)
					}
				})
			} else if pattern.draws(px) {
				setDot(grids[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := colorEnabled(w, opts.ForceColor)
	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(opts.Title + "\n")
	}
	if opts.PerSeriesScale {
		b.WriteString("Scaled per series; see min/max below.\n")
		for i, s := range series {
			fmt.Fprintf(&b, "%s: min=%.2f max=%.2f\n", s.Name, ranges[i].min, ranges[i].max)
		}
	}
	for y := 0; y < height; y++ {
		b.WriteString(padLeft(labels[y], labelWidth))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := mergeCell(grids, x, y)
			ch := brailleRune(mask)
			if useColor && owner >= 0 {
				b.WriteString(seriesColors[owner%len(seriesColors)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	if opts.XStart != "" || opts.XEnd != "" {
		b.WriteString(xAxisLine(labelWidth+runewidth.StringWidth(axisSeparator), width, opts.XStart, opts.XEnd))
		b.WriteByte('\n')
	}
	b.WriteString(legend(series, useColor))
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor returns the plot width that fits totalWidth next to a value
// axis of labelWidth cells.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - labelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func seriesRanges(series []Series, perSeries bool) []valueRange {
	ranges := make([]valueRange, len(series))
	shared := valueRange{min: math.Inf(1), max: math.Inf(-1)}
	for i, s := range series {
		r := valueRange{min: math.Inf(1), max: math.Inf(-1)}
		for _, v := range s.Values {
			r.min = math.Min(r.min, v)
			r.max = math.Max(r.max, v)
		}
		ranges[i] = r
		shared.min = math.Min(shared.min, r.min)
		shared.max = math.Max(shared.max, r.max)
	}
	for i := range ranges {
		if !perSeries {
			ranges[i] = shared
		}
		if ranges[i].max-ranges[i].min < 1e-9 {
			ranges[i].min--
			ranges[i].max++
		}
	}
	return ranges
}

func axisLabels(height int, ranges []valueRange, perSeries bool) []string {
	labels := make([]string, height)
	top, mid, bottom := "100%", "50%", "0%"
	if !perSeries && len(ranges) > 0 {
		r := ranges[0]
		top = formatTick(r.max)
		mid = formatTick((r.min + r.max) / 2)
		bottom = formatTick(r.min)
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func xAxisLine(indent, width int, start, end string) string {
	line := strings.Repeat(" ", indent) + start
	gap := width - runewidth.StringWidth(start) - runewidth.StringWidth(end)
	if gap < 1 {
		gap = 1
	}
	return line + strings.Repeat(" ", gap) + end
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func newGrid(height, width int) [][]uint8 {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	return grid
}

// mergeCell ORs the dots of every series; the first series with a dot in
// the cell owns its color.
func mergeCell(grids [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, grid := range grids {
		if y >= len(grid) || x >= len(grid[y]) {
			continue
		}
		if grid[y][x] == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= grid[y][x]
	}
	return mask, owner
}

func (p dashPattern) draws(x int) bool {
	if p.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%p.period < p.on
}

// resample fits values to width points, averaging buckets when shrinking and
// interpolating linearly when stretching.
func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func valueToDotRow(v float64, r valueRange, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - r.min) / (r.max - r.min)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	if row < 0 {
		return 0
	}
	if row >= rows {
		return rows - 1
	}
	return row
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", brailleRune(0x01), s.Name, dashPatterns[i%len(dashPatterns)].name)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Braille cells are 2 dots wide and 4 tall.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(grid [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cy, cx := y/4, x/2
	if cy >= len(grid) || cx >= len(grid[cy]) {
		return
	}
	grid[cy][cx] |= dotBits[x%2][y%4]
}

func brailleRune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func padLeft(s string, width int) string {
	if pad := width - runewidth.StringWidth(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
