package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPlotPerSeriesScale(t *testing.T) {
	var buf bytes.Buffer
	err := Plot(&buf, []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, PlotOptions{Title: "Test Plot", Width: 5, Height: 4, PerSeriesScale: true})
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Test Plot", "Scaled per series", "A: min=1.00 max=3.00", "Legend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// title, scale note, one min/max line per series, plot rows, legend
	expectedMin := 1 + 1 + 2 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotSharedScaleLabelsValues(t *testing.T) {
	var buf bytes.Buffer
	err := Plot(&buf, []Series{{Name: "Total count", Values: []float64{10, 20, 40}}}, PlotOptions{
		Width:  12,
		Height: 5,
		XStart: "2020-01-01",
		XEnd:   "2020-01-03",
	})
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], "40"+axisSeparator) {
		t.Fatalf("expected top label 40, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "25"+axisSeparator) {
		t.Fatalf("expected middle label 25, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[4], "10"+axisSeparator) {
		t.Fatalf("expected bottom label 10, got %q", lines[4])
	}
	if !strings.Contains(lines[5], "2020-01-01") || !strings.HasSuffix(lines[5], "2020-01-03") {
		t.Fatalf("unexpected x-axis line %q", lines[5])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color codes for a buffer")
	}
}

func TestPlotSkipsEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	if err := Plot(&buf, []Series{{Name: "empty"}}, PlotOptions{Width: 10}); err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	separator := runewidth.StringWidth(axisSeparator)
	if got, want := PlotWidthFor(80, 4), 80-4-separator; got != want {
		t.Fatalf("expected width %d, got %d", want, got)
	}
	if got := PlotWidthFor(0, 4); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(12, 8); got != minPlotWidth {
		t.Fatalf("expected min width %d for a narrow terminal, got %d", minPlotWidth, got)
	}
}

func TestResample(t *testing.T) {
	if got := resample([]float64{1, 3, 5, 7}, 2); got[0] != 2 || got[1] != 6 {
		t.Fatalf("expected bucket means [2 6], got %v", got)
	}
	if got := resample([]float64{0, 10}, 3); got[1] != 5 {
		t.Fatalf("expected interpolated midpoint 5, got %v", got)
	}
	if got := resample([]float64{4}, 3); got[2] != 4 {
		t.Fatalf("expected constant stretch, got %v", got)
	}
}
