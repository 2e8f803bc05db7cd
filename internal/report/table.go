package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// table is a text grid sized to its widest cells. Cells wider than maxWidth
// are truncated with an ellipsis.
type table struct {
	headers  []string
	rows     [][]string
	right    map[int]bool
	maxWidth int
}

func (t table) lines() []string {
	cols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols; i++ {
			if w := runewidth.StringWidth(t.clip(cellAt(row, i))); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}

	out := make([]string, 0, len(t.rows)+1)
	if len(t.headers) > 0 {
		out = append(out, t.line(t.headers, widths))
	}
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t table) line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		cell := t.clip(cellAt(row, i))
		if t.right[i] {
			cells[i] = runewidth.FillLeft(cell, w)
		} else {
			cells[i] = runewidth.FillRight(cell, w)
		}
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

func (t table) clip(cell string) string {
	if t.maxWidth <= 0 {
		return cell
	}
	return runewidth.Truncate(cell, t.maxWidth, "…")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
