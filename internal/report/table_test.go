package report

import "testing"

func TestTableAlignsColumns(t *testing.T) {
	tbl := table{
		headers: []string{"Code", "Category", "Quantity"},
		rows: [][]string{
			{"111", "Police Action", "12"},
			{"1000", "No Code", "3"},
		},
		right: map[int]bool{2: true},
	}

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Code Category      Quantity" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "111  Police Action       12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "1000 No Code              3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableTruncatesWideCells(t *testing.T) {
	tbl := table{
		headers:  []string{"Category"},
		rows:     [][]string{{"Commercial Vehicle Restriction"}},
		maxWidth: 10,
	}
	lines := tbl.lines()
	if lines[1] != "Commercia…" {
		t.Fatalf("unexpected truncated cell: %q", lines[1])
	}
}

func TestTableEmpty(t *testing.T) {
	if lines := (table{}).lines(); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}
