package model

import (
	"testing"
	"time"
)

func TestNewSelectionCanonical(t *testing.T) {
	a := NewSelection("b", " a ", "b", "")
	b := NewSelection("a", "b")
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
	if !a.Contains("a") || a.Contains("c") {
		t.Fatalf("unexpected membership for %v", a)
	}
	if got := ParseSelection("111, 112,,111").String(); got != "111,112" {
		t.Fatalf("unexpected parsed selection %q", got)
	}
}

func TestDateRangeInclusive(t *testing.T) {
	start := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	r, err := NewDateRange(start, end)
	if err != nil {
		t.Fatalf("new range: %v", err)
	}
	if !r.Contains(start) || !r.Contains(end) {
		t.Fatalf("expected both bounds to be inclusive")
	}
	if r.Contains(start.AddDate(0, 0, -1)) || r.Contains(end.AddDate(0, 0, 1)) {
		t.Fatalf("expected dates outside range to be excluded")
	}
	if r.Days() != 4 {
		t.Fatalf("expected 4 days, got %d", r.Days())
	}
	if _, err := NewDateRange(end, start); err == nil {
		t.Fatalf("expected error for start after end")
	}
}
