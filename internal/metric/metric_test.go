package metric

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		include bool
		want    []string
	}{
		{name: "include keeps keys", keys: []string{"total_num", "accident_avg"}, include: true, want: []string{"total_num", "accident_avg"}},
		{name: "exclude swaps num", keys: []string{"total_num"}, include: false, want: []string{"total_nondb_num"}},
		{name: "exclude swaps avg", keys: []string{"police_hold_avg"}, include: false, want: []string{"police_hold_nondb_avg"}},
		{name: "unparsable passes through", keys: []string{"date", "weird"}, include: false, want: []string{"date", "weird"}},
		{name: "bare suffix passes through", keys: []string{"_num"}, include: false, want: []string{"_num"}},
		{name: "duplicates collapse", keys: []string{"total_num", "total_num"}, include: false, want: []string{"total_nondb_num"}},
		{name: "empty", keys: nil, include: false, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.keys, tc.include)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveToggleRoundTrip(t *testing.T) {
	keys := []string{"total_num", "accident_avg", "custom"}
	original := Resolve(keys, false)
	_ = Resolve(keys, true)
	again := Resolve(keys, false)
	if diff := cmp.Diff(original, again); diff != "" {
		t.Fatalf("round trip changed columns (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	m, ok := Parse("stolen_recovered_avg")
	if !ok {
		t.Fatalf("expected key to parse")
	}
	if m.Name != "stolen_recovered" || m.Measure != AverageAge {
		t.Fatalf("unexpected metric %+v", m)
	}
	if m.Column(WithoutDirtbikes) != "stolen_recovered_nondb_avg" {
		t.Fatalf("unexpected column %q", m.Column(WithoutDirtbikes))
	}
	if _, ok := Parse("total"); ok {
		t.Fatalf("expected key without measure to be rejected")
	}
}

func TestLabel(t *testing.T) {
	if got := Label("accident_num"); got != "Accident count" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label("total_nondb_avg"); got != "Total average age (no dirtbikes)" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label("date"); got != "date" {
		t.Fatalf("unexpected label %q", got)
	}
}
