package collect

import (
	"errors"
	"math"
	"testing"
)

func applyFloats(t *testing.T, filter string, vals []float64) string {
	t.Helper()
	f, err := ParseFilter(filter)
	if err != nil {
		t.Fatalf("parse %q: %v", filter, err)
	}
	out, err := f.ApplyFloats(vals)
	if err != nil {
		t.Fatalf("apply %q: %v", filter, err)
	}
	return out
}

func TestSummaryFilters(t *testing.T) {
	vals := []float64{1, 2, 3, 4}

	cases := []struct {
		filter string
		want   string
	}{
		{"mean", "2.5"},
		{"ave", "2.5"},
		{"min", "1"},
		{"max", "4"},
		{"variance", "1.25"},
		{"sum", "10"},
		{"total", "10"},
		{"median", "2.5"},
		{"min_id", "0"},
		{"max_id", "3"},
	}
	for _, c := range cases {
		if got := applyFloats(t, c.filter, vals); got != c.want {
			t.Fatalf("%s over %v = %q, want %q", c.filter, vals, got, c.want)
		}
	}
}

func TestCountFilters(t *testing.T) {
	vals := []float64{1, 2, 3, 4}

	cases := []struct {
		filter string
		want   string
	}{
		{">2", "2"},
		{">=2", "3"},
		{"<3", "2"},
		{"<=3", "3"},
		{"=2", "1"},
		{"==2", "1"},
		{"!=2", "3"},
	}
	for _, c := range cases {
		if got := applyFloats(t, c.filter, vals); got != c.want {
			t.Fatalf("%s over %v = %q, want %q", c.filter, vals, got, c.want)
		}
	}
}

func TestCategoricalFilters(t *testing.T) {
	if got := applyFloats(t, "richness", []float64{1, 1, 2}); got != "2" {
		t.Fatalf("richness = %q, want 2", got)
	}
	if got := applyFloats(t, "unique", []float64{1, 1, 2}); got != "2" {
		t.Fatalf("unique = %q, want 2", got)
	}
	if got := applyFloats(t, "mode", []float64{1, 2, 2, 3}); got != "2" {
		t.Fatalf("mode = %q, want 2", got)
	}
	if got := applyFloats(t, "entropy", []float64{1, 1, 2, 2}); got != "1" {
		t.Fatalf("entropy = %q, want 1", got)
	}
}

func TestStringFilters(t *testing.T) {
	f, err := ParseFilter("mode")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := f.ApplyStrings([]string{"aa", "bb", "bb"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != "bb" {
		t.Fatalf("string mode = %q, want bb", got)
	}

	mean, err := ParseFilter("mean")
	if err != nil {
		t.Fatalf("parse mean: %v", err)
	}
	if _, err := mean.ApplyStrings([]string{"aa"}); !errors.Is(err, ErrBadFilter) {
		t.Fatalf("mean over strings err = %v, want ErrBadFilter", err)
	}
}

func TestEmptyFilterListsValues(t *testing.T) {
	if got := applyFloats(t, "", []float64{1.5, 2}); got != "1.5,2" {
		t.Fatalf("list = %q", got)
	}
}

func TestMalformedFilters(t *testing.T) {
	for _, s := range []string{"bogus", ">abc", "<<2"} {
		if _, err := ParseFilter(s); !errors.Is(err, ErrBadFilter) {
			t.Fatalf("ParseFilter(%q) err = %v, want ErrBadFilter", s, err)
		}
	}
}

func TestStdDevMatchesVariance(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	if got, want := StdDev(vals), math.Sqrt(1.25); math.Abs(got-want) > 1e-12 {
		t.Fatalf("StdDev = %v, want %v", got, want)
	}
}

func TestEmptyInputs(t *testing.T) {
	if !math.IsNaN(Mean(nil)) {
		t.Fatal("mean of empty input should be NaN")
	}
	if Sum(nil) != 0 {
		t.Fatal("sum of empty input should be 0")
	}
	if MinIndex(nil) != -1 {
		t.Fatal("min index of empty input should be -1")
	}
	if Entropy(nil) != 0 {
		t.Fatal("entropy of empty input should be 0")
	}
}
