package trait

import (
	"errors"
	"testing"
)

func TestSeriesFlattensScalarsAndVectors(t *testing.T) {
	l := buildTestLayout(t)
	s, err := NewSeries(l, "fitness, scores")
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	dm := NewDataMap(l)
	if err := Set(dm, l.MustID("fitness"), 2.0); err != nil {
		t.Fatalf("set fitness: %v", err)
	}
	if err := Set(dm, l.MustID("scores"), []float64{10, 20, 30}); err != nil {
		t.Fatalf("set scores: %v", err)
	}

	if got := s.CountValues(dm); got != 4 {
		t.Fatalf("CountValues = %d, want 4", got)
	}
	vals, err := s.Values(dm)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	want := []float64{2, 10, 20, 30}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("Values[%d] = %v, want %v", i, vals[i], want[i])
		}
	}

	if f, err := s.GetIndex(dm, 2); err != nil || f != 20 {
		t.Fatalf("GetIndex(2) = %v, %v; want 20", f, err)
	}
	if _, err := s.GetIndex(dm, 4); err == nil {
		t.Fatal("GetIndex past the end succeeded")
	}
}

func TestSeriesLengthsVaryPerOrganism(t *testing.T) {
	l := buildTestLayout(t)
	s, err := NewSeries(l, "scores")
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	a := NewDataMap(l)
	b := NewDataMap(l)
	if err := Set(a, l.MustID("scores"), []float64{1}); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := Set(b, l.MustID("scores"), []float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("set b: %v", err)
	}

	if got := s.CountValues(a); got != 1 {
		t.Fatalf("CountValues(a) = %d, want 1", got)
	}
	if got := s.CountValues(b); got != 5 {
		t.Fatalf("CountValues(b) = %d, want 5", got)
	}
}

func TestSeriesRejectsUnknownNames(t *testing.T) {
	l := buildTestLayout(t)
	if _, err := NewSeries(l, "fitness, ghost"); !errors.Is(err, ErrUnknownTrait) {
		t.Fatalf("err = %v, want ErrUnknownTrait", err)
	}
}
