package engine

import (
	"testing"

	"phylon/internal/pop"
	"phylon/internal/trait"
)

// fakeInterp records event plumbing and compiles every expression to
// "double the fitness trait".
type fakeInterp struct {
	events  []string
	updates []float64
}

func (f *fakeInterp) TriggerEvents(name string) error {
	f.events = append(f.events, name)
	return nil
}

func (f *fakeInterp) UpdateEventValue(name string, v float64) error {
	f.updates = append(f.updates, v)
	return nil
}

func (f *fakeInterp) CompileEquation(string) (EquationFn, error) {
	return func(dm *trait.DataMap) (float64, error) {
		v, err := dm.Float(dm.Layout().MustID("fitness"))
		return v * 2, err
	}, nil
}

func TestStartEventFiresOnce(t *testing.T) {
	ctl, _ := newTestWorld(t)
	fi := &fakeInterp{}
	ctl.SetInterpreter(fi)

	ctl.Update(2)
	ctl.Update(1)

	starts := 0
	for _, ev := range fi.events {
		if ev == "start" {
			starts++
		}
	}
	if starts != 1 {
		t.Fatalf("start fired %d times: %v", starts, fi.events)
	}

	want := []float64{1, 2, 3}
	if len(fi.updates) != len(want) {
		t.Fatalf("update values = %v, want %v", fi.updates, want)
	}
	for i := range want {
		if fi.updates[i] != want[i] {
			t.Fatalf("update values = %v, want %v", fi.updates, want)
		}
	}
}

func TestEquationSummary(t *testing.T) {
	ctl, p := newTestWorld(t)
	ctl.SetInterpreter(&fakeInterp{})
	if err := ctl.Inject("test_org", p, 2); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	setTrait(t, p.At(0), "fitness", 3)
	setTrait(t, p.At(1), "fitness", 4)
	coll := pop.NewCollection()
	coll.InsertPop(p)

	// "fitness * 2" is not a layout name, so it routes through the
	// interpreter's equation compiler.
	got, err := ctl.TraitSummary("fitness * 2", "max", coll)
	if err != nil {
		t.Fatalf("TraitSummary: %v", err)
	}
	if got != "8" {
		t.Fatalf("equation max = %q, want %q", got, "8")
	}
}

func TestEquationWithoutInterpreter(t *testing.T) {
	ctl, p := newTestWorld(t)
	coll := pop.NewCollection()
	coll.InsertPop(p)

	if _, err := ctl.TraitSummary("fitness * 2", "max", coll); err == nil {
		t.Fatal("equation compiled with no interpreter attached")
	}
}

func TestFilterCollection(t *testing.T) {
	ctl, p := newTestWorld(t)
	if err := ctl.Inject("test_org", p, 4); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	for i := 0; i < 4; i++ {
		setTrait(t, p.At(i), "fitness", float64(i%2))
	}
	coll := pop.NewCollection()
	coll.InsertPop(p)

	kept, err := ctl.FilterCollection(coll, "fitness")
	if err != nil {
		t.Fatalf("FilterCollection: %v", err)
	}
	if kept.NumLive() != 2 {
		t.Fatalf("kept %d organisms, want 2", kept.NumLive())
	}
	for _, pos := range kept.Live() {
		if pos.Index()%2 == 0 {
			t.Fatalf("kept position %s with zero fitness", pos)
		}
	}
}
