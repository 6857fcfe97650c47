package modules

import (
	"errors"
	"strings"
	"testing"

	"phylon/internal/engine"
)

func TestGrowthReusesVacantSlots(t *testing.T) {
	ctl, p := newWorld(t, newBitsType(t, 8, 0), NewGrowthPlacement("placement"))
	if err := ctl.Inject("bits_org", p, 3); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	ctl.ClearOrgAt(p.At(1))

	last, err := ctl.DoBirth(p.At(0), p, 1, true)
	if err != nil {
		t.Fatalf("DoBirth: %v", err)
	}
	if last.Index() != 1 {
		t.Fatalf("child at slot %d, want the vacancy at 1", last.Index())
	}
	if p.Size() != 3 {
		t.Fatalf("population grew to %d despite a vacancy", p.Size())
	}
}

func TestGrowthCapacityCapsThePopulation(t *testing.T) {
	place := NewGrowthPlacement("placement")
	if err := place.SetSetting("capacity", 2); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	ctl, p := newWorld(t, newBitsType(t, 8, 0), place)
	if err := ctl.Inject("bits_org", p, 2); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	before := ctl.Errors().NumErrors()

	// Birth overflow drops the offspring without raising an error.
	last, err := ctl.DoBirth(p.At(0), p, 1, true)
	if err != nil {
		t.Fatalf("DoBirth: %v", err)
	}
	if last.Valid() {
		t.Fatalf("overflow birth landed at %s", last)
	}
	if p.NumOrgs() != 2 || ctl.Errors().NumErrors() != before {
		t.Fatalf("overflow birth: orgs=%d errors=%v", p.NumOrgs(), ctl.Errors().Errors())
	}

	// Injection overflow is an error.
	if err := ctl.Inject("bits_org", p, 1); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if ctl.Errors().NumErrors() != before+1 {
		t.Fatalf("errors = %v", ctl.Errors().Errors())
	}
	if msgs := strings.Join(ctl.Errors().Errors(), "\n"); !strings.Contains(msgs, "no room") {
		t.Fatalf("error text: %s", msgs)
	}
}

func TestGrowthLeavesOtherPopulationsUnbounded(t *testing.T) {
	place := NewGrowthPlacement("placement")
	if err := place.SetSetting("capacity", 2); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	ctl, _ := newWorld(t, newBitsType(t, 8, 0), place)
	side, err := ctl.AddPopulation("side")
	if err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}

	if err := ctl.Inject("bits_org", side, 5); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if side.NumOrgs() != 5 {
		t.Fatalf("unmanaged population capped: %d orgs", side.NumOrgs())
	}
}

func TestGrowthFindNeighborStaysInTarget(t *testing.T) {
	ctl, p := newWorld(t, newBitsType(t, 8, 0), NewGrowthPlacement("placement"))
	side, err := ctl.AddPopulation("side")
	if err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}
	if err := ctl.Inject("bits_org", p, 4); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if err := ctl.Inject("bits_org", side, 2); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	for i := 0; i < 20; i++ {
		n := ctl.FindNeighbor(p.At(2))
		if !n.Valid() || !n.InPop(p) {
			t.Fatalf("neighbor %s left the managed population", n)
		}
	}
	if n := ctl.FindNeighbor(side.At(0)); n.Valid() {
		t.Fatalf("anchor outside the managed population got neighbor %s", n)
	}
}

func TestGrowthRequiresItsTarget(t *testing.T) {
	place := NewGrowthPlacement("placement")
	if err := place.SetSetting("target", "ghost"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	ctl, err := engine.New(engine.Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctl.AddModule(place); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if _, err := ctl.AddPopulation("main"); err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}

	err = ctl.Setup()
	if !errors.Is(err, engine.ErrSetupFailed) {
		t.Fatalf("Setup error = %v, want setup failure", err)
	}
	if msgs := strings.Join(ctl.Errors().Errors(), "\n"); !strings.Contains(msgs, `population "ghost" does not exist`) {
		t.Fatalf("error text: %s", msgs)
	}
}
