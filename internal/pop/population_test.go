package pop

import (
	"math/rand"
	"testing"

	"phylon/internal/organism"
)

type fakeOrg struct {
	organism.Core
	tag string
}

func (f *fakeOrg) Clone() organism.Organism {
	return &fakeOrg{Core: f.CloneCore(), tag: f.tag}
}
func (f *fakeOrg) Mutate(*rand.Rand) int { return 0 }
func (f *fakeOrg) Initialize(*rand.Rand) {}
func (f *fakeOrg) ToString() string      { return f.tag }

func TestPopulationSetAndExtract(t *testing.T) {
	p := New("main", 0)
	p.Resize(3)

	if p.Size() != 3 || p.NumOrgs() != 0 {
		t.Fatalf("fresh population: size=%d orgs=%d", p.Size(), p.NumOrgs())
	}

	org := &fakeOrg{tag: "a"}
	p.SetOrg(1, org)
	if p.NumOrgs() != 1 {
		t.Fatalf("NumOrgs = %d, want 1", p.NumOrgs())
	}
	if p.IsEmptyAt(1) {
		t.Fatal("slot 1 still empty after SetOrg")
	}

	got := p.ExtractOrg(1)
	if got != organism.Organism(org) {
		t.Fatalf("extracted %v, want the seated organism", got)
	}
	if p.NumOrgs() != 0 || !p.IsEmptyAt(1) {
		t.Fatalf("after extract: orgs=%d emptyAt1=%v", p.NumOrgs(), p.IsEmptyAt(1))
	}

	// Extracting a vacant slot hands back the placeholder.
	if !p.ExtractOrg(1).IsEmpty() {
		t.Fatal("extract of vacant slot returned a live organism")
	}
}

func TestPopulationSetIntoOccupiedPanics(t *testing.T) {
	p := New("main", 0)
	p.Resize(1)
	p.SetOrg(0, &fakeOrg{tag: "a"})

	defer func() {
		if recover() == nil {
			t.Fatal("SetOrg into an occupied slot did not panic")
		}
	}()
	p.SetOrg(0, &fakeOrg{tag: "b"})
}

func TestPopulationResize(t *testing.T) {
	p := New("main", 0)
	p.Resize(4)
	p.SetOrg(0, &fakeOrg{tag: "a"})

	p.Resize(8)
	if p.Size() != 8 || p.NumOrgs() != 1 {
		t.Fatalf("after grow: size=%d orgs=%d", p.Size(), p.NumOrgs())
	}
	for i := 4; i < 8; i++ {
		if !p.IsEmptyAt(i) {
			t.Fatalf("grown slot %d not vacant", i)
		}
	}

	p.ExtractOrg(0)
	p.Resize(2)
	if p.Size() != 2 {
		t.Fatalf("after shrink: size=%d", p.Size())
	}
}

func TestPopulationResizeOverLiveOrgPanics(t *testing.T) {
	p := New("main", 0)
	p.Resize(4)
	p.SetOrg(3, &fakeOrg{tag: "a"})

	defer func() {
		if recover() == nil {
			t.Fatal("Resize over a live organism did not panic")
		}
	}()
	p.Resize(2)
}

func TestPopulationPushEmpty(t *testing.T) {
	p := New("main", 0)
	i := p.PushEmpty()
	if i != 0 || p.Size() != 1 || !p.IsEmptyAt(0) {
		t.Fatalf("PushEmpty: i=%d size=%d", i, p.Size())
	}
	if j := p.PushEmpty(); j != 1 {
		t.Fatalf("second PushEmpty index = %d, want 1", j)
	}
}

func TestPositionValidity(t *testing.T) {
	p := New("main", 0)
	p.Resize(2)

	var zero Position
	if zero.Valid() {
		t.Fatal("zero position is valid")
	}
	if !zero.IsEmptySlot() {
		t.Fatal("zero position is not an empty slot")
	}
	if zero.String() != "invalid" {
		t.Fatalf("zero position renders %q", zero.String())
	}

	pos := p.At(1)
	if !pos.Valid() || !pos.IsEmptySlot() {
		t.Fatalf("fresh slot position: valid=%v empty=%v", pos.Valid(), pos.IsEmptySlot())
	}
	if out := p.At(5); out.Valid() {
		t.Fatal("out-of-range position is valid")
	}

	p.SetOrg(1, &fakeOrg{tag: "a"})
	if pos.IsEmptySlot() {
		t.Fatal("position still empty after the slot was filled")
	}
	if pos.Org().ToString() != "a" {
		t.Fatalf("position org = %q", pos.Org().ToString())
	}
}
