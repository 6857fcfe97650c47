package organism

import (
	"math/rand"
	"testing"

	"phylon/internal/trait"
)

func TestMakeOffspringClonesThenMutates(t *testing.T) {
	parent := &stubOrganism{id: 7}
	child := MakeOffspring(parent, rand.New(rand.NewSource(1)))

	got, ok := child.(*stubOrganism)
	if !ok {
		t.Fatalf("offspring has type %T", child)
	}
	if got == parent {
		t.Fatal("offspring is the parent, not a copy")
	}
	if got.id != 7 {
		t.Fatalf("offspring id = %d, want 7", got.id)
	}
	if got.mutations != 1 {
		t.Fatalf("offspring mutation count = %d, want 1", got.mutations)
	}
	if parent.mutations != 0 {
		t.Fatal("parent was mutated")
	}
}

func TestCloneCoreCopiesDataMap(t *testing.T) {
	l := trait.NewLayout()
	id, err := l.Add("fitness", trait.TagFloat, "", trait.FloatValue(0), trait.InitDefault, trait.ArchiveNone)
	if err != nil {
		t.Fatalf("add trait: %v", err)
	}
	l.Lock()

	parent := &stubOrganism{}
	parent.SetDataMap(trait.NewDataMap(l))
	if err := trait.Set(parent.DataMap(), id, 3.5); err != nil {
		t.Fatalf("set fitness: %v", err)
	}

	child := parent.Clone()
	if err := trait.Set(child.DataMap(), id, 9.0); err != nil {
		t.Fatalf("set child fitness: %v", err)
	}

	if v := trait.MustGet[float64](parent.DataMap(), id); v != 3.5 {
		t.Fatalf("parent fitness = %v after child write, want 3.5", v)
	}
}
