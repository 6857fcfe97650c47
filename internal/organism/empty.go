package organism

import (
	"math/rand"

	"phylon/internal/trait"
)

// Empty is the shared placeholder held by every vacant population slot, so
// slots never hold nil. It carries no state; using it as a real organism is
// a programming error.
var Empty Organism = emptyOrganism{}

type emptyOrganism struct{}

func (emptyOrganism) IsEmpty() bool { return true }

func (emptyOrganism) ToString() string { return "[empty]" }

func (emptyOrganism) DataMap() *trait.DataMap { return nil }

func (emptyOrganism) Clone() Organism {
	panic("clone of the empty organism placeholder")
}

func (emptyOrganism) Mutate(*rand.Rand) int {
	panic("mutate of the empty organism placeholder")
}

func (emptyOrganism) Initialize(*rand.Rand) {
	panic("initialize of the empty organism placeholder")
}

func (emptyOrganism) SetDataMap(*trait.DataMap) {
	panic("data map assignment to the empty organism placeholder")
}
