package organism

import (
	"math/rand"

	"phylon/internal/trait"
)

// Organism is the contract every evolving entity satisfies. Internals stay
// opaque to the rest of the system; all cross-module state flows through the
// attached data map.
type Organism interface {
	// Clone returns an independent copy, data map included.
	Clone() Organism
	// Mutate perturbs the organism in place and returns the number of
	// changes made.
	Mutate(rng *rand.Rand) int
	// Initialize randomizes the organism, as done on injection.
	Initialize(rng *rand.Rand)
	// ToString renders the organism for output and archives.
	ToString() string

	DataMap() *trait.DataMap
	SetDataMap(dm *trait.DataMap)

	// IsEmpty reports whether this is the shared vacant-slot placeholder.
	IsEmpty() bool
}

// MakeOffspring clones an organism and mutates the copy.
func MakeOffspring(o Organism, rng *rand.Rand) Organism {
	child := o.Clone()
	child.Mutate(rng)
	return child
}

// Core supplies the data-map plumbing shared by concrete organisms; embed it
// and implement the rest.
type Core struct {
	dm *trait.DataMap
}

func (c *Core) DataMap() *trait.DataMap      { return c.dm }
func (c *Core) SetDataMap(dm *trait.DataMap) { c.dm = dm }
func (c *Core) IsEmpty() bool                { return false }

// CloneCore copies the embedded state for use inside Clone implementations.
func (c *Core) CloneCore() Core {
	out := Core{}
	if c.dm != nil {
		out.dm = c.dm.Clone()
	}
	return out
}
