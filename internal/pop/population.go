package pop

import (
	"fmt"

	"phylon/internal/organism"
)

// Population is a dense vector of organism slots. Vacant slots hold the
// shared empty placeholder, never nil. Populations are owned by a single
// controller goroutine; the mutating methods below are its arena primitives
// and enforce their invariants by panicking, since a violation is a bug in
// the caller rather than a user mistake.
type Population struct {
	name    string
	id      int
	slots   []organism.Organism
	numOrgs int
}

func New(name string, id int) *Population {
	return &Population{name: name, id: id}
}

func (p *Population) Name() string { return p.name }
func (p *Population) ID() int      { return p.id }
func (p *Population) Size() int    { return len(p.slots) }

// NumOrgs is the live-organism count, maintained incrementally.
func (p *Population) NumOrgs() int { return p.numOrgs }

func (p *Population) IsEmptyAt(i int) bool {
	if i < 0 || i >= len(p.slots) {
		return true
	}
	return p.slots[i].IsEmpty()
}

// Org returns the occupant of a slot, the empty placeholder included.
func (p *Population) Org(i int) organism.Organism {
	if i < 0 || i >= len(p.slots) {
		return organism.Empty
	}
	return p.slots[i]
}

// SetOrg seats a live organism in a vacant slot.
func (p *Population) SetOrg(i int, org organism.Organism) {
	if i < 0 || i >= len(p.slots) {
		panic(fmt.Sprintf("population %q: SetOrg index %d out of range", p.name, i))
	}
	if org == nil || org.IsEmpty() {
		panic(fmt.Sprintf("population %q: SetOrg with an empty organism at %d", p.name, i))
	}
	if !p.slots[i].IsEmpty() {
		panic(fmt.Sprintf("population %q: SetOrg into occupied slot %d", p.name, i))
	}
	p.slots[i] = org
	p.numOrgs++
}

// ExtractOrg removes and returns the occupant; the slot reverts to the
// placeholder. Extracting a vacant slot returns the placeholder.
func (p *Population) ExtractOrg(i int) organism.Organism {
	if i < 0 || i >= len(p.slots) {
		panic(fmt.Sprintf("population %q: ExtractOrg index %d out of range", p.name, i))
	}
	org := p.slots[i]
	if !org.IsEmpty() {
		p.numOrgs--
	}
	p.slots[i] = organism.Empty
	return org
}

// Resize grows with vacant slots or truncates already-cleared ones. Live
// organisms must be extracted before their slots are truncated.
func (p *Population) Resize(n int) {
	if n < 0 {
		panic(fmt.Sprintf("population %q: Resize to %d", p.name, n))
	}
	for i := n; i < len(p.slots); i++ {
		if !p.slots[i].IsEmpty() {
			panic(fmt.Sprintf("population %q: Resize would drop live organism at %d", p.name, i))
		}
	}
	if n <= len(p.slots) {
		p.slots = p.slots[:n]
		return
	}
	for len(p.slots) < n {
		p.slots = append(p.slots, organism.Empty)
	}
}

// PushEmpty appends a vacant slot and returns its index.
func (p *Population) PushEmpty() int {
	p.slots = append(p.slots, organism.Empty)
	return len(p.slots) - 1
}

// At builds a position referring to slot i of this population.
func (p *Population) At(i int) Position {
	return Position{pop: p, idx: i}
}

func (p *Population) String() string {
	return fmt.Sprintf("%s[size=%d orgs=%d]", p.name, len(p.slots), p.numOrgs)
}
