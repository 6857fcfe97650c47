package pop

import (
	"fmt"

	"phylon/internal/organism"
)

// Position names one slot in one population. The zero Position is invalid
// and doubles as the universal "no placement" answer.
type Position struct {
	pop *Population
	idx int
}

func (pos Position) Valid() bool {
	return pos.pop != nil && pos.idx >= 0 && pos.idx < pos.pop.Size()
}

// IsEmptySlot reports whether the position is invalid or refers to a vacant
// slot.
func (pos Position) IsEmptySlot() bool {
	return !pos.Valid() || pos.pop.IsEmptyAt(pos.idx)
}

func (pos Position) Org() organism.Organism {
	if !pos.Valid() {
		return organism.Empty
	}
	return pos.pop.Org(pos.idx)
}

func (pos Position) Pop() *Population { return pos.pop }
func (pos Position) Index() int       { return pos.idx }

// InPop reports whether the position refers into the given population.
func (pos Position) InPop(p *Population) bool {
	return pos.pop == p
}

func (pos Position) SamePlace(o Position) bool {
	return pos.pop == o.pop && pos.idx == o.idx
}

func (pos Position) String() string {
	if pos.pop == nil {
		return "invalid"
	}
	return fmt.Sprintf("%s[%d]", pos.pop.Name(), pos.idx)
}
