package engine

import (
	"errors"
	"fmt"

	"phylon/internal/organism"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

var ErrDeadParent = errors.New("parent position holds no organism")

// Arena primitives. Every change to a population goes through these so the
// lifecycle signals fire in one canonical order.

// AddOrgAt seats an organism: BeforePlacement, clear any occupant (which
// fires BeforeDeath), seat, OnPlacement. ppos is the parent position for
// births and the invalid position for injections.
func (c *Controller) AddOrgAt(org organism.Organism, pos, ppos pop.Position) {
	if org == nil || org.IsEmpty() {
		panic("AddOrgAt with an empty organism")
	}
	if !pos.Valid() {
		panic(fmt.Sprintf("AddOrgAt at invalid position %s", pos))
	}
	for _, m := range c.listeners(SigBeforePlacement) {
		m.BeforePlacement(org, pos, ppos)
	}
	c.ClearOrgAt(pos)
	pos.Pop().SetOrg(pos.Index(), org)
	for _, m := range c.listeners(SigOnPlacement) {
		m.OnPlacement(pos)
	}
}

// ClearOrgAt vacates a slot, firing BeforeDeath for a live occupant. A
// vacant slot is a no-op.
func (c *Controller) ClearOrgAt(pos pop.Position) {
	if !pos.Valid() {
		panic(fmt.Sprintf("ClearOrgAt at invalid position %s", pos))
	}
	if pos.IsEmptySlot() {
		return
	}
	for _, m := range c.listeners(SigBeforeDeath) {
		m.BeforeDeath(pos)
	}
	pos.Pop().ExtractOrg(pos.Index())
}

// SwapOrgs exchanges two slots; either may be vacant. An organism never
// occupies two slots at once.
func (c *Controller) SwapOrgs(pos1, pos2 pop.Position) {
	if !pos1.Valid() || !pos2.Valid() {
		panic(fmt.Sprintf("SwapOrgs with invalid positions %s, %s", pos1, pos2))
	}
	for _, m := range c.listeners(SigBeforeSwap) {
		m.BeforeSwap(pos1, pos2)
	}
	org1 := pos1.Pop().ExtractOrg(pos1.Index())
	org2 := pos2.Pop().ExtractOrg(pos2.Index())
	if !org1.IsEmpty() {
		pos2.Pop().SetOrg(pos2.Index(), org1)
	}
	if !org2.IsEmpty() {
		pos1.Pop().SetOrg(pos1.Index(), org2)
	}
	for _, m := range c.listeners(SigOnSwap) {
		m.OnSwap(pos1, pos2)
	}
}

// MoveOrg relocates an organism: the destination is cleared first, then the
// slots swap.
func (c *Controller) MoveOrg(from, to pop.Position) {
	c.ClearOrgAt(to)
	c.SwapOrgs(from, to)
}

// ResizePop shrinks or grows a population. Shrinking clears every doomed
// slot first so deaths are observable; growth fills with vacant slots.
func (c *Controller) ResizePop(p *pop.Population, newSize int) {
	old := p.Size()
	if old == newSize || newSize < 0 {
		return
	}
	for i := newSize; i < old; i++ {
		c.ClearOrgAt(p.At(i))
	}
	for _, m := range c.listeners(SigBeforePopResize) {
		m.BeforePopResize(p, newSize)
	}
	p.Resize(newSize)
	for _, m := range c.listeners(SigOnPopResize) {
		m.OnPopResize(p, old)
	}
}

// PushEmpty appends a vacant slot, with resize signals around it, and
// returns its position.
func (c *Controller) PushEmpty(p *pop.Population) pop.Position {
	for _, m := range c.listeners(SigBeforePopResize) {
		m.BeforePopResize(p, p.Size()+1)
	}
	i := p.PushEmpty()
	for _, m := range c.listeners(SigOnPopResize) {
		m.OnPopResize(p, p.Size()-1)
	}
	return p.At(i)
}

// --- placement plug points ---

// SetPlaceBirthFun overrides where offspring land.
func (c *Controller) SetPlaceBirthFun(fn func(org organism.Organism, ppos pop.Position, target *pop.Population) pop.Position) {
	c.placeBirth = fn
}

// SetPlaceInjectFun overrides where injected organisms land.
func (c *Controller) SetPlaceInjectFun(fn func(org organism.Organism, target *pop.Population) pop.Position) {
	c.placeInject = fn
}

// SetFindNeighborFun overrides neighbor lookup.
func (c *Controller) SetFindNeighborFun(fn func(pos pop.Position) pop.Position) {
	c.findNeighbor = fn
}

// FindBirthPos asks the placement function where an offspring of the given
// parent would land, without seating anything.
func (c *Controller) FindBirthPos(org organism.Organism, ppos pop.Position, target *pop.Population) pop.Position {
	return c.placeBirth(org, ppos, target)
}

// FindInjectPos asks the placement function where an injected organism
// would land.
func (c *Controller) FindInjectPos(org organism.Organism, target *pop.Population) pop.Position {
	return c.placeInject(org, target)
}

// FindNeighbor returns a placement-defined neighbor of pos. The default
// picks a uniformly random slot in the same population.
func (c *Controller) FindNeighbor(pos pop.Position) pop.Position {
	return c.findNeighbor(pos)
}

// RandomPos returns a uniformly random slot, vacant or not.
func (c *Controller) RandomPos(p *pop.Population) pop.Position {
	if p == nil || p.Size() == 0 {
		return pop.Position{}
	}
	return p.At(c.rng.Intn(p.Size()))
}

// RandomOrgPos returns a uniformly random live organism's position.
func (c *Controller) RandomOrgPos(p *pop.Population) pop.Position {
	if p == nil || p.NumOrgs() == 0 {
		return pop.Position{}
	}
	nth := c.rng.Intn(p.NumOrgs())
	for i := 0; i < p.Size(); i++ {
		if p.IsEmptyAt(i) {
			continue
		}
		if nth == 0 {
			return p.At(i)
		}
		nth--
	}
	return pop.Position{}
}

// --- injection ---

// Inject builds n organisms of a registered type, randomizes them, and
// places each: OnInjectReady, placement, AddOrgAt. A failed placement is
// recorded as an error and the organism is dropped.
func (c *Controller) Inject(typeName string, p *pop.Population, n int) error {
	if !c.isSetup {
		c.errs.AddError("inject %q: %v", typeName, ErrNotSetup)
		return ErrNotSetup
	}
	factory, err := c.orgTypes.Resolve(typeName)
	if err != nil {
		c.errs.AddError("inject: %v", err)
		return err
	}
	for i := 0; i < n; i++ {
		org, err := factory(c.rng, c.layout)
		if err != nil {
			c.errs.AddError("inject %q: %v", typeName, err)
			return fmt.Errorf("inject %q: %w", typeName, err)
		}
		org.Initialize(c.rng)
		c.injectOne(org, p)
	}
	return nil
}

// InjectCopy clones a prototype organism n times and places the copies.
func (c *Controller) InjectCopy(proto organism.Organism, p *pop.Population, n int) error {
	if !c.isSetup {
		c.errs.AddError("inject copy: %v", ErrNotSetup)
		return ErrNotSetup
	}
	if proto == nil || proto.IsEmpty() {
		return errors.New("inject copy of an empty organism")
	}
	for i := 0; i < n; i++ {
		c.injectOne(proto.Clone(), p)
	}
	return nil
}

func (c *Controller) injectOne(org organism.Organism, p *pop.Population) {
	for _, m := range c.listeners(SigOnInjectReady) {
		m.OnInjectReady(org, p)
	}
	pos := c.placeInject(org, p)
	if !pos.Valid() {
		c.errs.AddError("injection failed: no room in population %q", p.Name())
		return
	}
	c.AddOrgAt(org, pos, pop.Position{})
}

// --- birth ---

// DoBirth produces n offspring of the organism at ppos into the target
// population. BeforeRepro fires once; each offspring is cloned, optionally
// mutated inside BeforeMutate/OnMutate, re-seeded per trait init policy,
// announced with OnOffspringReady, and placed. An offspring the placement
// function cannot seat is destroyed without raising an error, unlike a
// failed injection: birth overflow is an expected steady-state condition
// under bounded placement.
func (c *Controller) DoBirth(ppos pop.Position, target *pop.Population, n int, doMutate bool) (pop.Position, error) {
	if ppos.IsEmptySlot() {
		c.errs.AddError("birth: %v", ErrDeadParent)
		return pop.Position{}, ErrDeadParent
	}
	parent := ppos.Org()

	for _, m := range c.listeners(SigBeforeRepro) {
		m.BeforeRepro(ppos)
	}

	var last pop.Position
	for i := 0; i < n; i++ {
		child := parent.Clone()
		if doMutate {
			for _, m := range c.listeners(SigBeforeMutate) {
				m.BeforeMutate(child)
			}
			child.Mutate(c.rng)
			for _, m := range c.listeners(SigOnMutate) {
				m.OnMutate(child)
			}
		}
		c.applyInitPolicies(child)
		for _, m := range c.listeners(SigOnOffspringReady) {
			m.OnOffspringReady(child, ppos, target)
		}
		pos := c.placeBirth(child, ppos, target)
		if !pos.Valid() {
			continue
		}
		c.AddOrgAt(child, pos, ppos)
		last = pos
	}
	return last, nil
}

// applyInitPolicies re-seeds offspring trait slots. The default policy
// resets a slot to its layout default; the inheriting policies keep the
// parent's value, which the clone already carries.
func (c *Controller) applyInitPolicies(child organism.Organism) {
	dm := child.DataMap()
	if dm == nil {
		return
	}
	for id := trait.ID(0); int(id) < c.layout.NumTraits(); id++ {
		if c.layout.InitPolicy(id) == trait.InitDefault {
			_ = dm.Reset(id)
		}
	}
}

// --- bulk population operations ---

// MoveOrgs relocates every live organism from src into fresh slots of dst.
func (c *Controller) MoveOrgs(src, dst *pop.Population) {
	for i := 0; i < src.Size(); i++ {
		if src.IsEmptyAt(i) {
			continue
		}
		c.MoveOrg(src.At(i), c.PushEmpty(dst))
	}
}

// CopyPop clones every live organism of src into dst through the injection
// flow.
func (c *Controller) CopyPop(src, dst *pop.Population) {
	for i := 0; i < src.Size(); i++ {
		if src.IsEmptyAt(i) {
			continue
		}
		c.injectOne(src.Org(i).Clone(), dst)
	}
}

// EmptyPop clears every organism and resizes to n vacant slots.
func (c *Controller) EmptyPop(p *pop.Population, n int) {
	for i := 0; i < p.Size(); i++ {
		c.ClearOrgAt(p.At(i))
	}
	c.ResizePop(p, n)
}
