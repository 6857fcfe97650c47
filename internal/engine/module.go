package engine

import (
	"phylon/internal/organism"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

// Module is the plug-in contract: identity, setup hooks, one handler per
// lifecycle signal, and activation state. Embed Base to get the whole
// contract and override the handlers the module actually wants; the signals
// a module responds to are declared up front when constructing its Base.
type Module interface {
	Name() string
	Desc() string

	// SetControl hands the module its back-reference; called by AddModule.
	SetControl(c *Controller)

	// DeclaredSignals is the set named at construction; ActiveSignals is
	// the subset currently dispatched.
	DeclaredSignals() SignalSet
	ActiveSignals() SignalSet
	Activate()
	Deactivate()

	// SetupModule runs after config execution, before trait verification.
	SetupModule() error
	// SetupDataMap declares the module's traits.
	SetupDataMap(tm *trait.Manager) error

	BeforeUpdate(update uint64)
	OnUpdate(update uint64)
	BeforeRepro(ppos pop.Position)
	OnOffspringReady(org organism.Organism, ppos pop.Position, target *pop.Population)
	OnInjectReady(org organism.Organism, target *pop.Population)
	BeforePlacement(org organism.Organism, pos, ppos pop.Position)
	OnPlacement(pos pop.Position)
	BeforeMutate(org organism.Organism)
	OnMutate(org organism.Organism)
	BeforeDeath(pos pop.Position)
	BeforeSwap(pos1, pos2 pop.Position)
	OnSwap(pos1, pos2 pop.Position)
	BeforePopResize(p *pop.Population, newSize int)
	OnPopResize(p *pop.Population, oldSize int)
	BeforeExit()
	OnHelp()
	OnError(msg string)
	OnWarning(msg string)
}

// Base carries module identity, the signal bitsets, and default handlers.
// Each default handler clears its own signal from the active set and asks
// the controller to rescan, so a declared-but-unimplemented signal costs one
// wasted dispatch and then disappears from the tables.
type Base struct {
	name     string
	desc     string
	ctl      *Controller
	declared SignalSet
	active   SignalSet
}

// NewBase declares a module's identity and the signals it handles.
func NewBase(name, desc string, signals ...SignalID) Base {
	set := NewSignalSet(signals...)
	return Base{name: name, desc: desc, declared: set, active: set}
}

func (b *Base) Name() string { return b.name }
func (b *Base) Desc() string { return b.desc }

func (b *Base) SetControl(c *Controller) { b.ctl = c }

// Control returns the owning controller; nil before AddModule.
func (b *Base) Control() *Controller { return b.ctl }

func (b *Base) DeclaredSignals() SignalSet { return b.declared }
func (b *Base) ActiveSignals() SignalSet   { return b.active }

// Activate restores dispatch of every declared signal.
func (b *Base) Activate() {
	b.active = b.declared
	b.markDirty()
}

// Deactivate suspends all dispatch to this module.
func (b *Base) Deactivate() {
	b.active = 0
	b.markDirty()
}

func (b *Base) markDirty() {
	if b.ctl != nil {
		b.ctl.RescanSignals()
	}
}

// drop is the default-handler fallback: the signal was dispatched but not
// overridden, so stop sending it.
func (b *Base) drop(id SignalID) {
	if b.active.Has(id) {
		b.active.Clear(id)
		b.markDirty()
	}
}

func (b *Base) SetupModule() error { return nil }

func (b *Base) SetupDataMap(tm *trait.Manager) error { return nil }

func (b *Base) BeforeUpdate(uint64) { b.drop(SigBeforeUpdate) }
func (b *Base) OnUpdate(uint64)     { b.drop(SigOnUpdate) }

func (b *Base) BeforeRepro(pop.Position) { b.drop(SigBeforeRepro) }

func (b *Base) OnOffspringReady(organism.Organism, pop.Position, *pop.Population) {
	b.drop(SigOnOffspringReady)
}

func (b *Base) OnInjectReady(organism.Organism, *pop.Population) { b.drop(SigOnInjectReady) }

func (b *Base) BeforePlacement(organism.Organism, pop.Position, pop.Position) {
	b.drop(SigBeforePlacement)
}

func (b *Base) OnPlacement(pop.Position) { b.drop(SigOnPlacement) }

func (b *Base) BeforeMutate(organism.Organism) { b.drop(SigBeforeMutate) }
func (b *Base) OnMutate(organism.Organism)     { b.drop(SigOnMutate) }

func (b *Base) BeforeDeath(pop.Position) { b.drop(SigBeforeDeath) }

func (b *Base) BeforeSwap(pop.Position, pop.Position) { b.drop(SigBeforeSwap) }
func (b *Base) OnSwap(pop.Position, pop.Position)     { b.drop(SigOnSwap) }

func (b *Base) BeforePopResize(*pop.Population, int) { b.drop(SigBeforePopResize) }
func (b *Base) OnPopResize(*pop.Population, int)     { b.drop(SigOnPopResize) }

func (b *Base) BeforeExit() { b.drop(SigBeforeExit) }
func (b *Base) OnHelp()     { b.drop(SigOnHelp) }

func (b *Base) OnError(string)   { b.drop(SigOnError) }
func (b *Base) OnWarning(string) { b.drop(SigOnWarning) }
