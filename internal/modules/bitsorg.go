package modules

import (
	"fmt"
	"math/rand"
	"strings"

	"phylon/internal/engine"
	"phylon/internal/organism"
	"phylon/internal/trait"
)

// BitsTrait is the trait a bit-string manager publishes its genome under.
const BitsTrait = "bits"

// BitsOrg manages the bit-string organism type. It registers an organism
// factory under its own instance name, so the module name is what Inject
// calls and config scripts refer to.
type BitsOrg struct {
	engine.Base
	n       int
	mutProb float64
}

func NewBitsOrg(name string) *BitsOrg {
	return &BitsOrg{
		Base:    engine.NewBase(name, "bit-string organism manager"),
		n:       32,
		mutProb: 0.01,
	}
}

func (m *BitsOrg) SetupModule() error {
	return m.Control().OrgTypes().Register(m.Name(), m.build)
}

func (m *BitsOrg) SetupDataMap(tm *trait.Manager) error {
	return tm.AddTrait(m.Name(), trait.AccessOwned, BitsTrait, trait.TagString,
		"bit genome rendered as a 0/1 string", nil)
}

func (m *BitsOrg) build(_ *rand.Rand, layout *trait.Layout) (organism.Organism, error) {
	id, ok := layout.ID(BitsTrait)
	if !ok {
		return nil, fmt.Errorf("trait %q is not in the layout", BitsTrait)
	}
	org := &BitsOrganism{
		bits:    make([]bool, m.n),
		mutProb: m.mutProb,
		bitsID:  id,
	}
	org.SetDataMap(trait.NewDataMap(layout))
	org.syncTrait()
	return org, nil
}

func (m *BitsOrg) SetSetting(name string, value any) error {
	switch name {
	case "N":
		n, err := engine.AsInt(value)
		if err != nil {
			return fmt.Errorf("setting N: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("setting N must be positive, got %d", n)
		}
		m.n = n
	case "mut_prob":
		p, err := engine.AsFloat(value)
		if err != nil {
			return fmt.Errorf("setting mut_prob: %w", err)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("setting mut_prob must be in [0,1], got %v", p)
		}
		m.mutProb = p
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
	return nil
}

func (m *BitsOrg) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "N", Desc: "number of bits in the genome", Value: m.n},
		{Name: "mut_prob", Desc: "per-bit flip probability on mutate", Value: m.mutProb},
	}
}

// BitsOrganism is a fixed-length bit genome. The rendered genome lives in
// the bits trait so evaluators and archives read it through the data map
// rather than the concrete type.
type BitsOrganism struct {
	organism.Core
	bits    []bool
	mutProb float64
	bitsID  trait.ID
}

func (o *BitsOrganism) Clone() organism.Organism {
	return &BitsOrganism{
		Core:    o.CloneCore(),
		bits:    append([]bool(nil), o.bits...),
		mutProb: o.mutProb,
		bitsID:  o.bitsID,
	}
}

func (o *BitsOrganism) Mutate(rng *rand.Rand) int {
	flips := 0
	for i := range o.bits {
		if rng.Float64() < o.mutProb {
			o.bits[i] = !o.bits[i]
			flips++
		}
	}
	if flips > 0 {
		o.syncTrait()
	}
	return flips
}

func (o *BitsOrganism) Initialize(rng *rand.Rand) {
	for i := range o.bits {
		o.bits[i] = rng.Intn(2) == 1
	}
	o.syncTrait()
}

func (o *BitsOrganism) ToString() string {
	var b strings.Builder
	b.Grow(len(o.bits))
	for _, bit := range o.bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (o *BitsOrganism) syncTrait() {
	if dm := o.DataMap(); dm != nil {
		_ = trait.Set(dm, o.bitsID, o.ToString())
	}
}
