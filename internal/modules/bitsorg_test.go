package modules

import (
	"math/rand"
	"strings"
	"testing"

	"phylon/internal/engine"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

// newBitsType builds a configured bit-string manager. Tests that follow
// genomes through births pass a zero mutation probability so offspring
// stay byte-identical to their parents.
func newBitsType(t *testing.T, n int, mutProb float64) *BitsOrg {
	t.Helper()
	m := NewBitsOrg("bits_org")
	if err := m.SetSetting("N", n); err != nil {
		t.Fatalf("set N: %v", err)
	}
	if err := m.SetSetting("mut_prob", mutProb); err != nil {
		t.Fatalf("set mut_prob: %v", err)
	}
	return m
}

func newWorld(t *testing.T, mods ...engine.Module) (*engine.Controller, *pop.Population) {
	t.Helper()
	ctl, err := engine.New(engine.Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, m := range mods {
		if err := ctl.AddModule(m); err != nil {
			t.Fatalf("add module %q: %v", m.Name(), err)
		}
	}
	p, err := ctl.AddPopulation("main")
	if err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}
	if err := ctl.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return ctl, p
}

// setBits overwrites an organism's genome in place and refreshes its trait.
func setBits(t *testing.T, p *pop.Population, i int, genome string) {
	t.Helper()
	org, ok := p.Org(i).(*BitsOrganism)
	if !ok {
		t.Fatalf("slot %d holds %T", i, p.Org(i))
	}
	org.bits = make([]bool, len(genome))
	for j := range genome {
		org.bits[j] = genome[j] == '1'
	}
	org.syncTrait()
}

func genomeAt(t *testing.T, p *pop.Population, i int) string {
	t.Helper()
	org, ok := p.Org(i).(*BitsOrganism)
	if !ok {
		t.Fatalf("slot %d holds %T", i, p.Org(i))
	}
	return org.ToString()
}

func TestBitsOrgInjectsRandomGenomes(t *testing.T) {
	ctl, p := newWorld(t, newBitsType(t, 8, 0))
	if err := ctl.Inject("bits_org", p, 3); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	bitsID := ctl.Layout().MustID(BitsTrait)
	for i := 0; i < 3; i++ {
		g := genomeAt(t, p, i)
		if len(g) != 8 {
			t.Fatalf("genome %d length = %d, want 8", i, len(g))
		}
		if strings.Trim(g, "01") != "" {
			t.Fatalf("genome %d has stray characters: %q", i, g)
		}
		if got := trait.MustGet[string](p.Org(i).DataMap(), bitsID); got != g {
			t.Fatalf("bits trait = %q, genome = %q", got, g)
		}
	}
}

func TestBitsOrganismCloneIsIndependent(t *testing.T) {
	ctl, p := newWorld(t, newBitsType(t, 8, 0))
	if err := ctl.Inject("bits_org", p, 1); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	setBits(t, p, 0, "10101010")
	org := p.Org(0).(*BitsOrganism)

	clone := org.Clone().(*BitsOrganism)
	org.bits[0] = false
	org.syncTrait()

	if clone.ToString() != "10101010" {
		t.Fatalf("clone genome = %q, want 10101010", clone.ToString())
	}
	bitsID := ctl.Layout().MustID(BitsTrait)
	if got := trait.MustGet[string](clone.DataMap(), bitsID); got != "10101010" {
		t.Fatalf("clone bits trait = %q, want 10101010", got)
	}
}

func TestBitsOrganismMutateFlipsAndSyncs(t *testing.T) {
	ctl, p := newWorld(t, newBitsType(t, 8, 1.0))
	if err := ctl.Inject("bits_org", p, 1); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	setBits(t, p, 0, "00000000")
	org := p.Org(0).(*BitsOrganism)

	// Probability one flips every bit, so the outcome is exact.
	if flips := org.Mutate(rand.New(rand.NewSource(1))); flips != 8 {
		t.Fatalf("flips = %d, want 8", flips)
	}
	if org.ToString() != "11111111" {
		t.Fatalf("genome = %q, want 11111111", org.ToString())
	}
	bitsID := ctl.Layout().MustID(BitsTrait)
	if got := trait.MustGet[string](org.DataMap(), bitsID); got != "11111111" {
		t.Fatalf("bits trait = %q, want 11111111", got)
	}
}

func TestBitsOrgRejectsBadSettings(t *testing.T) {
	m := NewBitsOrg("bits_org")
	if err := m.SetSetting("N", 0); err == nil {
		t.Fatal("zero genome size accepted")
	}
	if err := m.SetSetting("mut_prob", 1.5); err == nil {
		t.Fatal("out-of-range mutation probability accepted")
	}
	if err := m.SetSetting("ghost", 1); err == nil {
		t.Fatal("unknown setting accepted")
	}
	if got := len(m.Settings()); got != 2 {
		t.Fatalf("settings count = %d, want 2", got)
	}
}

func TestBitsOrgFactoryNeedsTrait(t *testing.T) {
	m := newBitsType(t, 8, 0)
	if _, err := m.build(nil, trait.NewLayout()); err == nil {
		t.Fatal("factory succeeded without the bits trait")
	}
}
