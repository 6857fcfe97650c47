package modules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"phylon/internal/engine"
	"phylon/internal/storage"
)

// newArchiveWorld seeds a three-organism world with fitness 2, 4, and 6.
func newArchiveWorld(t *testing.T, arch *TraitArchive) *engine.Controller {
	t.Helper()
	ctl, p := newWorld(t, newBitsType(t, 8, 0), NewEvalOnes("eval"), arch)
	if err := ctl.Inject("bits_org", p, 3); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	setBits(t, p, 0, "11000000")
	setBits(t, p, 1, "11110000")
	setBits(t, p, 2, "11111100")
	return ctl
}

func TestArchiveRecordsTheWholeRun(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	arch := NewTraitArchive("archive", store)
	arch.SetRunConfig("onemax.lua")
	ctl := newArchiveWorld(t, arch)

	ctl.Update(2)
	ctl.Finish()

	rows, ok, err := store.GetSummaries(ctx, arch.RunID())
	if err != nil || !ok {
		t.Fatalf("GetSummaries: ok=%v err=%v", ok, err)
	}
	// Two specs sampled on each of two updates, fitness {2,4,6}.
	if len(rows) != 4 {
		t.Fatalf("summary rows = %d, want 4", len(rows))
	}
	wantRows := []struct {
		update uint64
		filter string
		value  string
	}{
		{1, "mean", "4"},
		{1, "max", "6"},
		{2, "mean", "4"},
		{2, "max", "6"},
	}
	for i, w := range wantRows {
		r := rows[i]
		if r.Update != w.update || r.Trait != "fitness" || r.Filter != w.filter || r.Value != w.value {
			t.Fatalf("row %d = %+v, want %+v", i, r, w)
		}
	}

	snap, ok, err := store.GetSnapshot(ctx, arch.RunID()+"/main@2")
	if err != nil || !ok {
		t.Fatalf("GetSnapshot: ok=%v err=%v", ok, err)
	}
	if snap.Population != "main" || snap.Update != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Organisms) != 3 {
		t.Fatalf("snapshot organisms = %d, want 3", len(snap.Organisms))
	}
	if snap.Organisms[1].Genome != "11110000" {
		t.Fatalf("organism 1 genome = %q", snap.Organisms[1].Genome)
	}
	// The fitness trait is archived per organism; the string genome trait
	// is carried by the Genome field, not the trait map.
	if got := snap.Organisms[2].Traits; len(got) != 1 || got["fitness"] != 6 {
		t.Fatalf("organism 2 traits = %v", got)
	}

	run, ok, err := store.GetRun(ctx, arch.RunID())
	if err != nil || !ok {
		t.Fatalf("GetRun: ok=%v err=%v", ok, err)
	}
	if run.Seed != 11 || run.Updates != 2 || run.Config != "onemax.lua" {
		t.Fatalf("run = %+v", run)
	}
	if len(run.Populations) != 1 || run.Populations[0] != "main" {
		t.Fatalf("run populations = %v", run.Populations)
	}
	if len(run.Errors) != 0 {
		t.Fatalf("run errors = %v", run.Errors)
	}
	if run.StartedAt.IsZero() || run.FinishedAt.Before(run.StartedAt) {
		t.Fatalf("run timestamps: started=%v finished=%v", run.StartedAt, run.FinishedAt)
	}
}

func TestArchiveSamplesOnItsInterval(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	arch := NewTraitArchive("archive", store)
	if err := arch.SetSetting("interval", 2); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	if err := arch.SetSetting("traits", "fitness:max"); err != nil {
		t.Fatalf("set traits: %v", err)
	}
	ctl := newArchiveWorld(t, arch)

	ctl.Update(5)
	ctl.Finish()

	rows, ok, err := store.GetSummaries(ctx, arch.RunID())
	if err != nil || !ok {
		t.Fatalf("GetSummaries: ok=%v err=%v", ok, err)
	}
	if len(rows) != 2 {
		t.Fatalf("summary rows = %d, want 2", len(rows))
	}
	if rows[0].Update != 2 || rows[1].Update != 4 {
		t.Fatalf("sampled updates %d and %d, want 2 and 4", rows[0].Update, rows[1].Update)
	}
}

func TestArchiveNeedsAStore(t *testing.T) {
	ctl, err := engine.New(engine.Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctl.AddModule(newBitsType(t, 8, 0)); err != nil {
		t.Fatalf("add bits_org: %v", err)
	}
	if err := ctl.AddModule(NewEvalOnes("eval")); err != nil {
		t.Fatalf("add eval: %v", err)
	}
	if err := ctl.AddModule(NewTraitArchive("archive", nil)); err != nil {
		t.Fatalf("add archive: %v", err)
	}
	if _, err := ctl.AddPopulation("main"); err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}

	err = ctl.Setup()
	if !errors.Is(err, engine.ErrSetupFailed) {
		t.Fatalf("Setup error = %v, want setup failure", err)
	}
	if msgs := strings.Join(ctl.Errors().Errors(), "\n"); !strings.Contains(msgs, "needs a store") {
		t.Fatalf("error text: %s", msgs)
	}
}

func TestArchiveTraitTypoFailsSetup(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	arch := NewTraitArchive("archive", store)
	if err := arch.SetSetting("traits", "fitnes:mean"); err != nil {
		t.Fatalf("set traits: %v", err)
	}

	ctl, err := engine.New(engine.Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, m := range []engine.Module{newBitsType(t, 8, 0), NewEvalOnes("eval"), arch} {
		if err := ctl.AddModule(m); err != nil {
			t.Fatalf("add module: %v", err)
		}
	}
	if _, err := ctl.AddPopulation("main"); err != nil {
		t.Fatalf("AddPopulation: %v", err)
	}

	err = ctl.Setup()
	if !errors.Is(err, engine.ErrSetupFailed) {
		t.Fatalf("Setup error = %v, want setup failure", err)
	}
	if msgs := strings.Join(ctl.Errors().Errors(), "\n"); !strings.Contains(msgs, `"fitnes"`) {
		t.Fatalf("error text: %s", msgs)
	}
}

func TestParseSummarySpecs(t *testing.T) {
	specs, err := parseSummarySpecs(" fitness:mean, fitness : max ,,bits:richness ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []summarySpec{
		{trait: "fitness", filter: "mean"},
		{trait: "fitness", filter: "max"},
		{trait: "bits", filter: "richness"},
	}
	if len(specs) != len(want) {
		t.Fatalf("specs = %v", specs)
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Fatalf("spec %d = %+v, want %+v", i, specs[i], want[i])
		}
	}

	if _, err := parseSummarySpecs("fitness"); err == nil {
		t.Fatal("spec without a filter accepted")
	}
	if _, err := parseSummarySpecs(":mean"); err == nil {
		t.Fatal("spec without a trait accepted")
	}
}
