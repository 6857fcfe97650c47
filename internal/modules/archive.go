package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"phylon/internal/engine"
	"phylon/internal/pop"
	"phylon/internal/storage"
	"phylon/internal/trait"
)

// summarySpec is one trait:filter pair from the traits setting.
type summarySpec struct {
	trait  string
	filter string
}

// TraitArchive samples trait summaries on an update interval and persists
// the series, an end-of-run snapshot per target population, and the run
// record itself through a storage backend. One archive instance is one
// run: its run ID is minted at construction.
type TraitArchive struct {
	engine.Base
	store    storage.Store
	runID    string
	config   string
	target   string
	specs    string
	interval int
	snapshot bool
	parsed   []summarySpec
	rows     []storage.SummaryRow
	started  time.Time
}

func NewTraitArchive(name string, store storage.Store) *TraitArchive {
	return &TraitArchive{
		Base:     engine.NewBase(name, "trait summary archiver", engine.SigOnUpdate, engine.SigBeforeExit),
		store:    store,
		runID:    storage.NewRunID(),
		target:   "main",
		specs:    "fitness:mean,fitness:max",
		interval: 1,
		snapshot: true,
	}
}

func (m *TraitArchive) RunID() string { return m.runID }

// SetRunConfig records a description of how the run was configured, such
// as the loaded file list. Stored verbatim in the run record.
func (m *TraitArchive) SetRunConfig(desc string) { m.config = desc }

func (m *TraitArchive) SetupModule() error {
	if m.store == nil {
		return fmt.Errorf("module %q needs a store", m.Name())
	}
	m.started = time.Now().UTC()
	return nil
}

// SetupDataMap declares each bare trait in the summary specs as required,
// so a typo in the traits setting fails verification instead of producing
// an empty archive. Equation specs cannot be checked until they run.
// Declared traits are marked for snapshot capture.
func (m *TraitArchive) SetupDataMap(tm *trait.Manager) error {
	if err := m.ensureParsed(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, sp := range m.parsed {
		if !isTraitName(sp.trait) || seen[sp.trait] {
			continue
		}
		seen[sp.trait] = true
		err := tm.AddTrait(m.Name(), trait.AccessRequired, sp.trait, trait.TagFloat, "", nil,
			trait.TagBool, trait.TagInt, trait.TagString,
			trait.TagIntVec, trait.TagFloatVec, trait.TagStringVec)
		if err != nil {
			return err
		}
		if err := tm.SetArchivePolicy(sp.trait, trait.ArchiveLast); err != nil {
			return err
		}
	}
	return nil
}

func (m *TraitArchive) OnUpdate(update uint64) {
	if m.interval <= 0 || update%uint64(m.interval) != 0 {
		return
	}
	m.Sample(update)
}

// Sample records one summary row per spec for the current state of the
// target collection. Summary failures are already reported through the
// error manager, so a bad spec costs one row, not the run.
func (m *TraitArchive) Sample(update uint64) {
	ctl := m.Control()
	coll, err := ctl.ToCollection(m.target)
	if err != nil {
		return
	}
	for _, sp := range m.parsed {
		val, err := ctl.TraitSummary(sp.trait, sp.filter, coll)
		if err != nil {
			continue
		}
		m.rows = append(m.rows, storage.SummaryRow{
			VersionedRecord: storage.NewRecordVersion(),
			Update:          update,
			Trait:           sp.trait,
			Filter:          sp.filter,
			Value:           val,
		})
	}
}

// BeforeExit flushes everything: the summary series, one snapshot per
// target population, and last the run record, so its error list includes
// any archiving failures that came before it.
func (m *TraitArchive) BeforeExit() {
	ctl := m.Control()
	ctx := context.Background()

	if err := m.store.SaveSummaries(ctx, m.runID, m.rows); err != nil {
		ctl.Errors().AddError("archive summaries: %v", err)
	}

	if m.snapshot {
		for _, name := range strings.Split(m.target, ",") {
			name = strings.TrimSpace(name)
			p, ok := ctl.FindPopulation(name)
			if !ok {
				continue
			}
			if err := m.store.SaveSnapshot(ctx, m.buildSnapshot(p)); err != nil {
				ctl.Errors().AddError("archive snapshot %q: %v", name, err)
			}
		}
	}

	pops := ctl.Populations()
	names := make([]string, len(pops))
	for i, p := range pops {
		names[i] = p.Name()
	}
	run := storage.RunRecord{
		VersionedRecord: storage.NewRecordVersion(),
		ID:              m.runID,
		Config:          m.config,
		Seed:            ctl.Seed(),
		Updates:         ctl.GetUpdate(),
		Populations:     names,
		StartedAt:       m.started,
		FinishedAt:      time.Now().UTC(),
		Errors:          ctl.Errors().Errors(),
		Warnings:        ctl.Errors().Warnings(),
	}
	if err := m.store.SaveRun(ctx, run); err != nil {
		ctl.Errors().AddError("archive run: %v", err)
	}
}

// buildSnapshot captures every live organism in the population: its
// rendered genome always, plus the final value of each scalar numeric
// trait whose archive policy asks to be kept.
func (m *TraitArchive) buildSnapshot(p *pop.Population) storage.SnapshotRecord {
	ctl := m.Control()
	layout := ctl.Layout()

	var kept []trait.ID
	for i := 0; i < layout.NumTraits(); i++ {
		id := trait.ID(i)
		if layout.ArchivePolicy(id) == trait.ArchiveNone {
			continue
		}
		switch layout.Tag(id) {
		case trait.TagBool, trait.TagInt, trait.TagFloat:
			kept = append(kept, id)
		}
	}

	rec := storage.SnapshotRecord{
		VersionedRecord: storage.NewRecordVersion(),
		ID:              fmt.Sprintf("%s/%s@%d", m.runID, p.Name(), ctl.GetUpdate()),
		RunID:           m.runID,
		Update:          ctl.GetUpdate(),
		Population:      p.Name(),
	}
	for i := 0; i < p.Size(); i++ {
		if p.IsEmptyAt(i) {
			continue
		}
		org := p.Org(i)
		orec := storage.OrganismRecord{Index: i, Genome: org.ToString()}
		if len(kept) > 0 {
			orec.Traits = make(map[string]float64, len(kept))
			for _, id := range kept {
				if v, err := org.DataMap().Float(id); err == nil {
					orec.Traits[layout.Name(id)] = v
				}
			}
		}
		rec.Organisms = append(rec.Organisms, orec)
	}
	return rec
}

func (m *TraitArchive) ensureParsed() error {
	if m.parsed != nil {
		return nil
	}
	specs, err := parseSummarySpecs(m.specs)
	if err != nil {
		return err
	}
	if specs == nil {
		specs = []summarySpec{}
	}
	m.parsed = specs
	return nil
}

// parseSummarySpecs splits a "fitness:mean,fitness:max" style list. The
// part before the colon may be a trait name or an equation.
func parseSummarySpecs(s string) ([]summarySpec, error) {
	var specs []summarySpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec, filter, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("summary spec %q: missing filter", part)
		}
		spec = strings.TrimSpace(spec)
		filter = strings.TrimSpace(filter)
		if spec == "" {
			return nil, fmt.Errorf("summary spec %q: missing trait", part)
		}
		specs = append(specs, summarySpec{trait: spec, filter: filter})
	}
	return specs, nil
}

// isTraitName reports whether the spec is a bare identifier rather than
// an equation, so its existence can be checked at setup.
func isTraitName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return s != ""
}

func (m *TraitArchive) SetSetting(name string, value any) error {
	switch name {
	case "target":
		return setPopName(&m.target, name, value)
	case "traits":
		s, err := engine.AsString(value)
		if err != nil {
			return fmt.Errorf("setting traits: %w", err)
		}
		if _, err := parseSummarySpecs(s); err != nil {
			return fmt.Errorf("setting traits: %w", err)
		}
		m.specs = s
		m.parsed = nil
	case "interval":
		n, err := engine.AsInt(value)
		if err != nil {
			return fmt.Errorf("setting interval: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("setting interval must not be negative, got %d", n)
		}
		m.interval = n
	case "snapshot":
		b, err := engine.AsBool(value)
		if err != nil {
			return fmt.Errorf("setting snapshot: %w", err)
		}
		m.snapshot = b
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
	return nil
}

func (m *TraitArchive) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "target", Desc: "collection of populations to archive", Value: m.target},
		{Name: "traits", Desc: "comma-separated trait:filter summary specs", Value: m.specs},
		{Name: "interval", Desc: "updates between samples, 0 disables", Value: m.interval},
		{Name: "snapshot", Desc: "save a final population snapshot", Value: m.snapshot},
	}
}
