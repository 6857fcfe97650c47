package modules

import (
	"fmt"
	"sort"

	"phylon/internal/engine"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

// SelectElite births copies of the fittest organisms each update. The
// ranking is stable, so ties keep the earlier slot and runs reproduce.
type SelectElite struct {
	engine.Base
	from     string
	to       string
	topCount int
	births   int
	fitID    trait.ID
}

func NewSelectElite(name string) *SelectElite {
	return &SelectElite{
		Base:     engine.NewBase(name, "elite selection", engine.SigOnUpdate),
		from:     "main",
		to:       "main",
		topCount: 1,
		births:   1,
		fitID:    trait.InvalidID,
	}
}

func (m *SelectElite) SetupDataMap(tm *trait.Manager) error {
	return tm.AddTrait(m.Name(), trait.AccessRequired, FitnessTrait, trait.TagFloat, "", nil)
}

func (m *SelectElite) OnUpdate(uint64) {
	ctl := m.Control()
	src, dst, ok := selectionPops(ctl, m.Name(), m.from, m.to)
	if !ok {
		return
	}
	ranked := rankByFitness(src, cachedID(ctl, &m.fitID, FitnessTrait))
	n := m.topCount
	if n > len(ranked) {
		n = len(ranked)
	}
	for _, sc := range ranked[:n] {
		_, _ = ctl.DoBirth(sc.pos, dst, m.births, true)
	}
}

func (m *SelectElite) SetSetting(name string, value any) error {
	switch name {
	case "from":
		return setPopName(&m.from, name, value)
	case "to":
		return setPopName(&m.to, name, value)
	case "top_count":
		return setPositive(&m.topCount, name, value)
	case "births":
		return setPositive(&m.births, name, value)
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
}

func (m *SelectElite) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "from", Desc: "population parents come from", Value: m.from},
		{Name: "to", Desc: "population offspring go to", Value: m.to},
		{Name: "top_count", Desc: "how many of the fittest reproduce", Value: m.topCount},
		{Name: "births", Desc: "offspring per selected parent", Value: m.births},
	}
}

// SelectTournament samples tournament_size random organisms per birth and
// births a mutated copy of the winner.
type SelectTournament struct {
	engine.Base
	from           string
	to             string
	births         int
	tournamentSize int
	fitID          trait.ID
}

func NewSelectTournament(name string) *SelectTournament {
	return &SelectTournament{
		Base:           engine.NewBase(name, "tournament selection", engine.SigOnUpdate),
		from:           "main",
		to:             "main",
		births:         1,
		tournamentSize: 3,
		fitID:          trait.InvalidID,
	}
}

func (m *SelectTournament) SetupDataMap(tm *trait.Manager) error {
	return tm.AddTrait(m.Name(), trait.AccessRequired, FitnessTrait, trait.TagFloat, "", nil)
}

func (m *SelectTournament) OnUpdate(uint64) {
	ctl := m.Control()
	src, dst, ok := selectionPops(ctl, m.Name(), m.from, m.to)
	if !ok {
		return
	}
	if src.NumOrgs() == 0 {
		return
	}
	fitID := cachedID(ctl, &m.fitID, FitnessTrait)
	for i := 0; i < m.births; i++ {
		var best pop.Position
		bestFit := 0.0
		for j := 0; j < m.tournamentSize; j++ {
			cand := ctl.RandomOrgPos(src)
			f, _ := cand.Org().DataMap().Float(fitID)
			if !best.Valid() || f > bestFit {
				best, bestFit = cand, f
			}
		}
		if best.Valid() {
			_, _ = ctl.DoBirth(best, dst, 1, true)
		}
	}
}

func (m *SelectTournament) SetSetting(name string, value any) error {
	switch name {
	case "from":
		return setPopName(&m.from, name, value)
	case "to":
		return setPopName(&m.to, name, value)
	case "births":
		return setPositive(&m.births, name, value)
	case "tournament_size":
		return setPositive(&m.tournamentSize, name, value)
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
}

func (m *SelectTournament) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "from", Desc: "population parents come from", Value: m.from},
		{Name: "to", Desc: "population offspring go to", Value: m.to},
		{Name: "births", Desc: "tournaments to run per update", Value: m.births},
		{Name: "tournament_size", Desc: "organisms sampled per tournament", Value: m.tournamentSize},
	}
}

type scoredPos struct {
	pos     pop.Position
	fitness float64
}

// rankByFitness scores every live organism and orders them by descending
// fitness with a stable sort.
func rankByFitness(p *pop.Population, fitID trait.ID) []scoredPos {
	ranked := make([]scoredPos, 0, p.NumOrgs())
	for i := 0; i < p.Size(); i++ {
		if p.IsEmptyAt(i) {
			continue
		}
		pos := p.At(i)
		f, _ := pos.Org().DataMap().Float(fitID)
		ranked = append(ranked, scoredPos{pos: pos, fitness: f})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].fitness > ranked[b].fitness
	})
	return ranked
}

func selectionPops(ctl *engine.Controller, module, from, to string) (src, dst *pop.Population, ok bool) {
	src, ok = ctl.FindPopulation(from)
	if !ok {
		ctl.Errors().AddError("module %q: unknown population %q", module, from)
		return nil, nil, false
	}
	dst, ok = ctl.FindPopulation(to)
	if !ok {
		ctl.Errors().AddError("module %q: unknown population %q", module, to)
		return nil, nil, false
	}
	return src, dst, true
}

func setPopName(dst *string, setting string, value any) error {
	s, err := engine.AsString(value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", setting, err)
	}
	if s == "" {
		return fmt.Errorf("setting %s: population name is required", setting)
	}
	*dst = s
	return nil
}

func setPositive(dst *int, setting string, value any) error {
	n, err := engine.AsInt(value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", setting, err)
	}
	if n <= 0 {
		return fmt.Errorf("setting %s must be positive, got %d", setting, n)
	}
	*dst = n
	return nil
}
