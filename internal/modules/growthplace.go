package modules

import (
	"fmt"

	"phylon/internal/engine"
	"phylon/internal/organism"
	"phylon/internal/pop"
)

// GrowthPlacement manages placement for one population: births and
// injections reuse vacant slots first, then grow the population until an
// optional capacity is hit. Unmanaged populations keep the default
// append-at-end behavior.
type GrowthPlacement struct {
	engine.Base
	target   string
	capacity int
}

func NewGrowthPlacement(name string) *GrowthPlacement {
	return &GrowthPlacement{
		Base:   engine.NewBase(name, "bounded growth placement"),
		target: "main",
	}
}

func (m *GrowthPlacement) SetupModule() error {
	ctl := m.Control()
	if _, ok := ctl.FindPopulation(m.target); !ok {
		return fmt.Errorf("population %q does not exist", m.target)
	}
	ctl.SetPlaceBirthFun(m.placeBirth)
	ctl.SetPlaceInjectFun(m.placeInject)
	ctl.SetFindNeighborFun(m.findNeighbor)
	return nil
}

func (m *GrowthPlacement) placeBirth(_ organism.Organism, _ pop.Position, target *pop.Population) pop.Position {
	if target.Name() != m.target {
		return m.Control().PushEmpty(target)
	}
	return m.seat(target)
}

func (m *GrowthPlacement) placeInject(_ organism.Organism, target *pop.Population) pop.Position {
	if target.Name() != m.target {
		return m.Control().PushEmpty(target)
	}
	return m.seat(target)
}

// seat finds a home in the managed population. Vacancies left by deaths
// are refilled before the population grows.
func (m *GrowthPlacement) seat(target *pop.Population) pop.Position {
	for i := 0; i < target.Size(); i++ {
		if target.IsEmptyAt(i) {
			return target.At(i)
		}
	}
	if m.capacity > 0 && target.Size() >= m.capacity {
		return pop.Position{}
	}
	return m.Control().PushEmpty(target)
}

// findNeighbor answers neighbor queries for positions in the managed
// population with a uniformly random slot, vacant or not. Positions in
// other populations get an invalid answer.
func (m *GrowthPlacement) findNeighbor(pos pop.Position) pop.Position {
	ctl := m.Control()
	target, ok := ctl.FindPopulation(m.target)
	if !ok || !pos.InPop(target) {
		return pop.Position{}
	}
	if target.Size() == 0 {
		return pop.Position{}
	}
	return target.At(ctl.Rng().Intn(target.Size()))
}

func (m *GrowthPlacement) SetSetting(name string, value any) error {
	switch name {
	case "target":
		return setPopName(&m.target, name, value)
	case "capacity":
		n, err := engine.AsInt(value)
		if err != nil {
			return fmt.Errorf("setting capacity: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("setting capacity must not be negative, got %d", n)
		}
		m.capacity = n
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
	return nil
}

func (m *GrowthPlacement) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "target", Desc: "population this module places into", Value: m.target},
		{Name: "capacity", Desc: "max population size, 0 for unbounded", Value: m.capacity},
	}
}
