package modules

import (
	"fmt"
	"strings"

	"phylon/internal/engine"
	"phylon/internal/trait"
)

// FitnessTrait is the trait evaluators write their score to.
const FitnessTrait = "fitness"

// EvalOnes scores every organism in its target collection by the number
// of one bits in the genome. Module order matters: add it before any
// selector so scores are fresh when selection runs in the same update.
type EvalOnes struct {
	engine.Base
	target string
	bitsID trait.ID
	fitID  trait.ID
}

func NewEvalOnes(name string) *EvalOnes {
	return &EvalOnes{
		Base:   engine.NewBase(name, "counting-ones evaluator", engine.SigOnUpdate),
		target: "main",
		bitsID: trait.InvalidID,
		fitID:  trait.InvalidID,
	}
}

func (m *EvalOnes) SetupDataMap(tm *trait.Manager) error {
	if err := tm.AddTrait(m.Name(), trait.AccessRequired, BitsTrait, trait.TagString, "", nil); err != nil {
		return err
	}
	return tm.AddTrait(m.Name(), trait.AccessOwned, FitnessTrait, trait.TagFloat,
		"count of one bits in the genome", nil)
}

func (m *EvalOnes) OnUpdate(uint64) {
	m.Evaluate()
}

// Evaluate scores the collection once, outside the update loop if needed.
func (m *EvalOnes) Evaluate() {
	ctl := m.Control()
	coll, err := ctl.ToCollection(m.target)
	if err != nil {
		return
	}
	bitsID := cachedID(ctl, &m.bitsID, BitsTrait)
	fitID := cachedID(ctl, &m.fitID, FitnessTrait)
	for _, pos := range coll.Live() {
		dm := pos.Org().DataMap()
		bits := trait.MustGet[string](dm, bitsID)
		_ = trait.Set(dm, fitID, float64(strings.Count(bits, "1")))
	}
}

func (m *EvalOnes) SetSetting(name string, value any) error {
	switch name {
	case "target":
		s, err := engine.AsString(value)
		if err != nil {
			return fmt.Errorf("setting target: %w", err)
		}
		m.target = s
	default:
		return fmt.Errorf("module %q has no setting %q", m.Name(), name)
	}
	return nil
}

func (m *EvalOnes) Settings() []engine.SettingInfo {
	return []engine.SettingInfo{
		{Name: "target", Desc: "collection of populations to evaluate", Value: m.target},
	}
}
