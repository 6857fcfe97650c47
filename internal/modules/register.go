package modules

import (
	"phylon/internal/engine"
	"phylon/internal/storage"
	"phylon/internal/trait"
)

// RegisterBuiltins registers the bundled module types with a controller.
// The type names double as the constructor globals config scripts call.
// Archive instances share the given store.
func RegisterBuiltins(ctl *engine.Controller, store storage.Store) error {
	types := []struct {
		name  string
		desc  string
		build engine.Builder
	}{
		{"BitsOrg", "bit-string organism manager", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewBitsOrg(inst), nil
		}},
		{"EvalOnes", "counting-ones evaluator", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewEvalOnes(inst), nil
		}},
		{"SelectElite", "elite selection", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewSelectElite(inst), nil
		}},
		{"SelectTournament", "tournament selection", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewSelectTournament(inst), nil
		}},
		{"GrowthPlacement", "bounded growth placement", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewGrowthPlacement(inst), nil
		}},
		{"TraitArchive", "trait summary archiver", func(_ *engine.Controller, inst string) (engine.Module, error) {
			return NewTraitArchive(inst, store), nil
		}},
	}
	for _, t := range types {
		if err := ctl.ModTypes().Register(t.name, t.desc, t.build); err != nil {
			return err
		}
	}
	return nil
}

// cachedID resolves a trait name against the locked layout once and keeps
// the dense ID for later dispatches.
func cachedID(ctl *engine.Controller, cache *trait.ID, name string) trait.ID {
	if *cache == trait.InvalidID {
		*cache = ctl.Layout().MustID(name)
	}
	return *cache
}
