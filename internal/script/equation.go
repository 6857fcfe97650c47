package script

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"phylon/internal/engine"
	"phylon/internal/trait"
)

// CompileEquation turns an expression over trait names into a function of
// one data map. The expression compiles once as a Lua chunk whose
// environment resolves trait names against the data map in scope at call
// time, falling back to real globals so math.* stays available.
func (in *Interp) CompileEquation(expr string) (engine.EquationFn, error) {
	expr = in.Preprocess(expr)
	chunk := "local _ENV = ...; return (" + expr + ")"

	base := in.l.Top()
	if err := lua.LoadBuffer(in.l, chunk, "=equation", ""); err != nil {
		return nil, fmt.Errorf("equation %q: %s", expr, in.popError(base))
	}
	ref := in.storeRef()

	return func(dm *trait.DataMap) (float64, error) {
		prev := in.eqDM
		in.eqDM = dm
		defer func() { in.eqDM = prev }()

		base := in.l.Top()
		defer in.l.SetTop(base)

		in.pushRef(ref)
		in.l.Field(lua.RegistryIndex, eqEnvKey)
		if err := in.l.ProtectedCall(1, 1, 0); err != nil {
			return 0, fmt.Errorf("equation %q: %s", expr, in.popError(base))
		}
		// Comparison results come back as booleans; treat them as 0/1 so
		// predicates compose with the numeric filters.
		if in.l.TypeOf(-1) == lua.TypeBoolean {
			if in.l.ToBoolean(-1) {
				return 1, nil
			}
			return 0, nil
		}
		v, ok := in.l.ToNumber(-1)
		if !ok {
			return 0, fmt.Errorf("equation %q did not produce a number", expr)
		}
		return v, nil
	}, nil
}

// installEquationEnv builds the shared environment table equations run in.
func (in *Interp) installEquationEnv() {
	in.l.NewTable()
	in.l.NewTable()
	in.l.PushGoFunction(in.equationLookup)
	in.l.SetField(-2, "__index")
	in.l.SetMetaTable(-2)
	in.l.SetField(lua.RegistryIndex, eqEnvKey)
}

func (in *Interp) equationLookup(l *lua.State) int {
	name := lua.CheckString(l, 2)
	if dm := in.eqDM; dm != nil {
		if id, ok := dm.Layout().ID(name); ok {
			v, err := dm.Float(id)
			if err != nil {
				lua.Errorf(l, "trait %q: %s", name, err.Error())
				return 0
			}
			l.PushNumber(v)
			return 1
		}
	}
	l.Global(name)
	return 1
}
