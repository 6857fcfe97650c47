package script

import (
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"

	"phylon/internal/engine"
	"phylon/internal/pop"
)

const (
	popTypeName     = "Population"
	orgListTypeName = "OrgList"
)

// Bind wires the interpreter to a controller: the Population and OrgList
// types with their aggregate members, one constructor per registered module
// type, the built-in host functions, linked settings, and the start/update
// events. Module types registered after Bind get no constructor, so wiring
// order is registries first, Bind second, Load last.
func (in *Interp) Bind(ctl *engine.Controller) {
	in.ctl = ctl
	ctl.SetInterpreter(in)

	in.installSettings()
	in.installEvents()
	in.installEquationEnv()

	in.LinkInt("random_seed",
		func() int { return int(ctl.Seed()) },
		func(v int) { ctl.SetSeed(int64(v)) },
		"Seed for the random number generator; 0 draws a fresh seed.")

	in.installPopType()
	in.installOrgListType()
	in.installModuleTypes()

	in.AddFunction("EXIT", "Request the run to stop.", func(l *lua.State) int {
		in.ctl.RequestExit()
		return 0
	})
	in.AddFunction("GET_UPDATE", "Current update number.", func(l *lua.State) int {
		l.PushInteger(int(in.ctl.GetUpdate()))
		return 1
	})
	in.AddFunction("PP", "Substitute every ${expr} in a string with its value.", func(l *lua.State) int {
		l.PushString(in.Preprocess(lua.CheckString(l, 1)))
		return 1
	})
	in.AddFunction("TRAIT_STRING", "Summarize a trait over populations; args: pops, \"trait:filter\".", func(l *lua.State) int {
		l.PushString(in.traitReport(lua.CheckString(l, 1), lua.CheckString(l, 2)))
		return 1
	})
	in.AddFunction("TRAIT_VALUE", "Like TRAIT_STRING, returning a number.", func(l *lua.State) int {
		out := in.traitReport(lua.CheckString(l, 1), lua.CheckString(l, 2))
		f, err := strconv.ParseFloat(out, 64)
		if err != nil {
			f = 0
		}
		l.PushNumber(f)
		return 1
	})
}

// traitReport implements the TRAIT_STRING/TRAIT_VALUE body: resolve the
// target populations, split "trait:filter", and summarize. Failures are
// recorded on the error channel and come back empty.
func (in *Interp) traitReport(target, spec string) string {
	name, filter, found := strings.Cut(spec, ":")
	if !found {
		in.reportError("trait report %q: missing summary filter", spec)
		return ""
	}
	coll, err := in.ctl.ToCollection(target)
	if err != nil {
		return ""
	}
	out, err := in.ctl.TraitSummary(name, filter, coll)
	if err != nil {
		return ""
	}
	return out
}

// --- Population and OrgList ---

func (in *Interp) installPopType() {
	in.AddType(popTypeName, "Collection of organism slots.", func(l *lua.State) int {
		name := lua.CheckString(l, 1)
		p, ok := in.ctl.FindPopulation(name)
		if !ok {
			var err error
			p, err = in.ctl.AddPopulation(name)
			if err != nil {
				lua.Errorf(l, "Population: %s", err.Error())
				return 0
			}
		}
		in.PushTyped(p, popTypeName)
		return 1
	})

	in.AddMemberFunction(popTypeName, "INJECT", func(l *lua.State) int {
		p := in.checkPop(l)
		orgType := lua.CheckString(l, 2)
		count := lua.OptInteger(l, 3, 1)
		// Failures land on the error channel; config flow continues.
		_ = in.ctl.Inject(orgType, p, count)
		return 0
	})
	in.AddMemberFunction(popTypeName, "REPLACE_WITH", func(l *lua.State) int {
		to := in.checkPop(l)
		from := in.checkPopAt(l, 2)
		in.ctl.EmptyPop(to, 0)
		in.ctl.MoveOrgs(from, to)
		return 0
	})
	in.AddMemberFunction(popTypeName, "APPEND", func(l *lua.State) int {
		to := in.checkPop(l)
		from := in.checkPopAt(l, 2)
		in.ctl.MoveOrgs(from, to)
		return 0
	})

	in.installAggregates(popTypeName)
}

func (in *Interp) installOrgListType() {
	in.AddType(orgListTypeName, "Collection of organism positions.", func(l *lua.State) int {
		names := lua.OptString(l, 1, "")
		coll := pop.NewCollection()
		if names != "" {
			built, err := in.ctl.ToCollection(names)
			if err != nil {
				lua.Errorf(l, "OrgList: %s", err.Error())
				return 0
			}
			coll = built
		}
		in.PushTyped(coll, orgListTypeName)
		return 1
	})

	in.installAggregates(orgListTypeName)
}

// installAggregates attaches the shared read-only trait members to a type.
func (in *Interp) installAggregates(typeName string) {
	summaries := []struct {
		member  string
		filter  string
		numeric bool
	}{
		{"CALC_MEAN", "mean", true},
		{"CALC_MEDIAN", "median", true},
		{"CALC_VARIANCE", "variance", true},
		{"CALC_STDDEV", "stddev", true},
		{"CALC_SUM", "sum", true},
		{"CALC_MIN", "min", true},
		{"CALC_MAX", "max", true},
		{"CALC_ENTROPY", "entropy", true},
		{"CALC_RICHNESS", "richness", true},
		{"ID_MIN", "min_id", true},
		{"ID_MAX", "max_id", true},
		{"CALC_MODE", "mode", false},
	}
	for _, s := range summaries {
		in.AddMemberFunction(typeName, s.member, in.summaryMember(s.filter, s.numeric))
	}

	in.AddMemberFunction(typeName, "TRAIT", func(l *lua.State) int {
		coll := in.checkColl(l)
		name := lua.CheckString(l, 2)
		live := coll.Live()
		if len(live) == 0 {
			l.PushString("")
			return 1
		}
		dm := live[0].Org().DataMap()
		id, ok := dm.Layout().ID(name)
		if !ok {
			lua.Errorf(l, "unknown trait %q", name)
			return 0
		}
		l.PushString(dm.Render(id))
		return 1
	})

	in.AddMemberFunction(typeName, "FIND_MIN", func(l *lua.State) int {
		coll := in.checkColl(l)
		spec := lua.CheckString(l, 2)
		out := pop.NewCollection()
		if pos, err := in.ctl.FindMinPos(spec, coll); err == nil && pos.Valid() {
			out.Insert(pos)
		}
		in.PushTyped(out, orgListTypeName)
		return 1
	})
	in.AddMemberFunction(typeName, "FIND_MAX", func(l *lua.State) int {
		coll := in.checkColl(l)
		spec := lua.CheckString(l, 2)
		out := pop.NewCollection()
		if pos, err := in.ctl.FindMaxPos(spec, coll); err == nil && pos.Valid() {
			out.Insert(pos)
		}
		in.PushTyped(out, orgListTypeName)
		return 1
	})
	in.AddMemberFunction(typeName, "FILTER", func(l *lua.State) int {
		coll := in.checkColl(l)
		expr := lua.CheckString(l, 2)
		out, err := in.ctl.FilterCollection(coll, expr)
		if err != nil {
			out = pop.NewCollection()
		}
		in.PushTyped(out, orgListTypeName)
		return 1
	})
	in.AddMemberFunction(typeName, "SIZE", func(l *lua.State) int {
		l.PushInteger(in.checkColl(l).NumLive())
		return 1
	})
}

func (in *Interp) summaryMember(filter string, numeric bool) lua.Function {
	return func(l *lua.State) int {
		coll := in.checkColl(l)
		spec := lua.CheckString(l, 2)
		out, err := in.ctl.TraitSummary(spec, filter, coll)
		if err != nil {
			if numeric {
				l.PushNumber(0)
			} else {
				l.PushString("")
			}
			return 1
		}
		if numeric {
			f, perr := strconv.ParseFloat(out, 64)
			if perr != nil {
				f = 0
			}
			l.PushNumber(f)
		} else {
			l.PushString(out)
		}
		return 1
	}
}

func (in *Interp) checkPop(l *lua.State) *pop.Population {
	return in.checkPopAt(l, 1)
}

func (in *Interp) checkPopAt(l *lua.State, index int) *pop.Population {
	if p, ok := l.ToUserData(index).(*pop.Population); ok {
		return p
	}
	lua.ArgumentError(l, index, "expected a Population")
	return nil
}

// checkColl accepts either binding type at argument 1 and views it as a
// collection.
func (in *Interp) checkColl(l *lua.State) *pop.Collection {
	switch v := l.ToUserData(1).(type) {
	case *pop.Population:
		coll := pop.NewCollection()
		coll.InsertPop(v)
		return coll
	case *pop.Collection:
		return v
	}
	lua.ArgumentError(l, 1, "expected a Population or OrgList")
	return nil
}

// --- module types ---

// installModuleTypes publishes one constructor per registered module type,
// each with SET/GET members over the instance's settings.
func (in *Interp) installModuleTypes() {
	for _, typeName := range in.ctl.ModTypes().List() {
		tn := typeName
		in.AddType(tn, in.ctl.ModTypes().Desc(tn), func(l *lua.State) int {
			instName := lua.CheckString(l, 1)
			m, err := in.ctl.BuildModule(tn, instName)
			if err != nil {
				lua.Errorf(l, "%s: %s", tn, err.Error())
				return 0
			}
			in.PushTyped(m, tn)
			return 1
		})
		in.AddMemberFunction(tn, "SET", in.moduleSet)
		in.AddMemberFunction(tn, "GET", in.moduleGet)
	}
}

func (in *Interp) moduleSet(l *lua.State) int {
	m := in.checkModule(l)
	s, ok := m.(engine.Settable)
	if !ok {
		lua.Errorf(l, "module %q has no settings", m.Name())
		return 0
	}
	name := lua.CheckString(l, 2)
	if err := s.SetSetting(name, in.toGoValue(3)); err != nil {
		lua.Errorf(l, "module %q: %s", m.Name(), err.Error())
		return 0
	}
	return 0
}

func (in *Interp) moduleGet(l *lua.State) int {
	m := in.checkModule(l)
	s, ok := m.(engine.Settable)
	if !ok {
		lua.Errorf(l, "module %q has no settings", m.Name())
		return 0
	}
	name := lua.CheckString(l, 2)
	for _, info := range s.Settings() {
		if info.Name == name {
			in.pushValue(info.Value)
			return 1
		}
	}
	lua.Errorf(l, "module %q has no setting %q", m.Name(), name)
	return 0
}

func (in *Interp) checkModule(l *lua.State) engine.Module {
	if m, ok := l.ToUserData(1).(engine.Module); ok {
		return m
	}
	lua.ArgumentError(l, 1, "expected a module instance")
	return nil
}
