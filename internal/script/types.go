package script

import (
	"math"

	"github.com/Shopify/go-lua"
)

func metaName(typeName string) string { return "phylon." + typeName }

// AddFunction registers a global host function. The description feeds the
// generated-config catalog.
func (in *Interp) AddFunction(name, desc string, fn lua.Function) {
	in.l.Register(name, fn)
	in.funcs = append(in.funcs, funcInfo{name: name, desc: desc})
}

// AddType installs a named userdata type: a metatable with an empty method
// table and a global constructor. Constructors push their userdata with
// PushTyped.
func (in *Interp) AddType(name, desc string, ctor lua.Function) {
	lua.NewMetaTable(in.l, metaName(name))
	in.l.NewTable()
	in.l.SetField(-2, "__index")
	in.l.Pop(1)

	in.l.Register(name, ctor)

	if _, seen := in.types[name]; !seen {
		in.typeOrder = append(in.typeOrder, name)
	}
	in.types[name] = desc
}

// AddMemberFunction extends a registered type's method table.
func (in *Interp) AddMemberFunction(typeName, fname string, fn lua.Function) {
	in.l.Field(lua.RegistryIndex, metaName(typeName))
	in.l.Field(-1, "__index")
	in.l.PushGoFunction(fn)
	in.l.SetField(-2, fname)
	in.l.Pop(2)
}

// PushTyped pushes a Go value as userdata carrying the named type's
// metatable.
func (in *Interp) PushTyped(v any, typeName string) {
	in.l.PushUserData(v)
	lua.SetMetaTableNamed(in.l, metaName(typeName))
}

// --- value bridging ---

// pushValue bridges a Go value onto the Lua stack. Integers stay integers;
// unhandled types surface as nil rather than panicking mid-script.
func (in *Interp) pushValue(v any) {
	switch x := v.(type) {
	case nil:
		in.l.PushNil()
	case bool:
		in.l.PushBoolean(x)
	case int:
		in.l.PushInteger(x)
	case int64:
		in.l.PushInteger(int(x))
	case float64:
		in.l.PushNumber(x)
	case string:
		in.l.PushString(x)
	case []any:
		in.l.CreateTable(len(x), 0)
		for i, item := range x {
			in.pushValue(item)
			in.l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		in.l.CreateTable(0, len(x))
		for k, item := range x {
			in.pushValue(item)
			in.l.SetField(-2, k)
		}
	default:
		in.l.PushNil()
	}
}

// toGoValue bridges the Lua value at index into Go. Whole numbers come back
// as int, tables as []any or map[string]any, userdata as its payload.
func (in *Interp) toGoValue(index int) any {
	switch in.l.TypeOf(index) {
	case lua.TypeString:
		v, _ := in.l.ToString(index)
		return v
	case lua.TypeNumber:
		v, _ := in.l.ToNumber(index)
		return normalizeNumber(v)
	case lua.TypeBoolean:
		return in.l.ToBoolean(index)
	case lua.TypeTable:
		return in.tableToGo(index)
	case lua.TypeUserData:
		return in.l.ToUserData(index)
	default:
		return nil
	}
}

func (in *Interp) tableToMap(index int) map[string]any {
	out := map[string]any{}
	if in.l.TypeOf(index) != lua.TypeTable {
		return out
	}
	index = in.l.AbsIndex(index)
	in.l.PushNil()
	for in.l.Next(index) {
		if in.l.TypeOf(-2) == lua.TypeString {
			key, _ := in.l.ToString(-2)
			out[key] = in.toGoValue(-1)
		}
		in.l.Pop(1)
	}
	return out
}

// tableToGo distinguishes dense 1..n arrays from record tables.
func (in *Interp) tableToGo(index int) any {
	index = in.l.AbsIndex(index)

	isArray := true
	maxIndex, count := 0, 0
	in.l.PushNil()
	for in.l.Next(index) {
		if isArray {
			if in.l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := in.l.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		in.l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		out := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			in.l.RawGetInt(index, i)
			out = append(out, in.toGoValue(-1))
			in.l.Pop(1)
		}
		return out
	}
	return in.tableToMap(index)
}

func normalizeNumber(v float64) any {
	if math.Mod(v, 1) == 0 {
		return int(v)
	}
	return v
}
