package script

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Shopify/go-lua"

	"phylon/internal/engine"
)

// linkedSetting exposes one host variable through the script-visible
// settings table.
type linkedSetting struct {
	name string
	desc string
	get  func() any
	set  func(any) error
}

func (in *Interp) link(name, desc string, get func() any, set func(any) error) {
	if _, seen := in.linked[name]; !seen {
		in.order = append(in.order, name)
	}
	in.linked[name] = &linkedSetting{name: name, desc: desc, get: get, set: set}
}

func (in *Interp) LinkInt(name string, get func() int, set func(int), desc string) {
	in.link(name, desc,
		func() any { return get() },
		func(v any) error {
			n, err := engine.AsInt(v)
			if err != nil {
				return err
			}
			set(n)
			return nil
		})
}

func (in *Interp) LinkFloat(name string, get func() float64, set func(float64), desc string) {
	in.link(name, desc,
		func() any { return get() },
		func(v any) error {
			f, err := engine.AsFloat(v)
			if err != nil {
				return err
			}
			set(f)
			return nil
		})
}

func (in *Interp) LinkString(name string, get func() string, set func(string), desc string) {
	in.link(name, desc,
		func() any { return get() },
		func(v any) error {
			s, err := engine.AsString(v)
			if err != nil {
				return err
			}
			set(s)
			return nil
		})
}

func (in *Interp) LinkBool(name string, get func() bool, set func(bool), desc string) {
	in.link(name, desc,
		func() any { return get() },
		func(v any) error {
			b, err := engine.AsBool(v)
			if err != nil {
				return err
			}
			set(b)
			return nil
		})
}

// installSettings publishes the settings table. Reads and writes go through
// metamethods so linked values stay live; unknown names are script errors.
func (in *Interp) installSettings() {
	in.l.NewTable()
	in.l.NewTable()
	in.l.PushGoFunction(in.settingsIndex)
	in.l.SetField(-2, "__index")
	in.l.PushGoFunction(in.settingsNewIndex)
	in.l.SetField(-2, "__newindex")
	in.l.SetMetaTable(-2)
	in.l.SetGlobal("settings")
}

func (in *Interp) settingsIndex(l *lua.State) int {
	name := lua.CheckString(l, 2)
	s, ok := in.linked[name]
	if !ok {
		lua.Errorf(l, "unknown setting %q", name)
		return 0
	}
	in.pushValue(s.get())
	return 1
}

func (in *Interp) settingsNewIndex(l *lua.State) int {
	name := lua.CheckString(l, 2)
	s, ok := in.linked[name]
	if !ok {
		lua.Errorf(l, "unknown setting %q", name)
		return 0
	}
	if err := s.set(in.toGoValue(3)); err != nil {
		lua.Errorf(l, "setting %q: %s", name, err.Error())
		return 0
	}
	return 0
}

// Write emits a runnable config script: every linked setting at its current
// value under its description, then a commented catalog of the registered
// types and functions.
func (in *Interp) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "-- phylon configuration\n"); err != nil {
		return err
	}

	for _, name := range in.order {
		s := in.linked[name]
		if s.desc != "" {
			if _, err := fmt.Fprintf(w, "\n-- %s\n", s.desc); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "settings.%s = %s\n", name, luaLiteral(s.get())); err != nil {
			return err
		}
	}

	if len(in.typeOrder) > 0 {
		if _, err := fmt.Fprintf(w, "\n-- Available types:\n"); err != nil {
			return err
		}
		for _, name := range in.typeOrder {
			if _, err := fmt.Fprintf(w, "--   %s : %s\n", name, in.types[name]); err != nil {
				return err
			}
		}
	}
	if len(in.funcs) > 0 {
		if _, err := fmt.Fprintf(w, "\n-- Available functions:\n"); err != nil {
			return err
		}
		for _, f := range in.funcs {
			if _, err := fmt.Fprintf(w, "--   %s : %s\n", f.name, f.desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFile generates a config script at the given path.
func (in *Interp) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if err := in.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("generate config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	return nil
}

// luaLiteral renders a Go value as Lua source.
func luaLiteral(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
