// Package script embeds a Lua interpreter as the configuration surface.
// Experiment files are plain Lua: they construct populations and modules,
// adjust linked settings, and register event handlers that drive the run.
// The engine consumes the interpreter through its narrow Interpreter
// interface, so everything engine-facing is installed here via Bind.
package script

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"

	"phylon/internal/engine"
	"phylon/internal/trait"
)

const (
	refsKey  = "phylon.refs"
	eqEnvKey = "phylon.eqenv"
)

// Interp owns one Lua state plus the registries layered on top of it:
// linked settings, named types, host functions, and event handlers.
type Interp struct {
	l      *lua.State
	ctl    *engine.Controller
	logger *slog.Logger
	out    io.Writer

	linked map[string]*linkedSetting
	order  []string

	types     map[string]string
	typeOrder []string
	funcs     []funcInfo

	events map[string]*eventType

	seq  int
	eqDM *trait.DataMap
}

type funcInfo struct {
	name string
	desc string
}

func New(logger *slog.Logger) *Interp {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := lua.NewState()
	lua.OpenLibraries(l)

	in := &Interp{
		l:      l,
		logger: logger,
		out:    os.Stdout,
		linked: make(map[string]*linkedSetting),
		types:  make(map[string]string),
		events: make(map[string]*eventType),
	}

	// Anchor table for Lua values (handlers, compiled equations) referenced
	// from Go.
	l.NewTable()
	l.SetField(lua.RegistryIndex, refsKey)

	return in
}

// SetOutput redirects PP and generated-config output; stdout by default.
func (in *Interp) SetOutput(w io.Writer) { in.out = w }

// Load runs config files in order. The first failure stops the sequence.
func (in *Interp) Load(filenames ...string) error {
	for _, name := range filenames {
		base := in.l.Top()
		if err := lua.LoadFile(in.l, name, ""); err != nil {
			msg := in.popError(base)
			return fmt.Errorf("load config %s: %s", name, msg)
		}
		if err := in.l.ProtectedCall(0, 0, 0); err != nil {
			msg := in.popError(base)
			return fmt.Errorf("run config %s: %s", name, msg)
		}
		in.logger.Info("config loaded", "file", name)
	}
	return nil
}

// LoadStatements runs raw statements, joined into one chunk. Used for
// command-line --set strings; source names the chunk in error messages.
func (in *Interp) LoadStatements(stmts []string, source string) error {
	if len(stmts) == 0 {
		return nil
	}
	chunk := strings.Join(stmts, "\n")
	base := in.l.Top()
	if err := lua.LoadBuffer(in.l, chunk, "="+source, ""); err != nil {
		msg := in.popError(base)
		return fmt.Errorf("load %s: %s", source, msg)
	}
	if err := in.l.ProtectedCall(0, 0, 0); err != nil {
		msg := in.popError(base)
		return fmt.Errorf("run %s: %s", source, msg)
	}
	return nil
}

// Execute evaluates a single expression and renders its first result as a
// string. Statements are accepted too and yield an empty string.
func (in *Interp) Execute(expr string) (string, error) {
	base := in.l.Top()
	defer in.l.SetTop(base)

	if err := lua.LoadBuffer(in.l, "return "+expr, "=eval", ""); err != nil {
		in.l.SetTop(base)
		if err2 := lua.LoadBuffer(in.l, expr, "=eval", ""); err2 != nil {
			return "", fmt.Errorf("eval %q: %s", expr, in.popError(base))
		}
	}
	if err := in.l.ProtectedCall(0, lua.MultipleReturns, 0); err != nil {
		return "", fmt.Errorf("eval %q: %s", expr, in.popError(base))
	}
	if in.l.Top() == base {
		return "", nil
	}
	return renderValue(in.toGoValue(base + 1)), nil
}

// Preprocess substitutes every ${expr} in a string with the result of
// evaluating expr; $$ collapses to a literal $. An unmatched brace leaves
// the rest of the string untouched.
func (in *Interp) Preprocess(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if i+1 >= len(s) || s[i+1] != '{' {
			b.WriteByte(s[i])
			continue
		}
		depth := 1
		j := i + 2
		for ; j < len(s) && depth > 0; j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			b.WriteString(s[i:])
			return b.String()
		}
		out, err := in.Execute(s[i+2 : j-1])
		if err != nil {
			in.reportError("preprocess: %v", err)
		} else {
			b.WriteString(out)
		}
		i = j - 1
	}
	return b.String()
}

func (in *Interp) reportError(format string, args ...any) {
	if in.ctl != nil {
		in.ctl.Errors().AddError(format, args...)
		return
	}
	in.logger.Error(fmt.Sprintf(format, args...))
}

// popError extracts the Lua error message from the stack top and restores
// the stack to base.
func (in *Interp) popError(base int) string {
	msg := "unknown error"
	if in.l.Top() > base {
		if s, ok := in.l.ToString(-1); ok {
			msg = s
		}
	}
	in.l.SetTop(base)
	return msg
}

// --- registry-anchored references ---

// storeRef moves the value at the stack top into the anchor table and
// returns its key.
func (in *Interp) storeRef() int {
	in.seq++
	id := in.seq
	in.l.Field(lua.RegistryIndex, refsKey)
	in.l.PushValue(-2)
	in.l.RawSetInt(-2, id)
	in.l.Pop(2)
	return id
}

func (in *Interp) pushRef(id int) {
	in.l.Field(lua.RegistryIndex, refsKey)
	in.l.RawGetInt(-1, id)
	in.l.Remove(-2)
}

func (in *Interp) releaseRef(id int) {
	in.l.Field(lua.RegistryIndex, refsKey)
	in.l.PushNil()
	in.l.RawSetInt(-2, id)
	in.l.Pop(1)
}

// renderValue formats a bridged Lua value the way config output expects:
// numbers without a trailing .0, booleans as words, nil as the empty string.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
