package engine

import "phylon/internal/trait"

// EquationFn evaluates a compiled per-organism expression against one data
// map.
type EquationFn func(dm *trait.DataMap) (float64, error)

// Interpreter is the narrow surface the engine needs from the config-script
// layer: scripted events and compiled trait equations. The script package
// implements it; the engine stays decoupled from the scripting runtime.
type Interpreter interface {
	TriggerEvents(name string) error
	UpdateEventValue(name string, value float64) error
	CompileEquation(expr string) (EquationFn, error)
}
