package script

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// eventHandler is one registered script callback. Timed handlers wait for
// UpdateEventValue to pass their threshold; untimed ones fire on every
// TriggerEvents call.
type eventHandler struct {
	ref       int
	timed     bool
	threshold float64
	step      float64
}

type eventType struct {
	handlers []eventHandler
}

// AddEventType declares a named event channel. Registering twice is a
// no-op.
func (in *Interp) AddEventType(name string) {
	if _, ok := in.events[name]; !ok {
		in.events[name] = &eventType{}
	}
}

func (in *Interp) addHandler(event string, h eventHandler) error {
	ev, ok := in.events[event]
	if !ok {
		return fmt.Errorf("unknown event type %q", event)
	}
	ev.handlers = append(ev.handlers, h)
	return nil
}

// TriggerEvents fires every handler registered for the event. Handlers run
// in registration order; the first failure stops the sweep.
func (in *Interp) TriggerEvents(name string) error {
	ev, ok := in.events[name]
	if !ok {
		return fmt.Errorf("unknown event type %q", name)
	}
	// Snapshot: a handler may register further handlers.
	snapshot := append([]eventHandler(nil), ev.handlers...)
	for _, h := range snapshot {
		if err := in.callHandler(h.ref, nil); err != nil {
			return fmt.Errorf("event %q: %w", name, err)
		}
	}
	return nil
}

// UpdateEventValue fires every timed handler whose threshold the value has
// reached. A handler re-arms by returning its next threshold; handlers
// registered with a step re-arm automatically past the current value; the
// rest are dropped after firing.
func (in *Interp) UpdateEventValue(name string, value float64) error {
	ev, ok := in.events[name]
	if !ok {
		return fmt.Errorf("unknown event type %q", name)
	}

	snapshot := append([]eventHandler(nil), ev.handlers...)
	survivors := make([]eventHandler, 0, len(snapshot))
	var firstErr error

	for _, h := range snapshot {
		if !h.timed || h.threshold > value || firstErr != nil {
			survivors = append(survivors, h)
			continue
		}
		next, rearm, err := in.callTimedHandler(h.ref, value)
		if err != nil {
			firstErr = fmt.Errorf("event %q: %w", name, err)
			survivors = append(survivors, h)
			continue
		}
		switch {
		case rearm:
			h.threshold = next
			survivors = append(survivors, h)
		case h.step > 0:
			for h.threshold <= value {
				h.threshold += h.step
			}
			survivors = append(survivors, h)
		default:
			in.releaseRef(h.ref)
		}
	}
	// Handlers registered while dispatching live past the snapshot.
	ev.handlers = append(survivors, ev.handlers[len(snapshot):]...)
	return firstErr
}

// callHandler invokes a stored function; args are bridged Go values.
func (in *Interp) callHandler(ref int, args []any) error {
	base := in.l.Top()
	defer in.l.SetTop(base)

	in.pushRef(ref)
	for _, a := range args {
		in.pushValue(a)
	}
	if err := in.l.ProtectedCall(len(args), 0, 0); err != nil {
		return fmt.Errorf("%s", in.popError(base))
	}
	return nil
}

// callTimedHandler invokes a stored function with the event value and reads
// back an optional numeric re-arm threshold.
func (in *Interp) callTimedHandler(ref int, value float64) (next float64, rearm bool, err error) {
	base := in.l.Top()
	defer in.l.SetTop(base)

	in.pushRef(ref)
	in.l.PushNumber(value)
	if err := in.l.ProtectedCall(1, 1, 0); err != nil {
		return 0, false, fmt.Errorf("%s", in.popError(base))
	}
	if in.l.TypeOf(-1) == lua.TypeNumber {
		if n, ok := in.l.ToNumber(-1); ok && n > value {
			return n, true, nil
		}
	}
	return 0, false, nil
}

// installEvents publishes the handler-registration globals. at_start runs
// when the run begins, at_update once at a given update, every_update on a
// cadence.
func (in *Interp) installEvents() {
	in.AddEventType("start")
	in.AddEventType("update")

	in.AddFunction("at_start", "Register fn() to run when the run starts.", func(l *lua.State) int {
		lua.CheckType(l, 1, lua.TypeFunction)
		l.PushValue(1)
		ref := in.storeRef()
		if err := in.addHandler("start", eventHandler{ref: ref}); err != nil {
			lua.Errorf(l, "%s", err.Error())
		}
		return 0
	})

	in.AddFunction("at_update", "Register fn(update) to run once at the given update.", func(l *lua.State) int {
		n := lua.CheckNumber(l, 1)
		lua.CheckType(l, 2, lua.TypeFunction)
		l.PushValue(2)
		ref := in.storeRef()
		if err := in.addHandler("update", eventHandler{ref: ref, timed: true, threshold: n}); err != nil {
			lua.Errorf(l, "%s", err.Error())
		}
		return 0
	})

	in.AddFunction("every_update", "Register fn(update) to run at the first update and every step after.", func(l *lua.State) int {
		first := lua.CheckNumber(l, 1)
		step := lua.CheckNumber(l, 2)
		lua.CheckType(l, 3, lua.TypeFunction)
		if step <= 0 {
			lua.ArgumentError(l, 2, "step must be positive")
			return 0
		}
		l.PushValue(3)
		ref := in.storeRef()
		if err := in.addHandler("update", eventHandler{ref: ref, timed: true, threshold: first, step: step}); err != nil {
			lua.Errorf(l, "%s", err.Error())
		}
		return 0
	})
}
