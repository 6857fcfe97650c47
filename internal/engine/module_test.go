package engine

import (
	"fmt"
	"testing"
)

// traceModule overrides a few handlers and appends what it sees to a shared
// log; which signals actually dispatch is controlled by its declared set.
type traceModule struct {
	Base
	log *[]string
}

func newTraceModule(name string, log *[]string, signals ...SignalID) *traceModule {
	return &traceModule{Base: NewBase(name, "trace module", signals...), log: log}
}

func (m *traceModule) record(event string, args ...any) {
	*m.log = append(*m.log, m.Name()+":"+fmt.Sprintf(event, args...))
}

func (m *traceModule) BeforeUpdate(update uint64) { m.record("BeforeUpdate:%d", update) }
func (m *traceModule) OnUpdate(update uint64)     { m.record("OnUpdate:%d", update) }
func (m *traceModule) BeforeExit()                { m.record("BeforeExit") }
func (m *traceModule) OnError(msg string)         { m.record("OnError:%s", msg) }
func (m *traceModule) OnWarning(msg string)       { m.record("OnWarning:%s", msg) }

// lazyModule declares OnUpdate but never overrides it, so the Base default
// should drop it from dispatch after one wasted call.
type lazyModule struct {
	Base
}

func newLazyModule() *lazyModule {
	return &lazyModule{Base: NewBase("lazy", "declares without implementing", SigOnUpdate)}
}

func TestSignalSetBasics(t *testing.T) {
	s := NewSignalSet(SigOnUpdate, SigBeforeExit)
	if !s.Has(SigOnUpdate) || !s.Has(SigBeforeExit) {
		t.Fatalf("set missing declared signals: %s", s)
	}
	if s.Has(SigOnPlacement) {
		t.Fatalf("set has undeclared signal: %s", s)
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}

	s.Clear(SigOnUpdate)
	if s.Has(SigOnUpdate) {
		t.Fatal("Clear left the signal set")
	}
	if got := s.String(); got != "BeforeExit" {
		t.Fatalf("String = %q", got)
	}
}

func TestBaseActivationCycle(t *testing.T) {
	var log []string
	m := newTraceModule("m", &log, SigOnUpdate, SigBeforeUpdate)

	if m.ActiveSignals() != m.DeclaredSignals() {
		t.Fatal("fresh module should be fully active")
	}

	m.Deactivate()
	if !m.ActiveSignals().Empty() {
		t.Fatalf("after Deactivate: %s", m.ActiveSignals())
	}

	m.Activate()
	if m.ActiveSignals() != m.DeclaredSignals() {
		t.Fatalf("after Activate: %s", m.ActiveSignals())
	}
}

func TestUnimplementedSignalSelfClears(t *testing.T) {
	ctl, err := New(Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lazy := newLazyModule()
	if err := ctl.AddModule(lazy); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if err := ctl.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if !lazy.ActiveSignals().Has(SigOnUpdate) {
		t.Fatal("declared signal inactive before any dispatch")
	}

	ctl.Update(1)
	if lazy.ActiveSignals().Has(SigOnUpdate) {
		t.Fatal("default handler did not drop the signal")
	}

	// Re-activation restores the declared set until the next dispatch.
	lazy.Activate()
	if !lazy.ActiveSignals().Has(SigOnUpdate) {
		t.Fatal("Activate did not restore the declared signal")
	}
	ctl.Update(1)
	if lazy.ActiveSignals().Has(SigOnUpdate) {
		t.Fatal("signal survived a second dispatch")
	}
}

func TestRescanSignalsIsIdempotent(t *testing.T) {
	var log []string
	ctl, err := New(Config{Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := newTraceModule("m", &log, SigOnUpdate)
	if err := ctl.AddModule(m); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if err := ctl.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	ctl.Update(1)
	first := len(log)

	// Redundant rescans with no state change must not alter dispatch.
	ctl.RescanSignals()
	ctl.RescanSignals()
	ctl.Update(1)

	if len(log) != first*2 {
		t.Fatalf("dispatch count changed after redundant rescans: %v", log)
	}
	if log[0] != "m:OnUpdate:1" || log[1] != "m:OnUpdate:2" {
		t.Fatalf("unexpected dispatch log: %v", log)
	}
}

func TestSettingCoercions(t *testing.T) {
	if n, err := AsInt(3.0); err != nil || n != 3 {
		t.Fatalf("AsInt(3.0) = %d, %v", n, err)
	}
	if _, err := AsInt(3.5); err == nil {
		t.Fatal("AsInt accepted a fraction")
	}
	if f, err := AsFloat("2.5"); err != nil || f != 2.5 {
		t.Fatalf("AsFloat(\"2.5\") = %v, %v", f, err)
	}
	if b, err := AsBool("true"); err != nil || !b {
		t.Fatalf("AsBool(\"true\") = %v, %v", b, err)
	}
	if s, err := AsString(7.0); err != nil || s != "7" {
		t.Fatalf("AsString(7.0) = %q, %v", s, err)
	}
}
