package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestModuleRegistryRegisterAndResolve(t *testing.T) {
	reg := NewModuleRegistry()
	builder := func(c *Controller, instName string) (Module, error) {
		m := &struct{ Base }{NewBase(instName, "built for test")}
		return m, nil
	}

	if err := reg.Register("counter", "counts things", builder); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("counter", "counts things", builder); !errors.Is(err, ErrModTypeExists) {
		t.Fatalf("duplicate register: %v", err)
	}

	got, err := reg.Resolve("counter")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	m, err := got(nil, "counter_0")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if m.Name() != "counter_0" {
		t.Fatalf("built name = %q", m.Name())
	}

	if desc := reg.Desc("counter"); desc != "counts things" {
		t.Fatalf("Desc = %q", desc)
	}
}

func TestModuleRegistryUnknownListsKnown(t *testing.T) {
	reg := NewModuleRegistry()
	builder := func(c *Controller, instName string) (Module, error) {
		m := &struct{ Base }{NewBase(instName, "")}
		return m, nil
	}
	if err := reg.Register("alpha", "", builder); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("beta", "", builder); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := reg.Resolve("gamma")
	if !errors.Is(err, ErrModTypeNotFound) {
		t.Fatalf("Resolve unknown: %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "alpha") || !strings.Contains(msg, "beta") {
		t.Fatalf("error does not list known types: %s", msg)
	}

	list := reg.List()
	if len(list) != 2 || list[0] != "alpha" || list[1] != "beta" {
		t.Fatalf("List = %v", list)
	}
}

func TestBuildModuleAddsInstance(t *testing.T) {
	ctl, _ := newTestWorld(t)
	err := ctl.ModTypes().Register("tracer", "traces updates", func(c *Controller, instName string) (Module, error) {
		var log []string
		return newTraceModule(instName, &log, SigOnUpdate), nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	m, err := ctl.BuildModule("tracer", "tracer_a")
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if got, ok := ctl.FindModule("tracer_a"); !ok || got != m {
		t.Fatal("built module not findable by instance name")
	}
	if m.(*traceModule).Control() != ctl {
		t.Fatal("built module has no controller back-reference")
	}

	if _, err := ctl.BuildModule("tracer", "tracer_a"); !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("duplicate instance: %v", err)
	}
	if _, err := ctl.BuildModule("ghost", "g"); !errors.Is(err, ErrModTypeNotFound) {
		t.Fatalf("unknown type: %v", err)
	}
}
