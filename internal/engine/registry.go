package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrModTypeExists   = errors.New("module type already registered")
	ErrModTypeNotFound = errors.New("module type not found")
)

// Builder constructs one module instance with its configured name.
type Builder func(c *Controller, instName string) (Module, error)

type registeredModType struct {
	builder Builder
	desc    string
}

// ModuleRegistry maps module type names to builders. Like the organism
// registry it is an explicit object filled in by startup wiring.
type ModuleRegistry struct {
	mu sync.RWMutex
	m  map[string]registeredModType
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{m: make(map[string]registeredModType)}
}

func (r *ModuleRegistry) Register(name, desc string, b Builder) error {
	if name == "" {
		return errors.New("module type name is required")
	}
	if b == nil {
		return errors.New("module builder is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrModTypeExists, name)
	}
	r.m[name] = registeredModType{builder: b, desc: desc}
	return nil
}

func (r *ModuleRegistry) Resolve(name string) (Builder, error) {
	r.mu.RLock()
	entry, ok := r.m[name]
	r.mu.RUnlock()

	if !ok {
		known := r.List()
		if len(known) == 0 {
			return nil, fmt.Errorf("%w: %s (none registered)", ErrModTypeNotFound, name)
		}
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrModTypeNotFound, name, strings.Join(known, ", "))
	}
	return entry.builder, nil
}

func (r *ModuleRegistry) Desc(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.m[name].desc
}

func (r *ModuleRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
