package organism

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"phylon/internal/trait"
)

var (
	ErrOrgTypeExists   = errors.New("organism type already registered")
	ErrOrgTypeNotFound = errors.New("organism type not found")
)

// Factory builds one organism of a registered type against a locked layout.
type Factory func(rng *rand.Rand, layout *trait.Layout) (Organism, error)

// Registry maps organism type names to factories. It is an explicit object
// populated during startup wiring; nothing registers itself from init.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return errors.New("organism type name is required")
	}
	if f == nil {
		return errors.New("organism factory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOrgTypeExists, name)
	}
	r.m[name] = f
	return nil
}

func (r *Registry) Resolve(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.m[name]
	r.mu.RUnlock()

	if !ok {
		known := r.List()
		if len(known) == 0 {
			return nil, fmt.Errorf("%w: %s (none registered)", ErrOrgTypeNotFound, name)
		}
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrOrgTypeNotFound, name, strings.Join(known, ", "))
	}
	return f, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
