package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"

	"phylon/internal/organism"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

var (
	ErrDuplicatePopulation = errors.New("population already exists")
	ErrDuplicateModule     = errors.New("module already exists")
	ErrNotSetup            = errors.New("controller is not set up")
	ErrSetupFailed         = errors.New("setup failed")
)

// Config carries controller construction options. A zero Seed draws a
// high-entropy seed so independent runs differ unless pinned.
type Config struct {
	Seed    int64
	Logger  *slog.Logger
	Verbose bool
}

// Controller owns the whole runtime arena: populations and their organisms,
// the ordered module list, the trait system, the RNG, and the per-signal
// dispatch tables. All mutation funnels through it on one goroutine so the
// lifecycle signals fire uniformly.
type Controller struct {
	logger  *slog.Logger
	rng     *rand.Rand
	seed    int64
	verbose bool

	populations []*pop.Population
	modules     []Module
	modByName   map[string]Module

	traits *trait.Manager
	layout *trait.Layout

	orgTypes *organism.Registry
	modTypes *ModuleRegistry

	errs *ErrorManager

	interp Interpreter

	update   uint64
	started  bool
	exit     bool
	isSetup  bool
	finished bool

	tables [numSignals][]Module
	dirty  bool

	placeBirth   func(org organism.Organism, ppos pop.Position, target *pop.Population) pop.Position
	placeInject  func(org organism.Organism, target *pop.Population) pop.Position
	findNeighbor func(pos pop.Position) pop.Position
}

// New builds a controller. The default placement appends a fresh slot to
// the target population; placement modules may override.
func New(cfg Config) (*Controller, error) {
	seed := cfg.Seed
	if seed == 0 {
		drawn, err := newSeed()
		if err != nil {
			return nil, fmt.Errorf("draw seed: %w", err)
		}
		seed = drawn
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		logger:    logger,
		rng:       rand.New(rand.NewSource(seed)),
		seed:      seed,
		verbose:   cfg.Verbose,
		modByName: make(map[string]Module),
		layout:    trait.NewLayout(),
		orgTypes:  organism.NewRegistry(),
		modTypes:  NewModuleRegistry(),
		dirty:     true,
	}
	c.errs = NewErrorManager(
		func(msg string) {
			c.logger.Error(msg)
			c.dispatchOnError(msg)
		},
		func(msg string) {
			c.logger.Warn(msg)
			c.dispatchOnWarning(msg)
		},
	)
	c.traits = trait.NewManager(c.errs.AddError, c.errs.AddWarning)

	c.placeInject = func(_ organism.Organism, target *pop.Population) pop.Position {
		return c.PushEmpty(target)
	}
	c.placeBirth = func(_ organism.Organism, _ pop.Position, target *pop.Population) pop.Position {
		return c.PushEmpty(target)
	}
	c.findNeighbor = func(pos pop.Position) pop.Position {
		if !pos.Valid() || pos.Pop().Size() == 0 {
			return pop.Position{}
		}
		return pos.Pop().At(c.rng.Intn(pos.Pop().Size()))
	}

	return c, nil
}

func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (c *Controller) Logger() *slog.Logger         { return c.logger }
func (c *Controller) Rng() *rand.Rand              { return c.rng }
func (c *Controller) Seed() int64                  { return c.seed }
func (c *Controller) Verbose() bool                { return c.verbose }
func (c *Controller) Layout() *trait.Layout        { return c.layout }
func (c *Controller) Traits() *trait.Manager       { return c.traits }
func (c *Controller) OrgTypes() *organism.Registry { return c.orgTypes }
func (c *Controller) ModTypes() *ModuleRegistry    { return c.modTypes }
func (c *Controller) Errors() *ErrorManager        { return c.errs }
func (c *Controller) GetUpdate() uint64            { return c.update }

// SetSeed reseeds the RNG; config scripts may pin it before setup.
func (c *Controller) SetSeed(seed int64) {
	if seed == 0 {
		return
	}
	c.seed = seed
	c.rng = rand.New(rand.NewSource(seed))
}

// SetInterpreter attaches the config-script layer.
func (c *Controller) SetInterpreter(i Interpreter) { c.interp = i }

// --- populations ---

func (c *Controller) AddPopulation(name string) (*pop.Population, error) {
	if name == "" {
		return nil, errors.New("population name is required")
	}
	if _, exists := c.FindPopulation(name); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePopulation, name)
	}
	p := pop.New(name, len(c.populations))
	c.populations = append(c.populations, p)
	return p, nil
}

func (c *Controller) GetPopulation(i int) *pop.Population {
	if i < 0 || i >= len(c.populations) {
		return nil
	}
	return c.populations[i]
}

func (c *Controller) FindPopulation(name string) (*pop.Population, bool) {
	for _, p := range c.populations {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

func (c *Controller) NumPopulations() int { return len(c.populations) }

func (c *Controller) Populations() []*pop.Population {
	return append([]*pop.Population(nil), c.populations...)
}

// ToCollection gathers every slot of the named populations, comma
// separated. Unknown names are config errors.
func (c *Controller) ToCollection(names string) (*pop.Collection, error) {
	coll := pop.NewCollection()
	for _, raw := range splitAndTrim(names) {
		p, ok := c.FindPopulation(raw)
		if !ok {
			err := fmt.Errorf("unknown population %q", raw)
			c.errs.AddError("collection: %v", err)
			return nil, err
		}
		coll.InsertPop(p)
	}
	return coll, nil
}

// --- modules ---

func (c *Controller) AddModule(m Module) error {
	name := m.Name()
	if name == "" {
		return errors.New("module name is required")
	}
	if _, exists := c.modByName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}
	m.SetControl(c)
	c.modules = append(c.modules, m)
	c.modByName[name] = m
	c.RescanSignals()
	return nil
}

// BuildModule constructs a registered module type under an instance name
// and adds it.
func (c *Controller) BuildModule(typeName, instName string) (Module, error) {
	builder, err := c.modTypes.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	m, err := builder(c, instName)
	if err != nil {
		return nil, fmt.Errorf("build module %q: %w", instName, err)
	}
	if err := c.AddModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Controller) Modules() []Module {
	return append([]Module(nil), c.modules...)
}

func (c *Controller) FindModule(name string) (Module, bool) {
	m, ok := c.modByName[name]
	return m, ok
}

// --- signal dispatch ---

// RescanSignals marks the dispatch tables stale; they rebuild lazily before
// the next dispatch. Calling it repeatedly is free.
func (c *Controller) RescanSignals() { c.dirty = true }

func (c *Controller) ensureTables() {
	if !c.dirty {
		return
	}
	// Fresh slices: a rebuild may be requested while an old table is still
	// being iterated by an outer dispatch.
	var tables [numSignals][]Module
	for _, m := range c.modules {
		act := m.ActiveSignals()
		for id := SignalID(0); id < numSignals; id++ {
			if act.Has(id) {
				tables[id] = append(tables[id], m)
			}
		}
	}
	c.tables = tables
	c.dirty = false
}

// listeners returns the current dispatch list for one signal, rebuilding
// first if needed.
func (c *Controller) listeners(id SignalID) []Module {
	c.ensureTables()
	return c.tables[id]
}

func (c *Controller) dispatchOnError(msg string) {
	for _, m := range c.listeners(SigOnError) {
		m.OnError(msg)
	}
}

func (c *Controller) dispatchOnWarning(msg string) {
	for _, m := range c.listeners(SigOnWarning) {
		m.OnWarning(msg)
	}
}

// --- lifecycle ---

// Setup finalizes configuration: module setup hooks, trait declaration,
// verification, layout freeze, dispatch table build, and error-channel
// activation. It must run before injection or updates.
func (c *Controller) Setup() error {
	if c.isSetup {
		return nil
	}

	for _, m := range c.modules {
		if err := m.SetupModule(); err != nil {
			c.errs.AddError("module %q setup: %v", m.Name(), err)
		}
	}
	for _, m := range c.modules {
		if err := m.SetupDataMap(c.traits); err != nil {
			c.errs.AddError("module %q trait declaration: %v", m.Name(), err)
		}
	}

	if n := c.traits.Verify(); n > 0 {
		c.errs.Activate()
		return fmt.Errorf("%w: %d trait error(s)", ErrSetupFailed, n)
	}
	if err := c.traits.RegisterAll(c.layout); err != nil {
		c.errs.AddError("trait registration: %v", err)
	}
	c.layout.Lock()

	c.ensureTables()
	c.errs.Activate()
	if n := c.errs.NumErrors(); n > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrSetupFailed, n)
	}

	c.isSetup = true
	c.logger.Info("setup complete",
		"seed", c.seed,
		"modules", len(c.modules),
		"populations", len(c.populations),
		"traits", c.layout.NumTraits(),
	)
	return nil
}

func (c *Controller) IsSetup() bool { return c.isSetup }

// Update advances the world n ticks. The scripted "start" event fires once
// before the first tick ever run; each tick dispatches BeforeUpdate with
// the old counter, increments, dispatches OnUpdate with the new counter,
// and then fires scripted update events. An exit request stops the loop
// between ticks.
func (c *Controller) Update(n int) {
	if !c.started {
		c.started = true
		if c.interp != nil {
			if err := c.interp.TriggerEvents("start"); err != nil {
				c.errs.AddError("start event: %v", err)
			}
		}
	}

	for i := 0; i < n && !c.exit; i++ {
		for _, m := range c.listeners(SigBeforeUpdate) {
			m.BeforeUpdate(c.update)
		}
		c.update++
		if c.verbose {
			c.logger.Debug("update", "update", c.update)
		}
		for _, m := range c.listeners(SigOnUpdate) {
			m.OnUpdate(c.update)
		}
		if c.interp != nil {
			if err := c.interp.UpdateEventValue("update", float64(c.update)); err != nil {
				c.errs.AddError("update event: %v", err)
			}
		}
	}
}

// RequestExit asks the update loop to stop after the current tick.
func (c *Controller) RequestExit()  { c.exit = true }
func (c *Controller) Exiting() bool { return c.exit }

// Finish fires BeforeExit once. Safe to call repeatedly.
func (c *Controller) Finish() {
	if c.finished {
		return
	}
	c.finished = true
	for _, m := range c.listeners(SigBeforeExit) {
		m.BeforeExit()
	}
	c.logger.Info("run finished", "updates", c.update, "errors", c.errs.NumErrors())
}

// TriggerHelp dispatches OnHelp, the hook behind the CLI help flag.
func (c *Controller) TriggerHelp() {
	for _, m := range c.listeners(SigOnHelp) {
		m.OnHelp()
	}
}

func splitAndTrim(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
