// Package phylon is the embedding surface for the runtime. A Client owns
// the archive store and logger, and each Run assembles a fresh controller,
// registries, and config interpreter around them, so one process can host
// several isolated runs. The CLI is a thin shell over this package.
package phylon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"phylon/internal/engine"
	"phylon/internal/logging"
	"phylon/internal/modules"
	"phylon/internal/script"
	"phylon/internal/storage"
)

const defaultUpdates = 100

// Options configure a client. Zero values select the defaults: a drawn
// seed, 100 updates, the in-memory store, and info-level text logging on
// stderr.
type Options struct {
	Seed      int64
	Updates   int
	StoreKind string
	StorePath string
	LogLevel  string
	LogFormat string
	Verbose   bool
	LogOutput io.Writer
}

// Client holds the store and logger shared across runs.
type Client struct {
	opts   Options
	store  storage.Store
	logger *slog.Logger
}

// RunRequest names the configuration for one run: script files loaded in
// order, then statements applied on top.
type RunRequest struct {
	ConfigFiles []string
	Statements  []string
}

// RunSummary reports how a run ended. A run that recorded errors still
// returns a summary; callers decide whether recorded errors are fatal.
type RunSummary struct {
	RunID    string
	Updates  uint64
	Errors   []string
	Warnings []string
}

// ModuleTypeInfo describes one registered module type.
type ModuleTypeInfo struct {
	Name string
	Desc string
}

func New(opts Options) (*Client, error) {
	if opts.Updates == 0 {
		opts.Updates = defaultUpdates
	}
	if opts.Updates < 0 {
		return nil, errors.New("updates must be >= 0")
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
	if opts.Verbose {
		opts.LogLevel = "debug"
	}
	if !logging.ValidLevel(opts.LogLevel) {
		return nil, fmt.Errorf("unknown log level: %s", opts.LogLevel)
	}
	if opts.LogFormat == "" {
		opts.LogFormat = "text"
	}
	if !logging.ValidFormat(opts.LogFormat) {
		return nil, fmt.Errorf("unknown log format: %s", opts.LogFormat)
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	store, err := storage.NewStore(opts.StoreKind, opts.StorePath)
	if err != nil {
		return nil, err
	}

	return &Client{
		opts:   opts,
		store:  store,
		logger: logging.New(opts.LogLevel, opts.LogFormat, opts.LogOutput),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Logger exposes the client logger so the CLI shares one output stream.
func (c *Client) Logger() *slog.Logger { return c.logger }

// ModuleTypes lists the built-in module types, sorted by name.
func (c *Client) ModuleTypes() ([]ModuleTypeInfo, error) {
	ctl, _, err := c.assemble()
	if err != nil {
		return nil, err
	}
	return moduleTypesOf(ctl), nil
}

// Help fires the help hook so modules can print their own usage, then
// returns the module types for the caller to render.
func (c *Client) Help() ([]ModuleTypeInfo, error) {
	ctl, _, err := c.assemble()
	if err != nil {
		return nil, err
	}
	ctl.TriggerHelp()
	return moduleTypesOf(ctl), nil
}

func moduleTypesOf(ctl *engine.Controller) []ModuleTypeInfo {
	reg := ctl.ModTypes()
	out := make([]ModuleTypeInfo, 0, len(reg.List()))
	for _, name := range reg.List() {
		out = append(out, ModuleTypeInfo{Name: name, Desc: reg.Desc(name)})
	}
	return out
}

// Run executes one configured run to completion: load the request's
// scripts, set up the world, advance it, and archive the results. The
// update budget comes from Options but config scripts may override it
// through the max_updates setting. A script that requests exit during
// configuration stops the run before setup.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, fmt.Errorf("init store: %w", err)
	}

	ctl, in, err := c.assemble()
	if err != nil {
		return RunSummary{}, err
	}

	updates := c.opts.Updates
	linkUpdates(in, &updates)

	if err := in.Load(req.ConfigFiles...); err != nil {
		return RunSummary{}, err
	}
	if err := in.LoadStatements(req.Statements, "command line settings"); err != nil {
		return RunSummary{}, err
	}
	arch := stampArchives(ctl, req.ConfigFiles)

	if ctl.Exiting() {
		return summarize(ctl, arch), nil
	}

	if err := ctl.Setup(); err != nil {
		return RunSummary{}, err
	}
	ctl.Update(updates)
	ctl.Finish()

	return summarize(ctl, arch), nil
}

// WriteConfig loads the request like Run would, then writes the resulting
// configuration as a runnable script instead of starting the run.
func (c *Client) WriteConfig(req RunRequest, path string) error {
	_, in, err := c.assemble()
	if err != nil {
		return err
	}

	updates := c.opts.Updates
	linkUpdates(in, &updates)

	if err := in.Load(req.ConfigFiles...); err != nil {
		return err
	}
	if err := in.LoadStatements(req.Statements, "command line settings"); err != nil {
		return err
	}
	return in.WriteFile(path)
}

// linkUpdates exposes the run's update budget as a config setting.
func linkUpdates(in *script.Interp, updates *int) {
	in.LinkInt("max_updates",
		func() int { return *updates },
		func(v int) { *updates = v },
		"Number of updates to run before exiting.")
}

// assemble wires a fresh controller and interpreter over the client store.
func (c *Client) assemble() (*engine.Controller, *script.Interp, error) {
	ctl, err := engine.New(engine.Config{
		Seed:    c.opts.Seed,
		Logger:  c.logger,
		Verbose: c.opts.Verbose,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := modules.RegisterBuiltins(ctl, c.store); err != nil {
		return nil, nil, err
	}
	in := script.New(c.logger)
	in.Bind(ctl)
	return ctl, in, nil
}

// stampArchives records which scripts drove the run on every archive module
// and returns the first one, whose run ID names the run.
func stampArchives(ctl *engine.Controller, configFiles []string) *modules.TraitArchive {
	var first *modules.TraitArchive
	desc := strings.Join(configFiles, " ")
	for _, m := range ctl.Modules() {
		arch, ok := m.(*modules.TraitArchive)
		if !ok {
			continue
		}
		if first == nil {
			first = arch
		}
		if desc != "" {
			arch.SetRunConfig(desc)
		}
	}
	return first
}

func summarize(ctl *engine.Controller, arch *modules.TraitArchive) RunSummary {
	summary := RunSummary{
		Updates:  ctl.GetUpdate(),
		Errors:   ctl.Errors().Errors(),
		Warnings: ctl.Errors().Warnings(),
	}
	if arch != nil {
		summary.RunID = arch.RunID()
	}
	return summary
}
