package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"phylon/internal/logging"
	"phylon/pkg/phylon"
)

const version = "0.1.0"

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	code := 1
	var xerr *exitError
	if errors.As(err, &xerr) {
		code = xerr.code
	}
	os.Exit(code)
}

// exitError carries the process exit code for main. Usage mistakes exit
// with 2, runtime failures with 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return &exitError{code: 2, msg: msg + "\nrun 'phylonctl --help' for usage"}
}

// cliState collects everything the argument actions record before the
// command itself runs.
type cliState struct {
	files      []string
	statements []string
	generate   string
	helpTopic  string
	showHelp   bool
	showMods   bool
	showVer    bool
	opts       phylon.Options
}

func defaultState() *cliState {
	return &cliState{opts: phylon.Options{StorePath: "phylon.db"}}
}

// argInfo describes one command line argument: the long name, an optional
// one-letter flag, a hint for the values it consumes, and the action that
// records them on the state.
type argInfo struct {
	name   string
	flag   string
	params string
	desc   string
	action func(st *cliState, vals []string) error
}

func argTable() []argInfo {
	return []argInfo{
		{
			name:   "--filename",
			flag:   "-f",
			params: "[files...]",
			desc:   "Load configuration scripts in the order given.",
			action: func(st *cliState, vals []string) error {
				st.files = append(st.files, vals...)
				return nil
			},
		},
		{
			name:   "--generate",
			flag:   "-g",
			params: "[file]",
			desc:   "Write a default configuration script and exit.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--generate", vals)
				if err != nil {
					return err
				}
				st.generate = v
				return nil
			},
		},
		{
			name:   "--help",
			flag:   "-h",
			params: "[topic]",
			desc:   "Print this help, or help for one module type.",
			action: func(st *cliState, vals []string) error {
				if len(vals) > 1 {
					return usageErrorf("--help takes at most one topic")
				}
				st.showHelp = true
				if len(vals) == 1 {
					st.helpTopic = vals[0]
				}
				return nil
			},
		},
		{
			name:   "--modules",
			flag:   "-m",
			params: "",
			desc:   "List the available module types.",
			action: func(st *cliState, vals []string) error {
				if err := noValues("--modules", vals); err != nil {
					return err
				}
				st.showMods = true
				return nil
			},
		},
		{
			name:   "--set",
			flag:   "-s",
			params: "[statements...]",
			desc:   "Apply configuration statements after scripts load.",
			action: func(st *cliState, vals []string) error {
				st.statements = append(st.statements, vals...)
				return nil
			},
		},
		{
			name:   "--version",
			flag:   "-v",
			params: "",
			desc:   "Print version information.",
			action: func(st *cliState, vals []string) error {
				if err := noValues("--version", vals); err != nil {
					return err
				}
				st.showVer = true
				return nil
			},
		},
		{
			name:   "--verbose",
			flag:   "-+",
			params: "",
			desc:   "Log debug-level detail.",
			action: func(st *cliState, vals []string) error {
				if err := noValues("--verbose", vals); err != nil {
					return err
				}
				st.opts.Verbose = true
				return nil
			},
		},
		{
			name:   "--log-level",
			params: "[level]",
			desc:   "Log level: debug, info, warn, or error.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--log-level", vals)
				if err != nil {
					return err
				}
				if !logging.ValidLevel(v) {
					return usageErrorf("invalid log level: must be debug, info, warn, or error")
				}
				st.opts.LogLevel = v
				return nil
			},
		},
		{
			name:   "--log-format",
			params: "[format]",
			desc:   "Log format: text or json.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--log-format", vals)
				if err != nil {
					return err
				}
				if !logging.ValidFormat(v) {
					return usageErrorf("invalid log format: must be text or json")
				}
				st.opts.LogFormat = v
				return nil
			},
		},
		{
			name:   "--store",
			params: "[kind]",
			desc:   "Archive store backend: memory or sqlite.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--store", vals)
				if err != nil {
					return err
				}
				if v != "memory" && v != "sqlite" {
					return usageErrorf("invalid store backend: must be memory or sqlite")
				}
				st.opts.StoreKind = v
				return nil
			},
		},
		{
			name:   "--db-path",
			params: "[path]",
			desc:   "SQLite file used when the store is sqlite.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--db-path", vals)
				if err != nil {
					return err
				}
				st.opts.StorePath = v
				return nil
			},
		},
		{
			name:   "--seed",
			params: "[n]",
			desc:   "Seed for the shared random source.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--seed", vals)
				if err != nil {
					return err
				}
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return usageErrorf("--seed must be an integer, got %q", v)
				}
				st.opts.Seed = n
				return nil
			},
		},
		{
			name:   "--updates",
			params: "[n]",
			desc:   "Number of updates to run.",
			action: func(st *cliState, vals []string) error {
				v, err := oneValue("--updates", vals)
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(v)
				if err != nil || n <= 0 {
					return usageErrorf("--updates must be a positive integer, got %q", v)
				}
				st.opts.Updates = n
				return nil
			},
		},
	}
}

func oneValue(name string, vals []string) (string, error) {
	if len(vals) != 1 {
		return "", usageErrorf("%s requires exactly one value", name)
	}
	return vals[0], nil
}

func noValues(name string, vals []string) error {
	if len(vals) != 0 {
		return usageErrorf("%s takes no values", name)
	}
	return nil
}

// parseArgs scans args left to right. Each recognized argument consumes
// the tokens that follow it, up to the next token starting with '-', and
// hands them to its action. Values therefore never begin with '-', so a
// negative seed has to come through --set instead.
func parseArgs(args []string, st *cliState) error {
	table := argTable()
	for pos := 0; pos < len(args); pos++ {
		matched := false
		for i := range table {
			arg := &table[i]
			if args[pos] != arg.name && (arg.flag == "" || args[pos] != arg.flag) {
				continue
			}
			matched = true
			var vals []string
			for pos+1 < len(args) && !strings.HasPrefix(args[pos+1], "-") {
				pos++
				vals = append(vals, args[pos])
			}
			if err := arg.action(st, vals); err != nil {
				return err
			}
			break
		}
		if !matched {
			return usageErrorf("unknown argument: %s", args[pos])
		}
	}
	return nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	st := defaultState()
	if err := parseArgs(args, st); err != nil {
		return err
	}

	switch {
	case st.showHelp:
		return showHelp(st.helpTopic, out)
	case st.showVer:
		fmt.Fprintf(out, "phylon v%s\n", version)
		return nil
	case st.showMods:
		return showModules(out)
	}

	client, err := phylon.New(st.opts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	req := phylon.RunRequest{ConfigFiles: st.files, Statements: st.statements}

	if st.generate != "" {
		if err := client.WriteConfig(req, st.generate); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote configuration to %s\n", st.generate)
		return nil
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run completed run_id=%s updates=%d errors=%d warnings=%d\n",
		summary.RunID, summary.Updates, len(summary.Errors), len(summary.Warnings))
	for _, msg := range summary.Errors {
		fmt.Fprintf(out, "error: %s\n", msg)
	}
	if n := len(summary.Errors); n > 0 {
		return fmt.Errorf("run finished with %d error(s)", n)
	}
	return nil
}

// showHelp prints the argument table, or one module type's description
// when a topic names it. The help hook fires first so modules can add
// their own output.
func showHelp(topic string, out io.Writer) error {
	client, err := phylon.New(phylon.Options{LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	types, err := client.Help()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "phylon v%s\n", version)
	if topic != "" {
		for _, mt := range types {
			if mt.Name == topic {
				fmt.Fprintf(out, "%s : %s\n", mt.Name, mt.Desc)
				return nil
			}
		}
		fmt.Fprintln(out, "Unknown keyword.")
		return nil
	}

	fmt.Fprintln(out, "usage: phylonctl [arguments]")
	for _, arg := range argTable() {
		first := arg.name
		suffix := ""
		if arg.flag != "" {
			first = arg.flag
			suffix = fmt.Sprintf(" (or %s)", arg.name)
		}
		fmt.Fprintf(out, "  %-12s %-16s : %s%s\n", first, arg.params, arg.desc, suffix)
	}
	return nil
}

// showModules lists the registered module types.
func showModules(out io.Writer) error {
	client, err := phylon.New(phylon.Options{LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	types, err := client.ModuleTypes()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "phylon v%s\n", version)
	fmt.Fprintln(out, "Available module types:")
	for _, mt := range types {
		fmt.Fprintf(out, "  %-18s : %s\n", mt.Name, mt.Desc)
	}
	return nil
}
