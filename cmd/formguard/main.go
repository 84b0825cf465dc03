package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/zoobzio/capitan"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/signals"
)

const usage = `Usage: %[1]s <command> [flags] [args]

Commands:
  lint  [-config file] [-watch] <glob>...   report forms, rules and destructive actions
  check [-config file] [-form id] <file>    fill a form interactively and submit it
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	capitan.Shutdown()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	name := filepath.Base(os.Args[0])
	if len(args) == 0 {
		fmt.Fprintf(stderr, usage, name)
		return 2
	}

	switch args[0] {
	case "lint":
		return runLintCommand(ctx, args[1:], stdout, stderr)
	case "check":
		return runCheckCommand(ctx, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprintf(stdout, usage, name)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		fmt.Fprintf(stderr, usage, name)
		return 2
	}
}

type commonFlags struct {
	configPath string
	verbosity  int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.IntVar(&c.verbosity, "v", 0, "log verbosity (1 lifecycle, 2 per-event)")
}

func (c *commonFlags) load() (config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.configPath)
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

// hookSignals mirrors formguard lifecycle signals into the logger.
func hookSignals(logger logr.Logger) {
	capitan.Hook(signals.FieldValidated, func(_ context.Context, e *capitan.Event) {
		field, _ := signals.KeyField.From(e)
		rule, _ := signals.KeyRule.From(e)
		logger.V(2).Info("field validated", "field", field, "rule", rule)
	})
	capitan.Hook(signals.SubmitVetoed, func(_ context.Context, e *capitan.Event) {
		form, _ := signals.KeyForm.From(e)
		invalid, _ := signals.KeyInvalid.From(e)
		logger.Info("submit vetoed", "form", form, "invalid", invalid)
	})
	capitan.Hook(signals.SubmitAllowed, func(_ context.Context, e *capitan.Event) {
		form, _ := signals.KeyForm.From(e)
		logger.Info("submit allowed", "form", form)
	})
	capitan.Hook(signals.NoticeStateChanged, func(_ context.Context, e *capitan.Event) {
		notice, _ := signals.KeyNotice.From(e)
		newState, _ := signals.KeyNewState.From(e)
		logger.V(1).Info("notice", "id", notice, "state", newState)
	})
}

func runLintCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	watchMode := fs.Bool("watch", false, "re-run when a matched template changes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "lint: at least one glob is required")
		return 2
	}

	logger := newLogger(stderr, common.verbosity).WithName("lint")
	cfg, err := common.load()
	if err != nil {
		logger.Error(err, "load config")
		return 1
	}
	files, err := expandPatterns(fs.Args())
	if err != nil {
		logger.Error(err, "expand patterns")
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "lint: no files matched")
		return 1
	}

	pass := func() (bool, error) {
		findings, err := lintFiles(stdout, cfg, files)
		if err != nil {
			return false, err
		}
		for _, f := range findings {
			fmt.Fprintf(stderr, "%s: %s\n", f.file, f.message)
		}
		return len(findings) == 0, nil
	}

	clean, err := pass()
	if err != nil {
		logger.Error(err, "lint")
		return 1
	}
	if *watchMode {
		err := watch(ctx, logger, files, func() error {
			_, err := pass()
			return err
		})
		if err != nil {
			logger.Error(err, "watch")
			return 1
		}
		return 0
	}
	if !clean {
		return 1
	}
	return 0
}

func runCheckCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	formID := fs.String("form", "", "form id, name or action (first form when empty)")
	skip := fs.Bool("no-validate", false, "accept any answer and let submit report errors")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "check: exactly one file is required")
		return 2
	}

	logger := newLogger(stderr, common.verbosity).WithName("check")
	if common.verbosity > 0 {
		hookSignals(logger)
	}
	cfg, err := common.load()
	if err != nil {
		logger.Error(err, "load config")
		return 1
	}

	allowed, err := runCheck(ctx, stdout, surveyPrompter{}, logger, cfg, checkOptions{
		path:       fs.Arg(0),
		form:       *formID,
		skipChecks: *skip,
	})
	switch {
	case errors.Is(err, ErrAborted):
		fmt.Fprintln(stderr, "aborted")
		return 130
	case err != nil:
		logger.Error(err, "check")
		return 1
	case !allowed:
		return 1
	}
	return 0
}
