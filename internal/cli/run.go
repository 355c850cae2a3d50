package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/roach88/sqllogictest/internal/engine"
	"github.com/roach88/sqllogictest/internal/harness"
)

// RunReport is the outcome of a whole invocation. It is the data payload
// of the JSON response.
type RunReport struct {
	Engine     string            `json:"engine"`
	Mode       string            `json:"mode"`
	Errors     int               `json:"errors"`
	Statements int               `json:"statements"`
	Scripts    []*harness.Result `json:"scripts"`
}

func (r *RunReport) add(result *harness.Result) {
	r.Scripts = append(r.Scripts, result)
	r.Errors += result.Errors
	r.Statements += result.Statements
}

// Summary returns the total line printed after more than one script.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("total: %d errors out of %d SQL statements in %d scripts", r.Errors, r.Statements, len(r.Scripts))
}

// runSettings is the resolved configuration of one invocation.
type runSettings struct {
	desc  engine.Descriptor
	hopts harness.Options
	write bool
}

// resolveSettings merges flags, the config file and defaults. A flag
// given on the command line wins over the config file, which wins over
// the built-in default.
func resolveSettings(cmd *cobra.Command, opts *RootOptions, reg *engine.Registry) (runSettings, error) {
	var cfg *Config
	if opts.Config != "" {
		var err error
		cfg, err = LoadConfig(opts.Config)
		if err != nil {
			return runSettings{}, err
		}
	} else {
		cfg = &Config{}
	}

	flags := cmd.Flags()

	name := cfg.Engine
	if flags.Changed("engine") {
		name = opts.Engine
	}
	desc, err := reg.Lookup(name)
	if err != nil {
		return runSettings{}, err
	}

	connection := cfg.Connection(desc.Name)
	if flags.Changed("connection") {
		connection = opts.Connection
	}

	threshold := opts.HashThreshold
	if !flags.Changed("hash-threshold") && cfg.HashThreshold != nil {
		threshold = *cfg.HashThreshold
	}
	if threshold < 0 {
		return runSettings{}, fmt.Errorf("hash threshold must not be negative, got %d", threshold)
	}

	policyName := opts.OnUnknown
	if !flags.Changed("on-unknown-record") && cfg.OnUnknownRecord != "" {
		policyName = cfg.OnUnknownRecord
	}
	policy, err := harness.ParseUnknownRecordPolicy(policyName)
	if err != nil {
		return runSettings{}, err
	}

	mode := harness.ModeComplete
	if opts.Verify {
		mode = harness.ModeVerify
	}

	return runSettings{
		desc: desc,
		hopts: harness.Options{
			Mode:          mode,
			Connection:    connection,
			HashThreshold: threshold,
			OnUnknown:     policy,
			Diag:          cmd.ErrOrStderr(),
		},
		write: opts.Write && mode == harness.ModeComplete,
	}, nil
}

func runScripts(cmd *cobra.Command, opts *RootOptions, reg *engine.Registry, args []string) error {
	ctx := cmd.Context()
	logger := slogctx.FromCtx(ctx)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	fatal := func(message string, err error) error {
		if opts.Format == "json" {
			_ = formatter.Error(CodeFatal, message, errorDetail(err))
		}
		return WrapExitError(ExitFailure, message, err)
	}

	if len(args) == 0 {
		return fatal("no input script specified", ErrNoScripts)
	}

	settings, err := resolveSettings(cmd, opts, reg)
	if err != nil {
		return fatal("invalid configuration", err)
	}

	paths, err := FindScripts(args)
	if err != nil {
		return fatal("cannot find scripts", err)
	}

	// Completed scripts own stdout unless they go to files, so the JSON
	// report moves to stderr.
	if settings.hopts.Mode == harness.ModeComplete && !settings.write {
		formatter.Writer = cmd.ErrOrStderr()
	}

	logger.Debug("starting run",
		"engine", settings.desc.Name,
		"mode", settings.hopts.Mode,
		"scripts", len(paths),
		"hash_threshold", settings.hopts.HashThreshold,
		"on_unknown_record", settings.hopts.OnUnknown,
	)

	report := &RunReport{Engine: settings.desc.Name, Mode: settings.hopts.Mode.String()}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted", "completed", len(report.Scripts), "remaining", len(paths)-len(report.Scripts))
			return fatal("interrupted", err)
		}

		result, err := runScript(ctx, settings, path, cmd.OutOrStdout())
		if err != nil {
			return fatal(fmt.Sprintf("%s: script failed", path), err)
		}
		report.add(result)

		if opts.Format == "text" {
			printSummary(cmd, settings.hopts.Mode, result.Errors, result.Summary())
		}
	}

	if opts.Format == "json" {
		if report.Errors > 0 {
			msg := fmt.Sprintf("%d errors out of %d SQL statements", report.Errors, report.Statements)
			if err := formatter.Error(CodeScriptErrors, msg, report); err != nil {
				return err
			}
		} else if err := formatter.Success(report); err != nil {
			return err
		}
	} else if len(report.Scripts) > 1 {
		printSummary(cmd, settings.hopts.Mode, report.Errors, report.Summary())
	}

	if report.Errors > 0 {
		return ErrorCountExit(report.Errors)
	}
	return nil
}

// runScript loads and runs one script. Completed output goes to stdout,
// or to the script's generated file when writing files.
func runScript(ctx context.Context, settings runSettings, path string, stdout io.Writer) (result *harness.Result, err error) {
	script, err := LoadScript(path)
	if err != nil {
		return nil, err
	}

	out := stdout
	if settings.write {
		f, cerr := os.Create(GeneratedPath(path))
		if cerr != nil {
			return nil, fmt.Errorf("create completed script: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				err = multierror.Append(err, cerr).ErrorOrNil()
			}
		}()
		out = f
	}

	w := bufio.NewWriter(out)
	hopts := settings.hopts
	hopts.Out = w

	result, err = harness.New(settings.desc, hopts).Run(ctx, path, script.Text)
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("write completed script: %w", ferr)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// printSummary writes a summary line: always to stdout in verify mode, and
// to stderr only when errors occurred in completion mode, where stdout
// carries the completed script.
func printSummary(cmd *cobra.Command, mode harness.Mode, errs int, line string) {
	if mode == harness.ModeVerify {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return
	}
	if errs > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), line)
	}
}

// errorDetail returns err's chain as strings for JSON error details.
func errorDetail(err error) []string {
	var details []string
	for err != nil {
		details = append(details, err.Error())
		err = errors.Unwrap(err)
	}
	return details
}
