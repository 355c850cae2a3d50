package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/roach88/sqllogictest/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a YAML config file

	Engine        string
	Connection    string
	Verify        bool
	HashThreshold int
	OnUnknown     string
	Write         bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. reg is the table of engines a
// script may be run against.
func NewRootCommand(reg *engine.Registry) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slt [flags] <script|dir>...",
		Short: "Run sqllogictest scripts against a SQL database engine",
		Long: `Run sqllogictest scripts against a SQL database engine.

By default each script is completed: it is copied to standard output with
the results computed by the engine written below every query. With
--verify the results already in the script are checked instead, and every
mismatch is reported as file:line: message on standard error.

Directories are searched for *.test files. Every script runs on a fresh,
empty database.

Exit codes:
  0     - No errors
  1-255 - Number of errors counted, capped at 255
  1     - Also used for fatal errors (unreadable script, unknown engine, ...)

Examples:
  slt select1.test > select1.test.new
  slt --verify select1.test
  slt --verify --engine duckdb ./test
  slt --write ./test
  slt -verify -engine sqlite select1.test`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cmd.SetContext(withLogger(cmd.Context(), cmd.ErrOrStderr(), opts.Verbose))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(cmd, opts, reg, args)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")

	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "check results instead of completing the script")
	cmd.Flags().StringVarP(&opts.Engine, "engine", "e", "", fmt.Sprintf("database engine (%s; default %s)", joinNames(reg), reg.Default().Name))
	cmd.Flags().StringVarP(&opts.Connection, "connection", "c", "", "engine connection string")
	cmd.Flags().IntVar(&opts.HashThreshold, "hash-threshold", 0, "hash results with more values than this (0 disables)")
	cmd.Flags().StringVar(&opts.OnUnknown, "on-unknown-record", "abort", "what to do after an unknown record type (abort|skip)")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "write completed scripts to <script>"+GeneratedExt+" instead of stdout")

	cmd.AddCommand(NewEnginesCommand(opts, reg))

	return cmd
}

// Execute runs the command line args, after rewriting legacy flags, with
// the given output streams.
func Execute(ctx context.Context, reg *engine.Registry, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand(reg)
	cmd.SetArgs(NormalizeArgs(args))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// withLogger installs a text logger on w in ctx and as the slog default.
func withLogger(ctx context.Context, w io.Writer, verbose bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return slogctx.NewCtx(ctx, logger)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
