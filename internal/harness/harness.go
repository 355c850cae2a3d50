package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/roach88/sqllogictest/internal/engine"
	"github.com/roach88/sqllogictest/internal/script"
)

// Options configures a Runner.
type Options struct {
	// Mode selects verify or completion mode.
	Mode Mode

	// Connection is passed to the engine's Connect. Empty selects the
	// engine's default.
	Connection string

	// HashThreshold is the threshold in effect when a script starts.
	// hash-threshold records change it for the rest of that script.
	HashThreshold int

	// OnUnknown decides whether an unknown record type ends the script.
	OnUnknown UnknownRecordPolicy

	// Out receives the completed script in completion mode.
	Out io.Writer

	// Diag receives one "file:line: message" line per failure.
	Diag io.Writer
}

// Runner executes scripts against one engine.
type Runner struct {
	desc engine.Descriptor
	opts Options
}

// New creates a runner for the engine described by desc.
func New(desc engine.Descriptor, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Diag == nil {
		opts.Diag = io.Discard
	}
	return &Runner{desc: desc, opts: opts}
}

// Engine returns the name of the engine under test.
func (r *Runner) Engine() string {
	return r.desc.Name
}

// run holds the state of one script execution. The hash threshold and the
// connection handle are the only state carried from record to record.
type run struct {
	*Runner
	ctx       context.Context
	logger    *slog.Logger
	cur       *script.Cursor
	conn      engine.Handle
	threshold int
	result    *Result
}

// Run executes the script text, named file in diagnostics. A fresh
// connection is opened before the first record and closed after the last.
//
// The returned error is non-nil only when the engine cannot be reached or
// the completed script cannot be written; every other problem is counted
// in the Result.
func (r *Runner) Run(ctx context.Context, file string, text []byte) (*Result, error) {
	logger := slogctx.FromCtx(ctx).With("file", file, "engine", r.desc.Name)
	ctx = slogctx.NewCtx(ctx, logger)

	conn, err := r.desc.Connect(ctx, r.opts.Connection)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	logger.Debug("connected", "mode", r.opts.Mode)

	x := &run{
		Runner:    r,
		ctx:       ctx,
		logger:    logger,
		cur:       script.New(text, r.opts.Out),
		conn:      conn,
		threshold: r.opts.HashThreshold,
		result:    NewResult(file),
	}
	x.cur.SetEcho(r.opts.Mode == ModeComplete)

	x.records()

	if err := r.desc.Disconnect(ctx, conn); err != nil {
		x.fail(0, KindDisconnect, "disconnection from database failed", err)
	}

	if err := x.cur.Err(); err != nil {
		return x.result, fmt.Errorf("write completed script: %w", err)
	}

	logger.Debug("script finished",
		"errors", x.result.Errors,
		"statements", x.result.Statements,
		"halted", x.result.Halted,
	)
	return x.result, nil
}

// records is the interpreter loop: one iteration per record.
func (x *run) records() {
	for x.cur.SeekNextRecord() {
		x.cur.Tokenize()

		if !x.conditionsAllow() {
			continue
		}

		switch x.cur.Token(0) {
		case "statement":
			x.statement()
		case "query":
			x.query()
		case "hash-threshold":
			x.hashThreshold()
		case "halt":
			x.diag(x.cur.StartLine(), "halt")
			x.result.Halted = true
			return
		default:
			x.fail(x.cur.StartLine(), KindMalformed,
				fmt.Sprintf("unknown record type: '%s'", x.cur.Token(0)), nil)
			if x.opts.OnUnknown == AbortOnUnknown {
				x.result.Aborted = true
				return
			}
		}
	}
}

// conditionsAllow consumes skipif/onlyif lines in front of a record header
// and reports whether the record applies to the engine under test. On
// return the cursor rests on the header, already tokenized.
func (x *run) conditionsAllow() bool {
	allow := true
	for {
		switch x.cur.Token(0) {
		case "skipif":
			if strings.EqualFold(x.cur.Token(1), x.desc.Name) {
				allow = false
			}
		case "onlyif":
			if !strings.EqualFold(x.cur.Token(1), x.desc.Name) {
				allow = false
			}
		default:
			return allow
		}

		if !allow {
			x.logger.Debug("record skipped", "line", x.cur.StartLine(), "condition", x.cur.Line())
			return false
		}
		if !x.cur.Advance() || x.cur.Line() == "" {
			return false
		}
		x.cur.Tokenize()
	}
}

func (x *run) statement() {
	line := x.cur.StartLine()
	expect := x.cur.Token(1)
	sql := x.cur.Body()

	err := x.desc.Statement(x.ctx, x.conn, sql)
	x.result.Statements++
	x.logger.Debug("statement", "line", line, "expect", expect, "error", err)

	switch expect {
	case "ok":
		if err != nil {
			x.fail(line, KindStatement, "statement error", err)
		}
	case "error":
		if err == nil {
			x.fail(line, KindStatement, "statement error", nil)
		}
	default:
		x.fail(line, KindMalformed, "statement argument should be 'ok' or 'error'", nil)
	}
}

func (x *run) query() {
	line := x.cur.StartLine()
	types := x.cur.Token(1)

	if err := engine.ValidateTypes(types); err != nil {
		msg := "missing type string"
		if types != "" {
			msg = err.Error()
		}
		x.fail(line, KindMalformed, msg, nil)
		return
	}

	sortTok := x.cur.Token(2)
	sql := x.cur.QueryBody()

	cells, err := x.desc.Query(x.ctx, x.conn, sql, types)
	x.result.Statements++
	if err != nil {
		x.logger.Debug("query failed", "line", line, "error", err)
		x.fail(line, KindQuery, "query failed", err)
		return
	}
	defer x.desc.FreeResults(x.conn, cells)
	x.logger.Debug("query", "line", line, "cells", len(cells), "sort", sortTok)

	mode, ok := ParseSortMode(sortTok)
	if !ok {
		x.fail(line, KindMalformed, fmt.Sprintf("unknown sort method: '%s'", sortTok), nil)
	}
	sorted := SortCells(cells, len(types), mode)
	out := Output(sorted, x.threshold)
	hashed := ShouldHash(len(sorted), x.threshold)

	if x.opts.Mode == ModeVerify {
		x.verify(out, hashed)
	} else {
		x.complete(out)
	}
}

// verify compares the query's output with the expected lines. A hashed
// result must match a single digest line exactly.
func (x *run) verify(out []string, hashed bool) {
	line := x.cur.StartLine()
	expected := x.cur.Expected()

	if hashed {
		if len(expected) != 1 || expected[0].Text != out[0] {
			x.fail(line, KindHash, "wrong result hash", nil)
			x.logger.Debug("hash mismatch", "line", line, "got", out[0], "want", script.Texts(expected))
		}
		return
	}

	for i, got := range out {
		if i >= len(expected) {
			x.fail(x.cur.LineNum(), KindResult, "wrong result", nil)
			x.logger.Debug("result too long", "line", line, "cells", len(out), "expected", len(expected))
			return
		}
		if expected[i].Text != got {
			x.fail(expected[i].Num, KindResult, "wrong result", nil)
			x.logger.Debug("result mismatch", "line", expected[i].Num, "got", got, "want", expected[i].Text)
			return
		}
	}
	if len(expected) > len(out) {
		x.fail(expected[len(out)].Num, KindResult, "wrong result", nil)
		x.logger.Debug("result too short", "line", line, "cells", len(out), "expected", len(expected))
	}
}

// complete discards whatever results the script holds and writes the
// computed ones in their place, followed by the blank line that ends the
// record.
func (x *run) complete(out []string) {
	sep := x.cur.AtSeparator()
	x.cur.Expected()
	if !sep {
		x.cur.Printf("%s\n", script.Separator)
	}
	for _, l := range out {
		x.cur.Printf("%s\n", l)
	}
	x.cur.Printf("\n")
}

func (x *run) hashThreshold() {
	n, err := strconv.Atoi(x.cur.Token(1))
	if err != nil || n < 0 {
		x.fail(x.cur.StartLine(), KindMalformed,
			fmt.Sprintf("hash-threshold argument should be a non-negative integer: '%s'", x.cur.Token(1)), nil)
		return
	}
	x.threshold = n
	x.logger.Debug("hash threshold", "line", x.cur.StartLine(), "threshold", n)
}

// fail counts a failure and prints its diagnostic.
func (x *run) fail(line int, kind FailureKind, msg string, cause error) {
	f := Failure{Line: line, Kind: kind, Message: msg}
	if cause != nil {
		f.Detail = cause.Error()
	}
	x.result.AddFailure(f)
	x.diag(line, msg)
}

func (x *run) diag(line int, msg string) {
	if line > 0 {
		fmt.Fprintf(x.opts.Diag, "%s:%d: %s\n", x.result.File, line, msg)
		return
	}
	fmt.Fprintf(x.opts.Diag, "%s: %s\n", x.result.File, msg)
}
