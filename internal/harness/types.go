package harness

import (
	"fmt"
)

// Mode selects what the runner does with query results.
type Mode int

const (
	// ModeComplete echoes the script and writes computed results into it.
	ModeComplete Mode = iota

	// ModeVerify compares computed results against the script.
	ModeVerify
)

func (m Mode) String() string {
	if m == ModeVerify {
		return "verify"
	}
	return "complete"
}

// UnknownRecordPolicy controls what happens after an unrecognized record.
type UnknownRecordPolicy int

const (
	// AbortOnUnknown stops the script at the unknown record.
	AbortOnUnknown UnknownRecordPolicy = iota

	// SkipUnknown reports the record and continues with the next one.
	SkipUnknown
)

// ParseUnknownRecordPolicy parses "abort" or "skip".
func ParseUnknownRecordPolicy(s string) (UnknownRecordPolicy, error) {
	switch s {
	case "", "abort":
		return AbortOnUnknown, nil
	case "skip":
		return SkipUnknown, nil
	}
	return AbortOnUnknown, fmt.Errorf("invalid unknown-record policy %q: must be abort or skip", s)
}

func (p UnknownRecordPolicy) String() string {
	if p == SkipUnknown {
		return "skip"
	}
	return "abort"
}

// FailureKind categorizes a counted error.
type FailureKind string

const (
	KindStatement  FailureKind = "statement"
	KindQuery      FailureKind = "query"
	KindResult     FailureKind = "result"
	KindHash       FailureKind = "hash"
	KindMalformed  FailureKind = "malformed"
	KindDisconnect FailureKind = "disconnect"
)

// Failure is one counted error.
type Failure struct {
	Line    int         `json:"line,omitempty"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`

	// Detail carries the engine's error text when there is one.
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of running one script.
type Result struct {
	File string `json:"file"`

	// Errors counts every failure. It equals len(Failures).
	Errors int `json:"errors"`

	// Statements counts statements and queries sent to the engine.
	Statements int `json:"statements"`

	// Halted is set when a halt record ended the script.
	Halted bool `json:"halted,omitempty"`

	// Aborted is set when an unknown record ended the script.
	Aborted bool `json:"aborted,omitempty"`

	Failures []Failure `json:"failures,omitempty"`
}

// NewResult creates an empty result for file.
func NewResult(file string) *Result {
	return &Result{
		File:     file,
		Failures: []Failure{},
	}
}

// AddFailure records f and increments the error count.
func (r *Result) AddFailure(f Failure) {
	r.Failures = append(r.Failures, f)
	r.Errors++
}

// Pass reports whether the script ran without errors.
func (r *Result) Pass() bool {
	return r.Errors == 0
}

// Summary returns the one-line report printed at the end of a run.
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: %d errors out of %d SQL statements", r.File, r.Errors, r.Statements)
}
