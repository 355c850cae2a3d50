// Package script scans sqllogictest scripts.
//
// A script is plain text made of records separated by one or more blank
// lines. Lines whose first non-blank character is '#' are comments and
// may appear anywhere. The first line of a record is its header:
//
//	statement ok
//	CREATE TABLE t1(a INTEGER, b TEXT)
//
//	query IT rowsort
//	SELECT a, b FROM t1
//	----
//	1
//	one
//
//	hash-threshold 8
//
//	halt
//
// # Cursor
//
// Cursor walks the script one physical line at a time. It never exposes
// comment lines, strips a trailing carriage return, and reports lines made
// only of whitespace as empty. When echo is enabled every physical line is
// written to the echo writer as it is consumed, comments included, which is
// how completion mode reproduces the script around freshly computed
// results.
//
// The record-level helpers build on three primitives:
//
//   - Advance moves to the next non-comment line.
//   - PeekIsBlank looks ahead without moving.
//   - SeekNextRecord skips the rest of the current record and the blank
//     run that follows it.
//
// Tokenize splits the current line into at most three header tokens.
package script
