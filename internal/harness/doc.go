// Package harness runs sqllogictest scripts against a database engine.
//
// The Runner walks a script record by record, sends each statement or query
// to the selected engine and either checks the results against the script
// (verify mode) or writes the script back out with freshly computed results
// (completion mode).
//
// # Records
//
//   - statement ok|error: the body is run as one statement. The outcome
//     must match the expectation.
//   - query <types> [nosort|rowsort|valuesort]: the body is run as a query.
//     types has one character per column: T text, I integer, R real.
//   - hash-threshold <n>: results with more than n cells are replaced by an
//     MD5 digest line. 0 disables hashing.
//   - halt: stop processing the script.
//   - skipif <engine> / onlyif <engine>: optional lines before a record
//     header that skip the record for the named engine, or for every other
//     engine.
//
// # Result Normalization
//
// Cells are sorted according to the record's sort mode, then, above the
// hash threshold, collapsed into a single line:
//
//	<n> values hashing to <md5 hex>
//
// where the digest covers every cell followed by a newline.
//
// # Errors
//
// Mismatches and malformed records never stop the run; each one prints a
// "file:line: message" diagnostic and counts toward Result.Errors. An
// unknown record type stops the script unless the runner is configured to
// skip it. Only failing to connect, or failing to write the completed
// script, is returned as an error from Run.
//
// # Usage
//
//	runner := harness.New(desc, harness.Options{
//	    Mode: harness.ModeVerify,
//	    Diag: os.Stderr,
//	})
//	result, err := runner.Run(ctx, "select1.test", text)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package harness
