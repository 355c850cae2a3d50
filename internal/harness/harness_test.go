package harness

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqllogictest/internal/testutil"
)

var errBoom = errors.New("boom")

// runScript runs text against eng in the given mode and returns the
// result, the diagnostics and the completed script.
func runScript(t *testing.T, eng *testutil.Engine, mode Mode, text string, opts ...func(*Options)) (*Result, string, string) {
	t.Helper()

	var out, diag bytes.Buffer
	o := Options{Mode: mode, Out: &out, Diag: &diag}
	for _, fn := range opts {
		fn(&o)
	}
	result, err := New(eng.Descriptor("fake"), o).Run(context.Background(), "t.test", []byte(text))
	require.NoError(t, err)
	return result, diag.String(), out.String()
}

func TestRun_ScenarioA_EmptyResult(t *testing.T) {
	script := "statement ok\nCREATE TABLE t(a INT);\n\nquery I\nSELECT a FROM t;\n----\n"
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t;", 1)

	result, _, out := runScript(t, eng, ModeComplete, script)
	assert.Equal(t, script+"\n", out, "blank line right after the separator")
	assert.Equal(t, 0, result.Errors)

	result, diag, _ := runScript(t, eng, ModeVerify, script)
	assert.Equal(t, 0, result.Errors, diag)
	assert.Equal(t, 2, result.Statements)
}

func TestRun_ScenarioB_RowSort(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "3", "1", "2")

	_, _, out := runScript(t, eng, ModeComplete, "query I rowsort\nSELECT a FROM t\n")
	assert.Equal(t, "query I rowsort\nSELECT a FROM t\n----\n1\n2\n3\n\n", out)

	result, diag, _ := runScript(t, eng, ModeVerify, "query I rowsort\nSELECT a FROM t\n----\n1\n2\n3\n")
	assert.Equal(t, 0, result.Errors, diag)
}

func TestRun_ScenarioC_StatementUnexpectedlySucceeds(t *testing.T) {
	script := "statement ok\nCREATE TABLE t(a)\n\n\nstatement error\nINSERT INTO t VALUES(1)\n"
	eng := testutil.NewEngine()

	result, diag, _ := runScript(t, eng, ModeVerify, script)

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, Failure{Line: 5, Kind: KindStatement, Message: "statement error"}, result.Failures[0])
	assert.Equal(t, "t.test:5: statement error\n", diag)
	assert.Equal(t, "t.test: 1 errors out of 2 SQL statements", result.Summary())
}

func TestRun_StatementFails(t *testing.T) {
	eng := testutil.NewEngine().FailStatement("DROP TABLE nope", errBoom)

	result, diag, _ := runScript(t, eng, ModeVerify, "statement ok\nDROP TABLE nope\n\nstatement error\nDROP TABLE nope\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.Failures[0].Line)
	assert.Contains(t, result.Failures[0].Detail, "boom")
	assert.Equal(t, "t.test:1: statement error\n", diag)
}

func TestRun_StatementBadArgument(t *testing.T) {
	eng := testutil.NewEngine()

	result, diag, _ := runScript(t, eng, ModeVerify, "statement maybe\nCREATE TABLE t(a)\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, KindMalformed, result.Failures[0].Kind)
	assert.Contains(t, diag, "statement argument should be 'ok' or 'error'")
	assert.Equal(t, []string{"CREATE TABLE t(a)"}, eng.Executed(), "statement still runs")
}

func TestRun_MultiLineStatement(t *testing.T) {
	eng := testutil.NewEngine()

	runScript(t, eng, ModeVerify, "statement ok\nCREATE TABLE t(\n  a INT\n)\n")

	assert.Equal(t, []string{"CREATE TABLE t(\n  a INT\n)"}, eng.Executed())
}

func TestRun_WrongResult(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2")

	result, diag, _ := runScript(t, eng, ModeVerify, "query I nosort\nSELECT a FROM t\n----\n1\n3\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, Failure{Line: 5, Kind: KindResult, Message: "wrong result"}, result.Failures[0])
	assert.Equal(t, "t.test:5: wrong result\n", diag)
}

func TestRun_ResultCountMismatch(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		expected string
	}{
		{"more cells than expected", []string{"1", "2"}, "1\n"},
		{"fewer cells than expected", []string{"1"}, "1\n2\n"},
		{"no expected lines", []string{"1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, tt.cells...)

			result, _, _ := runScript(t, eng, ModeVerify, "query I\nSELECT a FROM t\n----\n"+tt.expected)

			require.Equal(t, 1, result.Errors)
			assert.Equal(t, KindResult, result.Failures[0].Kind)
		})
	}
}

func TestRun_QueryFails(t *testing.T) {
	eng := testutil.NewEngine().FailQuery("SELECT * FROM missing", errBoom)

	result, diag, _ := runScript(t, eng, ModeVerify, "query I\nSELECT * FROM missing\n----\n1\n\nquery I\nSELECT * FROM missing\n")

	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 2, result.Statements)
	assert.Equal(t, "t.test:1: query failed\nt.test:6: query failed\n", diag)
}

func TestRun_ColumnCountMismatchIsQueryFailure(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a, b FROM t", 2, "1", "2")

	result, _, _ := runScript(t, eng, ModeVerify, "query I\nSELECT a, b FROM t\n----\n1\n2\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, KindQuery, result.Failures[0].Kind)
	assert.Contains(t, result.Failures[0].Detail, "wrong number of result columns")
}

func TestRun_BadTypeString(t *testing.T) {
	tests := []struct {
		header string
		msg    string
	}{
		{"query", "missing type string"},
		{"query IX", "unknown type character 'X' in type string"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			eng := testutil.NewEngine()

			result, diag, _ := runScript(t, eng, ModeVerify, tt.header+"\nSELECT 1\n")

			require.Equal(t, 1, result.Errors)
			assert.Equal(t, KindMalformed, result.Failures[0].Kind)
			assert.Equal(t, "t.test:1: "+tt.msg+"\n", diag)
			assert.Empty(t, eng.Executed(), "query is not sent")
		})
	}
}

func TestRun_UnknownSortModeLeavesCellsUnsorted(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "2", "1")

	result, diag, out := runScript(t, eng, ModeComplete, "query I colsort\nSELECT a FROM t\n")

	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, diag, "unknown sort method: 'colsort'")
	assert.Equal(t, "query I colsort\nSELECT a FROM t\n----\n2\n1\n\n", out)
}

func TestRun_HashThresholdBoundary(t *testing.T) {
	three := []string{"1", "2", "3"}
	four := []string{"1", "2", "3", "4"}

	eng := testutil.NewEngine().
		AddQuery("SELECT three", 1, three...).
		AddQuery("SELECT four", 1, four...)

	script := "hash-threshold 3\n\nquery I\nSELECT three\n\nquery I\nSELECT four\n"
	_, _, out := runScript(t, eng, ModeComplete, script)

	assert.Equal(t, "hash-threshold 3\n\n"+
		"query I\nSELECT three\n----\n1\n2\n3\n\n"+
		"query I\nSELECT four\n----\n4 values hashing to 302c28003d487124d97c242de94da856\n\n", out)

	result, diag, _ := runScript(t, eng, ModeVerify, out)
	assert.Equal(t, 0, result.Errors, diag)
}

func TestRun_HashThresholdFromOptions(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2", "3")

	_, _, out := runScript(t, eng, ModeComplete, "query I\nSELECT a FROM t\n", func(o *Options) {
		o.HashThreshold = 2
	})

	assert.Equal(t, "query I\nSELECT a FROM t\n----\n3 values hashing to c0710d6b4f15dfa88f600b0e6b624077\n\n", out)
}

func TestRun_HashThresholdZeroDisables(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2", "3")

	_, _, out := runScript(t, eng, ModeComplete, "hash-threshold 0\n\nquery I\nSELECT a FROM t\n", func(o *Options) {
		o.HashThreshold = 1
	})

	assert.Contains(t, out, "----\n1\n2\n3\n")
}

func TestRun_WrongResultHash(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2", "3")

	result, diag, _ := runScript(t, eng, ModeVerify,
		"hash-threshold 1\n\nquery I\nSELECT a FROM t\n----\n3 values hashing to 00000000000000000000000000000000\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, KindHash, result.Failures[0].Kind)
	assert.Equal(t, "t.test:3: wrong result hash\n", diag)
}

func TestRun_HashedResultRejectsListedValues(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2", "3")

	result, _, _ := runScript(t, eng, ModeVerify, "hash-threshold 1\n\nquery I\nSELECT a FROM t\n----\n1\n2\n3\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, KindHash, result.Failures[0].Kind)
}

func TestRun_MalformedHashThreshold(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1", "2", "3")

	result, diag, out := runScript(t, eng, ModeComplete, "hash-threshold lots\n\nquery I\nSELECT a FROM t\n", func(o *Options) {
		o.HashThreshold = 2
	})

	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, diag, "t.test:1: hash-threshold argument should be a non-negative integer: 'lots'")
	assert.Contains(t, out, "3 values hashing to", "threshold is unchanged")
}

func TestRun_SkipIfOnlyIf(t *testing.T) {
	eng := testutil.NewEngine()

	script := "skipif fake\nstatement ok\nSKIPPED 1\n\n" +
		"onlyif other\nstatement ok\nSKIPPED 2\n\n" +
		"skipif other\nstatement ok\nRUN 1\n\n" +
		"onlyif FAKE\nstatement ok\nRUN 2\n\n" +
		"skipif other\nonlyif fake\nstatement ok\nRUN 3\n"

	result, diag, _ := runScript(t, eng, ModeVerify, script)

	assert.Equal(t, 0, result.Errors, diag)
	assert.Equal(t, 3, result.Statements)
	assert.Equal(t, []string{"RUN 1", "RUN 2", "RUN 3"}, eng.Executed())
}

func TestRun_SkippedRecordIsCopiedInCompletion(t *testing.T) {
	eng := testutil.NewEngine()
	script := "skipif fake\nquery I\nSELECT nothing\n----\n42\n\nstatement ok\nRUN\n\n"

	_, _, out := runScript(t, eng, ModeComplete, script)

	assert.Equal(t, script, out)
}

func TestRun_ConditionLineNumbers(t *testing.T) {
	eng := testutil.NewEngine()

	result, _, _ := runScript(t, eng, ModeVerify, "onlyif fake\nstatement error\nRUN\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, 2, result.Failures[0].Line, "reported at the record header")
}

func TestRun_Halt(t *testing.T) {
	eng := testutil.NewEngine()

	result, diag, _ := runScript(t, eng, ModeVerify, "statement ok\nBEFORE\n\nhalt\n\nstatement ok\nAFTER\n")

	assert.True(t, result.Halted)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, []string{"BEFORE"}, eng.Executed())
	assert.Equal(t, "t.test:4: halt\n", diag)
	assert.Equal(t, 1, eng.Disconnects(), "connection is closed after halt")
}

func TestRun_UnknownRecordAborts(t *testing.T) {
	eng := testutil.NewEngine()

	result, diag, _ := runScript(t, eng, ModeVerify, "frobnicate 3\n\nstatement ok\nAFTER\n")

	assert.True(t, result.Aborted)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, "t.test:1: unknown record type: 'frobnicate'\n", diag)
	assert.Empty(t, eng.Executed())
}

func TestRun_UnknownRecordSkipped(t *testing.T) {
	eng := testutil.NewEngine()

	result, _, _ := runScript(t, eng, ModeVerify, "frobnicate 3\nmore\n\nstatement ok\nAFTER\n", func(o *Options) {
		o.OnUnknown = SkipUnknown
	})

	assert.False(t, result.Aborted)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"AFTER"}, eng.Executed())
}

func TestRun_OneLiveResultSet(t *testing.T) {
	eng := testutil.NewEngine().
		AddQuery("SELECT 1", 1, "1").
		AddQuery("SELECT 2", 1, "2")

	runScript(t, eng, ModeVerify, "query I\nSELECT 1\n----\n1\n\nquery I\nSELECT 2\n----\n2\n\nquery I\nSELECT 1\n----\n9\n")

	assert.Equal(t, 1, eng.MaxLive())
	assert.Equal(t, 0, eng.Live(), "every result set is released")
}

func TestRun_ConnectionLifecycle(t *testing.T) {
	eng := testutil.NewEngine()

	runScript(t, eng, ModeVerify, "statement ok\nX\n", func(o *Options) {
		o.Connection = "file:custom.db"
	})

	assert.Equal(t, 1, eng.Connects())
	assert.Equal(t, 1, eng.Disconnects())
	assert.Equal(t, "file:custom.db", eng.LastConnection())
}

func TestRun_CommentsAndBlankRuns(t *testing.T) {
	eng := testutil.NewEngine().AddQuery("SELECT a FROM t", 1, "1")
	script := "# leading comment\n\n\n\nstatement ok\n# inside\nCREATE TABLE t(a)\n\n\n# between\n\nquery I\nSELECT a FROM t\n----\n1\n"

	result, diag, _ := runScript(t, eng, ModeVerify, script)

	assert.Equal(t, 0, result.Errors, diag)
	assert.Equal(t, []string{"CREATE TABLE t(a)", "SELECT a FROM t"}, eng.Executed())
}

func TestRun_CompletionIsIdempotent(t *testing.T) {
	eng := testutil.NewEngine().
		AddQuery("SELECT a, b FROM t", 2, "2", "y", "1", "x").
		AddQuery("SELECT c FROM t", 1, "hello")

	script := "# setup\nstatement ok\nCREATE TABLE t(a, b)\n\n" +
		"query IT rowsort\nSELECT a, b FROM t\n----\nstale\n\n" +
		"query T\nSELECT c FROM t\n"

	_, _, first := runScript(t, eng, ModeComplete, script)
	_, _, second := runScript(t, eng, ModeComplete, first)
	assert.Equal(t, first, second)

	assert.Equal(t, "# setup\nstatement ok\nCREATE TABLE t(a, b)\n\n"+
		"query IT rowsort\nSELECT a, b FROM t\n----\n1\nx\n2\ny\n\n"+
		"query T\nSELECT c FROM t\n----\nhello\n\n", first)

	result, diag, _ := runScript(t, eng, ModeVerify, first)
	assert.Equal(t, 0, result.Errors, diag)
}

func TestRun_VerifyModeWritesNothing(t *testing.T) {
	eng := testutil.NewEngine()

	_, _, out := runScript(t, eng, ModeVerify, "statement ok\nX\n")

	assert.Empty(t, out)
}

func TestRun_ConnectFailure(t *testing.T) {
	eng := testutil.NewEngine().FailConnect(errBoom)

	_, err := New(eng.Descriptor("fake"), Options{}).Run(context.Background(), "t.test", []byte("statement ok\nX\n"))

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "unable to connect to database")
}

func TestRun_DisconnectFailureCounts(t *testing.T) {
	eng := testutil.NewEngine().FailDisconnect(errBoom)

	result, diag, _ := runScript(t, eng, ModeVerify, "statement ok\nX\n")

	require.Equal(t, 1, result.Errors)
	assert.Equal(t, KindDisconnect, result.Failures[0].Kind)
	assert.Equal(t, "t.test: disconnection from database failed\n", diag)
}

func TestRun_CompletionGolden(t *testing.T) {
	eng := testutil.NewEngine().
		AddQuery("SELECT a, b FROM t1 ORDER BY a", 2, "1", "one", "2", "NULL", "3", "(empty)").
		AddQuery("SELECT b FROM t1", 1, "one", "NULL", "(empty)").
		AddQuery("SELECT a FROM t1", 1, "3", "1", "2").
		AddQuery("SELECT avg(a) FROM t1", 1, "2.000")

	script := "# basic table\n" +
		"statement ok\nCREATE TABLE t1(a INTEGER, b TEXT)\n\n" +
		"statement ok\nINSERT INTO t1 VALUES(1, 'one'), (2, NULL), (3, '')\n\n" +
		"query IT nosort\nSELECT a, b FROM t1 ORDER BY a\n\n" +
		"query T valuesort\nSELECT b FROM t1\n----\nout of date\n\n" +
		"hash-threshold 2\n\n" +
		"query I rowsort\nSELECT a FROM t1\n\n" +
		"query R\nSELECT avg(a) FROM t1\n"

	result := RunWithGolden(t, eng.Descriptor("fake"), "completion", []byte(script))
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 6, result.Statements)
}
