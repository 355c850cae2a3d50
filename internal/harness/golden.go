package harness

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqllogictest/internal/engine"
)

// RunWithGolden completes a script against desc and compares the completed
// script with a golden file. The golden file is stored in
// testdata/golden/{name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the reference output of completion mode. Because a
// completed script verifies against the engine that produced it, each
// golden file doubles as a verify-mode fixture.
func RunWithGolden(t *testing.T, desc engine.Descriptor, name string, text []byte) *Result {
	t.Helper()

	var out bytes.Buffer
	runner := New(desc, Options{
		Mode: ModeComplete,
		Out:  &out,
	})
	result, err := runner.Run(context.Background(), name+".test", text)
	require.NoError(t, err)

	AssertGolden(t, name, out.Bytes())
	return result
}

// AssertGolden compares completed script text against
// testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, completed []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, completed)
}
