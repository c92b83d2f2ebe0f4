package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dbassert/internal/testutil"
)

// RunWithGolden executes a suite against a fresh in-memory database and
// compares the rendered report against testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the suite cannot execute.
// Test failure (via goldie) occurs if the report doesn't match.
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	st := testutil.NewStore(t)
	result, err := Run(context.Background(), st, suite)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, suite.Name, result)
	return result, nil
}

// AssertGolden compares the result's rendered report against a golden file.
// Useful when a suite has already run against a caller-managed store.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Render()))
}
