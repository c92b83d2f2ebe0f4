package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dbassert/internal/store"
	"github.com/roach88/dbassert/internal/testutil"
)

// seedDB creates a file database holding three orders: two paid, one open.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.ApplyFixtures(context.Background(),
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT, total INTEGER)",
		"INSERT INTO orders (id, status, total) VALUES (1, 'paid', 10), (2, 'open', 25), (3, 'paid', 40)",
	))
	require.NoError(t, st.Close())

	return path
}

// execute runs the root command with a fixed run ID and returns stdout,
// stderr and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{RunIDs: testutil.NewFixedRunID("run-1")})
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
