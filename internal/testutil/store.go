package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dbassert/internal/store"
)

// NewStore opens a private in-memory database, applies stmts in order and
// closes the database when the test ends.
func NewStore(t testing.TB, stmts ...string) *store.Store {
	t.Helper()

	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err, "open in-memory store")
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.ApplyFixtures(context.Background(), stmts...), "apply fixtures")
	return st
}
