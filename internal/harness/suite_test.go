package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSuite writes content to a file named name in a temp dir.
func writeSuite(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSuite_YAML(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/orders.yaml")
	require.NoError(t, err)

	assert.Equal(t, "orders_smoke", suite.Name)
	assert.Len(t, suite.Fixtures, 2)
	require.Len(t, suite.Checks, 6)

	count := suite.Checks[2]
	assert.Equal(t, VerbCount, count.Verb)
	require.NotNil(t, count.Count)
	assert.Equal(t, int64(2), *count.Count)

	filtered := suite.Checks[3]
	require.Len(t, filtered.Filters, 1)
	assert.Equal(t, Filter{Field: "total", Op: ">", Value: 20}, filtered.Filters[0])

	require.NotNil(t, suite.Checks[4].Show)
	assert.Equal(t, 2, *suite.Checks[4].Show)
}

func TestLoadSuite_CUE(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/orders.cue")
	require.NoError(t, err)

	assert.Equal(t, "orders_cue", suite.Name)
	require.Len(t, suite.Checks, 2)
	assert.Equal(t, "orders", suite.Checks[0].Table)
	assert.Equal(t, "paid", suite.Checks[0].Where["status"])
	assert.Equal(t, ">=", suite.Checks[1].Comparator)
	assert.Equal(t, []string{"id", "status"}, suite.Checks[1].Fields)
	require.NotNil(t, suite.Checks[1].Count)
	assert.Equal(t, int64(1), *suite.Checks[1].Count)
}

func TestLoadSuite_CUEIncomplete(t *testing.T) {
	path := writeSuite(t, "bad.cue", `
name: string
checks: [{name: "x", table: "t", verb: "exists"}]
`)

	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not concrete")
}

func TestLoadSuite_MissingFile(t *testing.T) {
	_, err := LoadSuite("/nonexistent/suite.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read suite file")
}

func TestLoadSuite_UnsupportedExtension(t *testing.T) {
	path := writeSuite(t, "suite.json", `{}`)

	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported suite format")
}

func TestLoadSuite_UnknownField(t *testing.T) {
	path := writeSuite(t, "suite.yaml", `
name: typo
check:
  - name: x
    table: t
    verb: exists
`)

	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadSuite_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "checks: [{name: x, table: t, verb: exists}]",
			wantErr: "name is required",
		},
		{
			name:    "no checks",
			content: "name: s",
			wantErr: "checks list is required",
		},
		{
			name:    "check without name",
			content: "name: s\nchecks: [{table: t, verb: exists}]",
			wantErr: "checks[0]: name is required",
		},
		{
			name:    "check without table",
			content: "name: s\nchecks: [{name: x, verb: exists}]",
			wantErr: "checks[0]: table is required",
		},
		{
			name:    "missing verb",
			content: "name: s\nchecks: [{name: x, table: t}]",
			wantErr: "checks[0]: verb is required",
		},
		{
			name:    "unknown verb",
			content: "name: s\nchecks: [{name: x, table: t, verb: present}]",
			wantErr: `unknown verb "present"`,
		},
		{
			name:    "count without count",
			content: "name: s\nchecks: [{name: x, table: t, verb: count}]",
			wantErr: "count is required",
		},
		{
			name:    "count on exists",
			content: "name: s\nchecks: [{name: x, table: t, verb: exists, count: 1}]",
			wantErr: "count is only valid",
		},
		{
			name:    "unknown comparator",
			content: "name: s\nchecks: [{name: x, table: t, verb: count, count: 1, comparator: '=~'}]",
			wantErr: `unknown comparator "=~"`,
		},
		{
			name:    "bad filter operator",
			content: "name: s\nchecks: [{name: x, table: t, verb: exists, filters: [{field: a, op: between, value: 1}]}]",
			wantErr: `checks[0].filters[0]: unsupported operator "between"`,
		},
		{
			name:    "negative show",
			content: "name: s\nchecks: [{name: x, table: t, verb: exists, show: -1}]",
			wantErr: "show must be non-negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSuite(writeSuite(t, "suite.yaml", tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid suite")
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
