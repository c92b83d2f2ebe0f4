package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsWellFormedSelect(t *testing.T) {
	require.NoError(t, Validate(sampleSelect()))
	require.NoError(t, Validate(Select{From: "users", Fields: []string{"*", "users.*"}}))
}

func TestValidate_RejectsBadIdentifiers(t *testing.T) {
	testCases := []struct {
		name    string
		sel     Select
		problem string
	}{
		{
			name:    "missing table",
			sel:     Select{},
			problem: "table name is required",
		},
		{
			name:    "injected table",
			sel:     Select{From: "users; drop table users"},
			problem: `from: invalid identifier "users; drop table users"`,
		},
		{
			name:    "bad field",
			sel:     Select{From: "users", Fields: []string{"na me"}},
			problem: `fields[0]: invalid identifier "na me"`,
		},
		{
			name: "bad operator",
			sel: Select{From: "users", Where: []Condition{
				{Pred: Compare{Field: "age", Op: "=>", Value: 1}},
			}},
			problem: `where[0]: unsupported operator "=>"`,
		},
		{
			name: "nested bad field",
			sel: Select{From: "users", Where: []Condition{
				{Pred: Group{Conditions: []Condition{{Pred: Equals{Field: "1x"}}}}},
			}},
			problem: `where[0].group[0]: invalid identifier "1x"`,
		},
		{
			name:    "empty raw",
			sel:     Select{From: "users", Having: []Condition{{Pred: Raw{SQL: "  "}}}},
			problem: "having[0]: raw predicate has no SQL",
		},
		{
			name:    "bad join kind",
			sel:     Select{From: "users", Joins: []Join{{Kind: "cross", Table: "t", Left: "a", Op: "=", Right: "b"}}},
			problem: `joins[0]: unsupported join kind "cross"`,
		},
		{
			name:    "negative limit",
			sel:     Select{From: "users", Limit: -1},
			problem: "limit: must not be negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.sel)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tc.problem)
		})
	}
}

func TestValidOperator_CaseInsensitive(t *testing.T) {
	assert.True(t, ValidOperator("LIKE"))
	assert.True(t, ValidOperator("not like"))
	assert.False(t, ValidOperator("~"))
}
