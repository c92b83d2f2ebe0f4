package dbassert

import (
	"context"
	"fmt"

	"github.com/roach88/dbassert/pkg/query"
)

// Comparator compares an actual row count against an expected one.
type Comparator string

// Accepted comparators. Anything else behaves as Equal.
const (
	Equal          Comparator = "=="
	NotEqual       Comparator = "!="
	NotIdentical   Comparator = "!=="
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
)

// Normalize maps unknown or empty comparators to Equal.
func (c Comparator) Normalize() Comparator {
	switch c {
	case NotEqual, NotIdentical, Greater, GreaterOrEqual, Less, LessOrEqual, Equal:
		return c
	default:
		return Equal
	}
}

// Compare applies the comparator to actual and expected.
func (c Comparator) Compare(actual, expected int64) bool {
	switch c.Normalize() {
	case Greater:
		return actual > expected
	case GreaterOrEqual:
		return actual >= expected
	case Less:
		return actual < expected
	case LessOrEqual:
		return actual <= expected
	case NotEqual, NotIdentical:
		return actual != expected
	default:
		return actual == expected
	}
}

// Constraint is the predicate an Assertion evaluates.
//
// This is a sealed interface. Variants:
//   - RowExists: the query returns at least one row
//   - RowMissing: the query returns no rows
//   - CountCompare: the row count compares to Expected under Op
type Constraint interface {
	constraintNode()
}

// RowExists holds when the query returns at least one row.
type RowExists struct{}

func (RowExists) constraintNode() {}

// RowMissing holds when the query returns no rows.
type RowMissing struct{}

func (RowMissing) constraintNode() {}

// CountCompare holds when Op(actual, Expected) is true.
type CountCompare struct {
	Op       Comparator
	Expected int64
}

func (CountCompare) constraintNode() {}

// concrete dereferences pointer variants so type switches see values.
func concrete(c Constraint) Constraint {
	switch con := c.(type) {
	case *RowExists:
		if con != nil {
			return *con
		}
	case *RowMissing:
		if con != nil {
			return *con
		}
	case *CountCompare:
		if con != nil {
			return *con
		}
	default:
		return c
	}
	return nil
}

// outcome is the result of evaluating a constraint. actual is only
// meaningful for CountCompare.
type outcome struct {
	held   bool
	actual int64
}

// evaluate runs the constraint against the live query.
func evaluate(ctx context.Context, c Constraint, q *query.Builder) (outcome, error) {
	switch con := c.(type) {
	case RowExists:
		ok, err := q.Exists(ctx)
		return outcome{held: ok}, err
	case RowMissing:
		ok, err := q.DoesntExist(ctx)
		return outcome{held: ok}, err
	case CountCompare:
		n, err := q.Count(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{held: con.Op.Compare(n, con.Expected), actual: n}, nil
	default:
		return outcome{}, fmt.Errorf("unsupported constraint type: %T", c)
	}
}

// headline describes a failed constraint.
func headline(c Constraint, table string, actual int64, rendered string) string {
	switch con := c.(type) {
	case RowMissing:
		return fmt.Sprintf("a row in the table [%s] does not match the query: %s", table, rendered)
	case CountCompare:
		return fmt.Sprintf("table [%s] actual count of %d is %s expected count of %d: %s",
			table, actual, con.Op.Normalize(), con.Expected, rendered)
	default:
		return fmt.Sprintf("a row in the table [%s] matches the query: %s", table, rendered)
	}
}

// strips reports whether the diagnostic query drops the original filters.
// Missing keeps them: the rows worth showing are the ones that matched.
func strips(c Constraint) bool {
	_, missing := c.(RowMissing)
	return !missing
}

// label is a short description used in log records.
func label(c Constraint) string {
	switch con := c.(type) {
	case RowExists:
		return "exists"
	case RowMissing:
		return "missing"
	case CountCompare:
		return fmt.Sprintf("count %s %d", con.Op.Normalize(), con.Expected)
	default:
		return fmt.Sprintf("%T", c)
	}
}
