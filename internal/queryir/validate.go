package queryir

import (
	"fmt"
	"regexp"
	"strings"
)

// validIdentifier matches table and column names, optionally qualified
// ("orders.status") or a qualified wildcard ("orders.*").
// Identifiers are interpolated into SQL, so nothing else is accepted.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.([A-Za-z_][A-Za-z0-9_]*|\*))?$`)

// operators lists the comparison operators the SQL backend can render.
var operators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	"<=":       true,
	">":        true,
	">=":       true,
	"like":     true,
	"not like": true,
}

// ValidOperator reports whether op is an accepted comparison operator.
func ValidOperator(op string) bool {
	return operators[strings.ToLower(op)]
}

// ValidationError lists every problem found in a Select.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks that every identifier and operator in s is safe to render.
//
// Validate is a pure function with no side effects. It returns nil or a
// *ValidationError listing all problems.
func Validate(s Select) error {
	v := &validator{}
	v.validateSelect(s)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) identifier(context, name string) {
	if !validIdentifier.MatchString(name) {
		v.addProblem("%s: invalid identifier %q", context, name)
	}
}

func (v *validator) operator(context, op string) {
	if !ValidOperator(op) {
		v.addProblem("%s: unsupported operator %q", context, op)
	}
}

func (v *validator) validateSelect(s Select) {
	if s.From == "" {
		v.addProblem("from: table name is required")
	} else {
		v.identifier("from", s.From)
	}
	for i, f := range s.Fields {
		if f == "*" {
			continue
		}
		v.identifier(fmt.Sprintf("fields[%d]", i), f)
	}
	for i, j := range s.Joins {
		ctx := fmt.Sprintf("joins[%d]", i)
		if j.Kind != InnerJoin && j.Kind != LeftJoin {
			v.addProblem("%s: unsupported join kind %q", ctx, j.Kind)
		}
		v.identifier(ctx, j.Table)
		v.identifier(ctx, j.Left)
		v.identifier(ctx, j.Right)
		v.operator(ctx, j.Op)
	}
	v.validateConditions("where", s.Where)
	for i, g := range s.GroupBy {
		v.identifier(fmt.Sprintf("group_by[%d]", i), g)
	}
	v.validateConditions("having", s.Having)
	for i, o := range s.OrderBy {
		v.identifier(fmt.Sprintf("order_by[%d]", i), o.Field)
	}
	if s.Limit < 0 {
		v.addProblem("limit: must not be negative, got %d", s.Limit)
	}
}

func (v *validator) validateConditions(context string, conds []Condition) {
	for i, c := range conds {
		v.validatePredicate(fmt.Sprintf("%s[%d]", context, i), c.Pred)
	}
}

func (v *validator) validatePredicate(context string, p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("%s: nil predicate", context)
	case Equals:
		v.identifier(context, pred.Field)
	case *Equals:
		v.identifier(context, pred.Field)
	case Compare:
		v.identifier(context, pred.Field)
		v.operator(context, pred.Op)
	case *Compare:
		v.identifier(context, pred.Field)
		v.operator(context, pred.Op)
	case In:
		v.identifier(context, pred.Field)
	case *In:
		v.identifier(context, pred.Field)
	case IsNull:
		v.identifier(context, pred.Field)
	case *IsNull:
		v.identifier(context, pred.Field)
	case And:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.and[%d]", context, i), sub)
		}
	case *And:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.and[%d]", context, i), sub)
		}
	case Group:
		v.validateConditions(context+".group", pred.Conditions)
	case *Group:
		v.validateConditions(context+".group", pred.Conditions)
	case Raw:
		if strings.TrimSpace(pred.SQL) == "" {
			v.addProblem("%s: raw predicate has no SQL", context)
		}
	case *Raw:
		if strings.TrimSpace(pred.SQL) == "" {
			v.addProblem("%s: raw predicate has no SQL", context)
		}
	default:
		v.addProblem("%s: unknown predicate type %T", context, p)
	}
}
