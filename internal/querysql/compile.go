// Package querysql compiles queryir selects to parameterized SQLite SQL and
// renders them back into display text.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/dbassert/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Keywords are emitted in lowercase and identifiers are double-quoted:
//
//	select "id" from "users" where "status" = ? and "age" > ?
//
// All values are parameterized, never interpolated. Interpolate exists for
// display only.
type SQLCompiler struct {
	// CountAlias names the column produced by CompileCount.
	CountAlias string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{CountAlias: "aggregate"}
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(s queryir.Select) (string, []any, error) {
	if err := queryir.Validate(s); err != nil {
		return "", nil, err
	}
	return c.compileSelect(s)
}

// CompileCount converts a Select to a row-count query.
// Grouped or limited selects are counted through a subquery so the count
// matches the number of rows the select would return.
func (c *SQLCompiler) CompileCount(s queryir.Select) (string, []any, error) {
	if err := queryir.Validate(s); err != nil {
		return "", nil, err
	}

	alias := quoteIdent(c.countAlias())
	if len(s.GroupBy) > 0 || len(s.Having) > 0 || s.Limit > 0 {
		inner, params, err := c.compileSelect(s)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf(`select count(*) as %s from (%s) as "sub"`, alias, inner), params, nil
	}

	flat := s
	flat.Fields = nil
	flat.OrderBy = nil
	body, params, err := c.compileBody(flat)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("select count(*) as %s from %s", alias, body), params, nil
}

// CompileExists converts a Select to a single-row, single-column query
// yielding 1 when the select returns any row and 0 otherwise.
func (c *SQLCompiler) CompileExists(s queryir.Select) (string, []any, error) {
	if err := queryir.Validate(s); err != nil {
		return "", nil, err
	}

	inner := s
	inner.OrderBy = nil
	sql, params, err := c.compileSelect(inner)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf(`select exists(%s) as "exists"`, sql), params, nil
}

func (c *SQLCompiler) countAlias() string {
	if c.CountAlias == "" {
		return "aggregate"
	}
	return c.CountAlias
}

// compileSelect assumes s has been validated.
func (c *SQLCompiler) compileSelect(s queryir.Select) (string, []any, error) {
	body, params, err := c.compileBody(s)
	if err != nil {
		return "", nil, err
	}

	sql := "select " + compileFields(s.Fields) + " from " + body

	if len(s.OrderBy) > 0 {
		terms := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			terms[i] = quoteIdent(o.Field) + " " + dir
		}
		sql += " order by " + strings.Join(terms, ", ")
	}

	if s.Limit > 0 {
		sql += fmt.Sprintf(" limit %d", s.Limit)
	}

	return sql, params, nil
}

// compileBody renders everything from the table name through HAVING.
func (c *SQLCompiler) compileBody(s queryir.Select) (string, []any, error) {
	var buf strings.Builder
	var params []any

	buf.WriteString(quoteIdent(s.From))

	for _, j := range s.Joins {
		fmt.Fprintf(&buf, " %s join %s on %s %s %s",
			j.Kind, quoteIdent(j.Table), quoteIdent(j.Left), strings.ToLower(j.Op), quoteIdent(j.Right))
	}

	if len(s.Where) > 0 {
		sql, whereParams, err := c.compileConditions(s.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		buf.WriteString(" where " + sql)
		params = append(params, whereParams...)
	}

	if len(s.GroupBy) > 0 {
		groups := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			groups[i] = quoteIdent(g)
		}
		buf.WriteString(" group by " + strings.Join(groups, ", "))
	}

	if len(s.Having) > 0 {
		sql, havingParams, err := c.compileConditions(s.Having)
		if err != nil {
			return "", nil, fmt.Errorf("compile having: %w", err)
		}
		buf.WriteString(" having " + sql)
		params = append(params, havingParams...)
	}

	return buf.String(), params, nil
}

// compileConditions joins an ordered condition list with and/or.
func (c *SQLCompiler) compileConditions(conds []queryir.Condition) (string, []any, error) {
	var buf strings.Builder
	var params []any

	for i, cond := range conds {
		sql, condParams, err := c.compilePredicate(cond.Pred)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			if cond.Or {
				buf.WriteString(" or ")
			} else {
				buf.WriteString(" and ")
			}
		}
		buf.WriteString(sql)
		params = append(params, condParams...)
	}

	return buf.String(), params, nil
}

// compilePredicate compiles a queryir.Predicate to a SQL fragment.
// Values are never interpolated - always ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return quoteIdent(pred.Field) + " = ?", []any{pred.Value}, nil
	case *queryir.Equals:
		return quoteIdent(pred.Field) + " = ?", []any{pred.Value}, nil
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.IsNull:
		return compileIsNull(pred), nil, nil
	case *queryir.IsNull:
		return compileIsNull(*pred), nil, nil
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case queryir.Group:
		return c.compileGroup(pred)
	case *queryir.Group:
		return c.compileGroup(*pred)
	case queryir.Raw:
		return pred.SQL, append([]any(nil), pred.Args...), nil
	case *queryir.Raw:
		return pred.SQL, append([]any(nil), pred.Args...), nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	return fmt.Sprintf("%s %s ?", quoteIdent(cmp.Field), strings.ToLower(cmp.Op)), []any{cmp.Value}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil // Empty set never matches
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
	return fmt.Sprintf("%s in (%s)", quoteIdent(in.Field), marks), append([]any(nil), in.Values...), nil
}

func compileIsNull(n queryir.IsNull) string {
	if n.Not {
		return quoteIdent(n.Field) + " is not null"
	}
	return quoteIdent(n.Field) + " is null"
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Vacuous truth
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	return "(" + strings.Join(parts, " and ") + ")", params, nil
}

func (c *SQLCompiler) compileGroup(g queryir.Group) (string, []any, error) {
	if len(g.Conditions) == 0 {
		return "1 = 1", nil, nil
	}
	sql, params, err := c.compileConditions(g.Conditions)
	if err != nil {
		return "", nil, err
	}
	return "(" + sql + ")", params, nil
}

// compileFields converts the projection to a column list.
// Empty projection selects every column.
func compileFields(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = quoteIdent(f)
	}
	return strings.Join(parts, ", ")
}

// quoteIdent double-quotes each dot-separated part of a validated
// identifier. A bare or trailing "*" is left as is.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
