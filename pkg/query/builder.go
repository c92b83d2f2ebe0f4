// Package query provides the fluent query builder that dbassert assertions
// wrap. A Builder mutates in place and returns itself for chaining; Clone
// gives an independent copy.
//
//	q := query.Table(db, "orders").
//		Where("status", "paid").
//		WhereOp("total", ">=", 100)
package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/dbassert/internal/queryir"
	"github.com/roach88/dbassert/internal/querysql"
)

// Queryer runs queries. *sql.DB, *sql.Conn, *sql.Tx and *store.Store all
// satisfy it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Builder is a filterable, countable, executable query against one table.
type Builder struct {
	db       Queryer
	compiler *querysql.SQLCompiler
	sel      queryir.Select
}

// Table starts a query against the named table.
func Table(db Queryer, name string) *Builder {
	return &Builder{
		db:       db,
		compiler: querysql.NewSQLCompiler(),
		sel:      queryir.Select{From: name},
	}
}

// Base returns b itself. It lets a *Builder stand wherever a model query
// is accepted.
func (b *Builder) Base() *Builder {
	return b
}

// Where adds an equality filter joined with AND.
func (b *Builder) Where(field string, value any) *Builder {
	return b.add(queryir.Equals{Field: field, Value: value}, false)
}

// WhereOp adds a comparison filter joined with AND.
func (b *Builder) WhereOp(field, op string, value any) *Builder {
	return b.add(queryir.Compare{Field: field, Op: op, Value: value}, false)
}

// OrWhere adds a comparison filter joined with OR.
func (b *Builder) OrWhere(field, op string, value any) *Builder {
	return b.add(queryir.Compare{Field: field, Op: op, Value: value}, true)
}

// WhereIn adds a set membership filter.
func (b *Builder) WhereIn(field string, values ...any) *Builder {
	return b.add(queryir.In{Field: field, Values: append([]any(nil), values...)}, false)
}

// WhereNull adds an "is null" filter.
func (b *Builder) WhereNull(field string) *Builder {
	return b.add(queryir.IsNull{Field: field}, false)
}

// WhereNotNull adds an "is not null" filter.
func (b *Builder) WhereNotNull(field string) *Builder {
	return b.add(queryir.IsNull{Field: field, Not: true}, false)
}

// WhereRaw adds a literal SQL filter. It names no field.
func (b *Builder) WhereRaw(sql string, args ...any) *Builder {
	return b.add(queryir.Raw{SQL: sql, Args: append([]any(nil), args...)}, false)
}

// WhereGroup adds a parenthesized group built by fn. It names no field.
func (b *Builder) WhereGroup(fn func(*Builder)) *Builder {
	nested := Table(b.db, b.sel.From)
	fn(nested)
	return b.add(queryir.Group{Conditions: nested.sel.Where}, false)
}

func (b *Builder) add(p queryir.Predicate, or bool) *Builder {
	b.sel.Where = append(b.sel.Where, queryir.Condition{Pred: p, Or: or})
	return b
}

// Join adds an inner join on left <op> right.
func (b *Builder) Join(table, left, op, right string) *Builder {
	b.sel.Joins = append(b.sel.Joins, queryir.Join{Kind: queryir.InnerJoin, Table: table, Left: left, Op: op, Right: right})
	return b
}

// LeftJoin adds a left join on left <op> right.
func (b *Builder) LeftJoin(table, left, op, right string) *Builder {
	b.sel.Joins = append(b.sel.Joins, queryir.Join{Kind: queryir.LeftJoin, Table: table, Left: left, Op: op, Right: right})
	return b
}

// GroupBy appends grouping fields.
func (b *Builder) GroupBy(fields ...string) *Builder {
	b.sel.GroupBy = append(b.sel.GroupBy, fields...)
	return b
}

// Having adds a having comparison joined with AND.
func (b *Builder) Having(field, op string, value any) *Builder {
	b.sel.Having = append(b.sel.Having, queryir.Condition{Pred: queryir.Compare{Field: field, Op: op, Value: value}})
	return b
}

// HavingRaw adds a literal having clause, e.g. "count(*) > ?".
func (b *Builder) HavingRaw(sql string, args ...any) *Builder {
	b.sel.Having = append(b.sel.Having, queryir.Condition{Pred: queryir.Raw{SQL: sql, Args: append([]any(nil), args...)}})
	return b
}

// OrderBy appends an ordering term. dir is "asc" or "desc".
func (b *Builder) OrderBy(field, dir string) *Builder {
	b.sel.OrderBy = append(b.sel.OrderBy, queryir.Order{Field: field, Desc: dir == "desc" || dir == "DESC"})
	return b
}

// Limit caps the number of rows. 0 removes the cap.
func (b *Builder) Limit(n int) *Builder {
	b.sel.Limit = n
	return b
}

// Select replaces the projection. No fields selects every column.
func (b *Builder) Select(fields ...string) *Builder {
	if len(fields) == 0 {
		b.sel.Fields = nil
		return b
	}
	b.sel.Fields = append([]string(nil), fields...)
	return b
}

// TableName returns the table the query reads from.
func (b *Builder) TableName() string {
	return b.sel.From
}

// Columns returns a copy of the projection.
func (b *Builder) Columns() []string {
	return append([]string(nil), b.sel.Fields...)
}

// Conditions returns a copy of the ordered filter list.
func (b *Builder) Conditions() []queryir.Condition {
	return queryir.CloneConditions(b.sel.Where)
}

// Joins returns a copy of the join clauses.
func (b *Builder) Joins() []queryir.Join {
	return queryir.Clone(b.sel).Joins
}

// Groups returns a copy of the grouping fields.
func (b *Builder) Groups() []string {
	return append([]string(nil), b.sel.GroupBy...)
}

// Havings returns a copy of the having clauses.
func (b *Builder) Havings() []queryir.Condition {
	return queryir.CloneConditions(b.sel.Having)
}

// Bindings returns the parameters the query binds, in placeholder order.
func (b *Builder) Bindings() ([]any, error) {
	_, params, err := b.compiler.Compile(b.sel)
	return params, err
}

// Clone returns an independent copy bound to the same database.
func (b *Builder) Clone() *Builder {
	return &Builder{
		db:       b.db,
		compiler: b.compiler,
		sel:      queryir.Clone(b.sel),
	}
}

// BaseScan returns a copy reduced to an unfiltered scan of the table:
// filters, joins, grouping and having clauses are dropped along with their
// bindings, and so are selected or ordered columns of joined tables.
// b is not modified.
func (b *Builder) BaseScan() *Builder {
	return &Builder{
		db:       b.db,
		compiler: b.compiler,
		sel:      queryir.BaseScan(b.sel),
	}
}

// ToSQL compiles the query to parameterized SQL.
func (b *Builder) ToSQL() (string, []any, error) {
	return b.compiler.Compile(b.sel)
}

// ToRawSQL compiles the query with its bindings interpolated, for display.
func (b *Builder) ToRawSQL() (string, error) {
	sql, params, err := b.compiler.Compile(b.sel)
	if err != nil {
		return "", err
	}
	return querysql.Interpolate(sql, params), nil
}

// Exists reports whether the query returns at least one row.
// Driver errors are returned unmodified.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	q, args, err := b.compiler.CompileExists(b.sel)
	if err != nil {
		return false, fmt.Errorf("compile exists: %w", err)
	}
	var exists bool
	if err := b.scalar(ctx, &exists, q, args); err != nil {
		return false, err
	}
	return exists, nil
}

// DoesntExist reports whether the query returns no rows.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	exists, err := b.Exists(ctx)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Count returns the number of rows the query returns.
// Driver errors are returned unmodified.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	q, args, err := b.compiler.CompileCount(b.sel)
	if err != nil {
		return 0, fmt.Errorf("compile count: %w", err)
	}
	var n int64
	if err := b.scalar(ctx, &n, q, args); err != nil {
		return 0, err
	}
	return n, nil
}

// Get returns every row the query returns.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	q, args, err := b.compiler.Compile(b.sel)
	if err != nil {
		return nil, fmt.Errorf("compile select: %w", err)
	}
	return b.fetch(ctx, q, args)
}

// Lazy returns a deferred view of the rows. Nothing runs until Count or
// Take is called. The view is detached from later changes to b.
func (b *Builder) Lazy() *LazyRows {
	return &LazyRows{b: b.Clone()}
}

// scalar runs a single-value query and closes the cursor before returning.
func (b *Builder) scalar(ctx context.Context, dest any, q string, args []any) error {
	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest); err != nil {
		return err
	}
	return rows.Err()
}

// fetch materializes every row of q and closes the cursor before returning.
func (b *Builder) fetch(ctx context.Context, q string, args []any) ([]Row, error) {
	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LazyRows is a deferred, bounded row fetch.
type LazyRows struct {
	b *Builder
}

// Count returns the total number of rows without materializing them.
func (l *LazyRows) Count(ctx context.Context) (int64, error) {
	return l.b.Count(ctx)
}

// Take materializes at most n rows. n <= 0 returns an empty slice without
// touching the database.
func (l *LazyRows) Take(ctx context.Context, n int) ([]Row, error) {
	if n <= 0 {
		return []Row{}, nil
	}

	sel := queryir.Clone(l.b.sel)
	if sel.Limit == 0 || sel.Limit > n {
		sel.Limit = n
	}
	q, args, err := l.b.compiler.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile select: %w", err)
	}
	return l.b.fetch(ctx, q, args)
}
