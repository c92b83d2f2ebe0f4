// Package queryir provides the intermediate representation behind the
// dbassert query builder.
//
// A Select is a plain value describing one table access: projection, joins,
// an ordered list of filter conditions, grouping, having clauses, ordering
// and an optional limit. Builders mutate a Select; the SQL backend compiles
// it; the assertion core inspects and transforms it.
//
//	[query.Builder] → [queryir.Select] → [querysql.SQLCompiler] → SQL + params
//
// # Sealed Predicates
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, which keeps type switches in the
// compiler exhaustive.
//
// # Named and Unnamed Conditions
//
// Column predicates (Equals, Compare, In, IsNull) target a single field and
// report it through FieldOf. Structural predicates (And, Group, Raw) target
// no single field and report "". The assertion core uses this to infer the
// columns worth showing in a failure report.
//
// # Transforms
//
// Clone and BaseScan are pure. Clone deep-copies every slice so the copy can
// be mutated without aliasing the original. BaseScan reduces a Select to an
// unfiltered scan of its table: filters, joins, grouping and having clauses
// are removed together with the parameters they would have bound.
package queryir
