// Package dbassert asserts on the rows of a database table from Go tests.
//
// An Assertion wraps a query built with package query and evaluates one
// constraint against it: the query matches at least one row, matches none,
// or matches a number of rows that compares to an expected count.
//
//	dbassert.New(t, query.Table(db, "orders").Where("status", "paid")).
//		Show(5).
//		CountIs(10, dbassert.GreaterOrEqual)
//
// When the constraint does not hold the failure carries two parts. The
// headline names the table, the comparison and the rendered query. The
// detail shows what the table actually contains: a bounded sample of rows
// from a diagnostic copy of the query. For Exists and CountIs the copy is
// stripped of filters, joins, grouping and having clauses so the sample
// shows the whole table; for Missing it keeps the filters so the sample
// shows the rows that matched unexpectedly. The sample projects the columns
// the original filters referenced unless Fields overrides them; a stripped
// copy leaves out columns and orderings of joined tables.
//
// The caller's query is never modified.
package dbassert
