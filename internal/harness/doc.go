// Package harness runs suites of database checks outside of go test.
//
// # Suite Format
//
// Suites are YAML (.yaml, .yml) or CUE (.cue) files with the following
// structure:
//
//	name: orders_smoke
//	description: "Orders table invariants"
//	database: ./app.db          # optional; empty runs in memory
//	fixtures:
//	  - CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT)
//	checks:
//	  - name: paid orders exist
//	    table: orders
//	    verb: exists
//	    where: { status: paid }
//	  - name: few open orders
//	    table: orders
//	    verb: count
//	    where: { status: open }
//	    filters:
//	      - { field: id, op: ">", value: 100 }
//	    count: 10
//	    comparator: "<"
//	    show: 5
//	    fields: [id, status]
//
// # Verbs
//
//   - exists: the query matches at least one row
//   - missing: the query matches no rows
//   - count: the row count compares to count under comparator; an
//     unknown comparator fails validation
//   - empty: the row count is zero
//
// Every check is evaluated through dbassert.Assertion.Verify, so a failing
// check carries the same report a failing test would print.
//
// # Usage
//
//	suite, err := harness.LoadSuite("checks/orders.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, st, suite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Render())
package harness
