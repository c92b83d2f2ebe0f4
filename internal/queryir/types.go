package queryir

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = value
//   - Compare: field <op> value
//   - In: field in (values...)
//   - IsNull: field is [not] null
//   - And: all predicates must be true
//   - Group: a parenthesized list of and/or conditions
//   - Raw: literal SQL fragment with its own parameters
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals represents a field-equals-value predicate.
//
//	"status" = ?
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Compare represents a binary comparison against a literal value.
// Op must be one of the operators accepted by Validate.
//
//	"age" >= ?
type Compare struct {
	Field string
	Op    string
	Value any
}

func (Compare) predicateNode() {}

// In represents a set membership test.
// An empty Values slice never matches.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// IsNull represents a null test. Not flips it to "is not null".
type IsNull struct {
	Field string
	Not   bool
}

func (IsNull) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates means "always true" (vacuous truth).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Group represents a nested, parenthesized condition list.
// Used for where(function ($q) {...})-style nesting.
type Group struct {
	Conditions []Condition
}

func (Group) predicateNode() {}

// Raw is a literal SQL fragment. It targets no named field.
type Raw struct {
	SQL  string
	Args []any
}

func (Raw) predicateNode() {}

// Condition is one entry of an ordered filter list.
// Or joins it to the previous entry with OR instead of AND; it is ignored
// on the first entry.
type Condition struct {
	Pred Predicate
	Or   bool
}

// JoinKind selects the join flavour.
type JoinKind string

const (
	InnerJoin JoinKind = "inner"
	LeftJoin  JoinKind = "left"
)

// Join represents a join clause on a column comparison.
//
//	inner join "orders" on "users"."id" = "orders"."user_id"
type Join struct {
	Kind  JoinKind
	Table string
	Left  string
	Op    string
	Right string
}

// Order is a single ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Select represents one table access.
//
//	SELECT <fields> FROM <from> <joins> WHERE <where> GROUP BY <group_by>
//	HAVING <having> ORDER BY <order_by> LIMIT <limit>
//
// Empty Fields selects every column. Limit 0 means no limit.
type Select struct {
	From    string
	Fields  []string
	Joins   []Join
	Where   []Condition
	GroupBy []string
	Having  []Condition
	OrderBy []Order
	Limit   int
}
