package dbassert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/dbassert/internal/queryir"
	"github.com/roach88/dbassert/pkg/query"
)

// DefaultShow is the number of sample rows a failure shows by default.
const DefaultShow = 3

// TestingT is the part of *testing.T an Assertion reports through.
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
}

type tHelper interface {
	Helper()
}

// Source is anything that can hand over a base query: a *query.Builder or
// a *query.Model.
type Source interface {
	Base() *query.Builder
}

// DebugFunc shapes the diagnostic query before the sample is fetched. It
// receives a copy; the query under test is never passed to it.
type DebugFunc func(*query.Builder) *query.Builder

// Failure is returned by Verify when a constraint does not hold.
type Failure struct {
	Table    string // Subject under test
	Headline string // What was expected, with the rendered query
	Detail   string // Empty-table notice, row sample or sample error; starts with "\n"
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Headline + f.Detail
}

// Assertion evaluates one constraint against one query.
// Configure it with the chained setters, then call exactly one verb.
type Assertion struct {
	t      TestingT
	query  *query.Builder
	ctx    context.Context
	logger *slog.Logger
	show   int
	debug  DebugFunc
	fields []string
}

// New wraps q for assertion. A model query is reduced to its base query.
// t may be nil when the assertion is only evaluated through Verify.
func New(t TestingT, q Source) *Assertion {
	return &Assertion{
		t:      t,
		query:  q.Base(),
		ctx:    context.Background(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		show:   DefaultShow,
	}
}

// Show sets how many sample rows a failure includes. 0 shows none;
// negative values are treated as 0.
func (a *Assertion) Show(n int) *Assertion {
	a.show = max(n, 0)
	return a
}

// Debug installs fn to shape the diagnostic query. nil clears it.
func (a *Assertion) Debug(fn DebugFunc) *Assertion {
	a.debug = fn
	return a
}

// Fields sets the columns shown in the failure sample, overriding the
// columns inferred from the query's filters. No fields restores inference.
func (a *Assertion) Fields(fields ...string) *Assertion {
	a.fields = append([]string(nil), fields...)
	return a
}

// WithContext sets the context queries run under.
func (a *Assertion) WithContext(ctx context.Context) *Assertion {
	a.ctx = ctx
	return a
}

// WithLogger sets the logger for evaluation records.
func (a *Assertion) WithLogger(logger *slog.Logger) *Assertion {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Exists asserts the query matches at least one row.
func (a *Assertion) Exists() bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.assert(RowExists{})
}

// Missing asserts the query matches no rows.
func (a *Assertion) Missing() bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.assert(RowMissing{})
}

// CountIs asserts op(actual count, expected) holds. An empty or unknown
// op compares with Equal.
func (a *Assertion) CountIs(expected int64, op Comparator) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.assert(CountCompare{Op: op, Expected: expected})
}

// Empty asserts the query matches no rows, stated as a count.
func (a *Assertion) Empty() bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.assert(CountCompare{Op: Equal, Expected: 0})
}

func (a *Assertion) assert(c Constraint) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}

	err := a.Verify(c)
	if err == nil {
		return true
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return assert.Fail(a.t, failure.Error(), "table [%s]", failure.Table)
	}
	require.NoError(a.t, err)
	return false
}

// Verify evaluates c. It returns nil when c holds, a *Failure when it does
// not, and any error from evaluating c unmodified. An error while fetching
// the sample still yields a *Failure, with the error in its Detail.
func (a *Assertion) Verify(c Constraint) error {
	c = concrete(c)
	table := a.query.TableName()

	out, err := evaluate(a.ctx, c, a.query)
	if err != nil {
		return err
	}
	a.logger.Debug("constraint evaluated",
		"table", table,
		"constraint", label(c),
		"held", out.held,
	)
	if out.held {
		return nil
	}

	detail, err := a.additionalDescription(c, table)
	if err != nil {
		a.logger.Warn("diagnostic query failed", "table", table, "error", err)
		detail = fmt.Sprintf("\nThe sample could not be loaded: %v", err)
	}

	return &Failure{
		Table:    table,
		Headline: headline(c, table, out.actual, a.String()),
		Detail:   detail,
	}
}

// additionalDescription builds the failure detail from a diagnostic copy
// of the query.
func (a *Assertion) additionalDescription(c Constraint, table string) (string, error) {
	diag := a.query.Clone()
	if strips(c) {
		diag = diag.BaseScan()
	}

	exists, err := diag.Exists(a.ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		return fmt.Sprintf("\nThe table [%s] is empty.", table), nil
	}

	if a.debug != nil {
		if shaped := a.debug(diag); shaped != nil {
			diag = shaped
		}
	}

	fields := a.projection()
	if strips(c) {
		fields = queryir.LocalFields(table, fields)
	}
	diag.Select(fields...)
	a.logger.Debug("diagnostic query built",
		"table", table,
		"stripped", strips(c),
		"fields", fields,
	)

	rows := diag.Lazy()
	total, err := rows.Count(a.ctx)
	if err != nil {
		return "", err
	}
	sample, err := rows.Take(a.ctx, a.show)
	if err != nil {
		return "", err
	}

	rendered, err := renderRows(sample)
	if err != nil {
		return "", fmt.Errorf("render sample: %w", err)
	}

	return fmt.Sprintf("\nShowing %d of %d results:\n%s", min(int64(a.show), total), total, rendered), nil
}

// projection returns the explicit fields if any, otherwise the distinct
// fields named by the original filters.
func (a *Assertion) projection() []string {
	if len(a.fields) > 0 {
		return append([]string(nil), a.fields...)
	}
	return queryir.ReferencedFields(a.query.Conditions())
}

// String renders the query under test with a line break before each
// from, where, and, or and having keyword.
func (a *Assertion) String() string {
	raw, err := a.query.ToRawSQL()
	if err != nil {
		return fmt.Sprintf("<unrenderable query: %v>", err)
	}
	return BreakLines(raw)
}

// lineBreakMarkers are matched literally, case-sensitively, in this order.
var lineBreakMarkers = []string{" from ", " where ", " and ", " or ", " having "}

// BreakLines inserts "\n" before every occurrence of the keyword markers.
// Only newlines are added; deleting them restores s.
func BreakLines(s string) string {
	for _, m := range lineBreakMarkers {
		s = strings.ReplaceAll(s, m, "\n"+m)
	}
	return s
}

// renderRows pretty-prints rows as indented JSON without HTML escaping or
// \uXXXX escapes. The sample is NFC normalized, so decomposed text in the
// table reads as its composed form; it is a display of the values, not a
// byte copy.
func renderRows(rows []query.Row) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return "", err
	}
	return norm.NFC.String(strings.TrimSuffix(buf.String(), "\n")), nil
}
