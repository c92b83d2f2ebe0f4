package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/dbassert/internal/store"
	"github.com/roach88/dbassert/pkg/dbassert"
	"github.com/roach88/dbassert/pkg/query"
)

// Harness runs suites against one store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for suite and check records.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Harness over st.
func New(st *store.Store, opts ...Option) *Harness {
	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes suite against st and returns the result.
//
// Execution flow:
// 1. Apply the suite's fixtures in one transaction
// 2. Build one query per check
// 3. Evaluate each check, in order, recording pass, fail or error
//
// A fixture failure aborts the run. A check whose query cannot execute is
// recorded as an error and the remaining checks still run.
func Run(ctx context.Context, st *store.Store, suite *Suite, opts ...Option) (*Result, error) {
	return New(st, opts...).Run(ctx, suite)
}

// Run executes suite against the harness store.
func (h *Harness) Run(ctx context.Context, suite *Suite) (*Result, error) {
	if err := h.store.ApplyFixtures(ctx, suite.Fixtures...); err != nil {
		return nil, fmt.Errorf("failed to apply fixtures: %w", err)
	}
	h.logger.Debug("suite started", "suite", suite.Name, "checks", len(suite.Checks))

	result := NewResult(suite.Name)
	for _, check := range suite.Checks {
		cr := h.runCheck(ctx, check)
		h.logger.Debug("check finished",
			"suite", suite.Name,
			"check", check.Name,
			"status", cr.Status,
		)
		result.Add(cr)
	}

	return result, nil
}

func (h *Harness) runCheck(ctx context.Context, check Check) CheckResult {
	cr := CheckResult{
		Name:  check.Name,
		Table: check.Table,
		Verb:  check.Verb,
	}

	a := dbassert.New(nil, BuildQuery(h.store, check)).
		WithContext(ctx).
		WithLogger(h.logger).
		Fields(check.Fields...)
	if check.Show != nil {
		a.Show(*check.Show)
	}

	err := a.Verify(constraintFor(check))

	var failure *dbassert.Failure
	switch {
	case err == nil:
		cr.Status = StatusPass
	case errors.As(err, &failure):
		cr.Status = StatusFail
		cr.Message = failure.Error()
	default:
		cr.Status = StatusError
		cr.Message = err.Error()
	}
	return cr
}

// BuildQuery turns a check into a query. Equality filters are applied in
// key order so the rendered query is stable, then comparison filters in
// list order.
func BuildQuery(db query.Queryer, check Check) *query.Builder {
	q := query.Table(db, check.Table)

	keys := make([]string, 0, len(check.Where))
	for k := range check.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Where(k, check.Where[k])
	}

	for _, f := range check.Filters {
		q.WhereOp(f.Field, f.Op, f.Value)
	}

	return q
}

func constraintFor(check Check) dbassert.Constraint {
	switch check.Verb {
	case VerbMissing:
		return dbassert.RowMissing{}
	case VerbCount:
		var expected int64
		if check.Count != nil {
			expected = *check.Count
		}
		return dbassert.CountCompare{Op: dbassert.Comparator(check.Comparator), Expected: expected}
	case VerbEmpty:
		return dbassert.CountCompare{Op: dbassert.Equal, Expected: 0}
	default:
		return dbassert.RowExists{}
	}
}
