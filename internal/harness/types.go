package harness

import (
	"fmt"
	"strings"
)

// Status values for a check outcome.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusError = "error"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Verb   string `json:"verb"`
	Status string `json:"status"`

	// Message is the failure report or execution error. Empty on pass.
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a suite execution.
type Result struct {
	// Suite is the suite name.
	Suite string `json:"suite"`

	// Pass indicates overall success.
	// True if every check passed.
	Pass bool `json:"pass"`

	// Checks holds one entry per check, in suite order.
	Checks []CheckResult `json:"checks"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite:  suite,
		Pass:   true,
		Checks: []CheckResult{},
	}
}

// Add records a check outcome. Any non-pass outcome fails the result.
func (r *Result) Add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if c.Status != StatusPass {
		r.Pass = false
	}
}

// Counts returns the number of passed, failed and errored checks.
func (r *Result) Counts() (passed, failed, errored int) {
	for _, c := range r.Checks {
		switch c.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		default:
			errored++
		}
	}
	return passed, failed, errored
}

// Render formats the result as a plain text report. Output is
// deterministic for a given result.
func (r *Result) Render() string {
	var buf strings.Builder

	passed, failed, errored := r.Counts()
	fmt.Fprintf(&buf, "suite %s: %d passed, %d failed, %d errored\n", r.Suite, passed, failed, errored)

	for _, c := range r.Checks {
		fmt.Fprintf(&buf, "%s %s [%s %s]\n", strings.ToUpper(c.Status), c.Name, c.Verb, c.Table)
		if c.Message == "" {
			continue
		}
		for _, line := range strings.Split(c.Message, "\n") {
			buf.WriteString("    " + line + "\n")
		}
	}

	return buf.String()
}
