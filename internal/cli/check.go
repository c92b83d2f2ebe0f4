package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbassert/internal/harness"
	"github.com/roach88/dbassert/internal/store"
	"github.com/roach88/dbassert/pkg/dbassert"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Table  string
	Where  []string // key=value equality filters
	Count  int64
	Op     string
	Fields []string
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <exists|missing|count|empty>",
		Short: "Run a single assertion against a database",
		Long: `Run one assertion against a table and report the result.

Exit codes:
  0 - The assertion held
  1 - The assertion failed
  2 - Command error (invalid flags, unreadable database, query errors)

Examples:
  dbassert check exists --db app.db --table users --where email=ada@example.com
  dbassert check missing --db app.db --table orders --where status=refunded
  dbassert check count --db app.db --table orders --where status=paid --count 10 --op ">="
  dbassert check empty --db app.db --table jobs --show 5 --fields id,state`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database (required)")
	cmd.Flags().String("driver", store.DriverCGO, "database/sql driver (sqlite3|sqlite)")
	cmd.Flags().Int("show", dbassert.DefaultShow, "sample rows shown on failure")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table to query (required)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter as key=value (repeatable)")
	cmd.Flags().Int64Var(&opts.Count, "count", 0, "expected row count (count only)")
	cmd.Flags().StringVar(&opts.Op, "op", string(dbassert.Equal), "count comparator (==, !=, !==, >, >=, <, <=)")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "columns shown on failure")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runCheck(opts *CheckOptions, verb string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd, f.RunID)

	dbPath := opts.getString(cmd, "db")
	if dbPath == "" {
		return reportError(f, ErrCodeInvalidArgs, NewExitError(ExitCommandError, "--db is required"))
	}

	check, err := buildCheck(opts, verb, cmd)
	if err != nil {
		return reportError(f, ErrCodeInvalidArgs, WrapExitError(ExitCommandError, "invalid check", err))
	}
	suite := &harness.Suite{Name: "check", Checks: []harness.Check{check}}
	if err := suite.Validate(); err != nil {
		return reportError(f, ErrCodeInvalidArgs, WrapExitError(ExitCommandError, "invalid check", err))
	}

	st, err := openStore(dbPath, opts.getString(cmd, "driver"))
	if err != nil {
		return reportError(f, ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	f.VerboseLog("checking %s %s in %s", verb, check.Table, dbPath)
	result, err := harness.Run(cmd.Context(), st, suite, harness.WithLogger(logger))
	if err != nil {
		return reportError(f, ErrCodeGeneric, WrapExitError(ExitCommandError, "check failed to run", err))
	}

	return f.Result(result)
}

// buildCheck converts flags into a suite check.
func buildCheck(opts *CheckOptions, verb string, cmd *cobra.Command) (harness.Check, error) {
	check := harness.Check{
		Name:   verb + " " + opts.Table,
		Table:  opts.Table,
		Verb:   verb,
		Fields: opts.Fields,
	}

	if len(opts.Where) > 0 {
		check.Where = make(map[string]any, len(opts.Where))
	}
	for _, w := range opts.Where {
		key, value, ok := strings.Cut(w, "=")
		if !ok || key == "" {
			return harness.Check{}, fmt.Errorf("--where %q: want key=value", w)
		}
		check.Where[key] = value
	}

	if verb == harness.VerbCount {
		count := opts.Count
		check.Count = &count
		check.Comparator = opts.Op
	}

	show := opts.getInt(cmd, "show")
	check.Show = &show

	return check, nil
}

// reportError writes err through the formatter and returns it.
func reportError(f *OutputFormatter, code string, err *ExitError) error {
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return err
}
