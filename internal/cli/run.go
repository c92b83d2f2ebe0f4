package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/dbassert/internal/harness"
	"github.com/roach88/dbassert/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite-file>",
		Short: "Run a suite of checks",
		Long: `Run every check in a YAML or CUE suite file.

The suite runs against --db when given, otherwise against the suite's own
database setting, otherwise against a private in-memory database. Fixtures
are applied before the first check.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Command error (unreadable suite, database or fixture errors, query errors)

Examples:
  dbassert run ./checks/orders.yaml
  dbassert run ./checks/orders.cue --db ./app.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database (overrides the suite)")
	cmd.Flags().String("driver", store.DriverCGO, "database/sql driver (sqlite3|sqlite)")

	return cmd
}

func runSuite(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd, f.RunID)

	suite, err := harness.LoadSuite(path)
	if err != nil {
		return reportError(f, ErrCodeSuiteLoad, WrapExitError(ExitCommandError, "failed to load suite", err))
	}

	dbPath := opts.getString(cmd, "db")
	if dbPath == "" {
		dbPath = suite.Database
	}

	st, err := openStore(dbPath, opts.getString(cmd, "driver"))
	if err != nil {
		return reportError(f, ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	f.VerboseLog("running suite %s (%d checks)", suite.Name, len(suite.Checks))
	result, err := harness.Run(cmd.Context(), st, suite, harness.WithLogger(logger))
	if err != nil {
		return reportError(f, ErrCodeFixtures, WrapExitError(ExitCommandError, "suite failed to run", err))
	}

	return f.Result(result)
}
