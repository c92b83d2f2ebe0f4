package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/dbassert/internal/store"
)

// Config file lookup, used when --config is not given.
const (
	configFileName = "dbassert"
	configFileType = "yaml"
	envPrefix      = "DBASSERT"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit config file path

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs RunIDGenerator

	settings *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dbassert CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbassert",
		Short: "dbassert - database state assertions",
		Long: `Assert facts about rows in a SQLite database.

Each check is an exists, missing, count or empty assertion over a filtered
table. A failing check prints the query and a sample of the rows that were
there, so the report explains itself.

Settings are read from flags, then DBASSERT_* environment variables, then
dbassert.yaml in the working directory (or the file named by --config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default: ./dbassert.yaml)")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// load resolves settings for cmd through viper: flags set on the command
// line win over DBASSERT_* environment variables, which win over the config
// file, which wins over flag defaults.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "failed to bind flags", err)
	}

	if o.Config != "" {
		v.SetConfigFile(o.Config)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.Config != "" || !errors.As(err, &notFound) {
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
	}

	o.settings = v
	o.Format = v.GetString("format")
	o.Verbose = v.GetBool("verbose")

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	return nil
}

// getString returns the resolved value of a flag. Without loaded settings
// (a subcommand run on its own) it falls back to the flag itself.
func (o *RootOptions) getString(cmd *cobra.Command, name string) string {
	if o.settings != nil && o.settings.IsSet(name) {
		return o.settings.GetString(name)
	}
	val, _ := cmd.Flags().GetString(name)
	return val
}

// getInt is getString for integer flags.
func (o *RootOptions) getInt(cmd *cobra.Command, name string) int {
	if o.settings != nil && o.settings.IsSet(name) {
		return o.settings.GetInt(name)
	}
	val, _ := cmd.Flags().GetInt(name)
	return val
}

// formatter builds the output formatter for cmd with a fresh run ID.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	gen := o.RunIDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		RunID:     gen.Generate(),
	}
}

// logger returns a debug-level text logger on stderr when verbose, and a
// discarding logger otherwise.
func (o *RootOptions) logger(cmd *cobra.Command, runID string) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler).With("run_id", runID)
}

// openStore opens the database at path with the configured driver.
func openStore(path, driver string) (*store.Store, error) {
	if path == "" {
		path = store.MemoryPath
	}
	return store.Open(path, store.WithDriver(driver))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
