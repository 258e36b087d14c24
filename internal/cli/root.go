package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/turtle/internal/config"
	"github.com/roach88/turtle/internal/turtle"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string
	Database   string

	// Config is resolved in PersistentPreRunE: file, then env, then flags.
	Config *config.Config

	// IDGenerator names the turtle when run is not given --turtle.
	IDGenerator turtle.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the turtle CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{IDGenerator: turtle.UUIDv7Generator{}})
}

// newRootCommand builds the command tree around opts, so tests can inject
// a deterministic IDGenerator.
func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turtle",
		Short: "Event-sourced turtle graphics",
		Long: `Drive turtles with textual commands. Every command is recorded as an
event; state is rebuilt by replaying the log, and processors draw, plot
and count ink from the events as they are appended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return resolveConfig(opts, cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	flags.StringVar(&opts.Backend, "backend", "", "event log backend (memory|sqlite)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func resolveConfig(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = opts.Backend
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
		// a database path implies persistence
		if !flags.Changed("backend") {
			cfg.Backend = config.BackendSQLite
		}
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.Config = cfg
	return nil
}
