package cli

import (
	"context"

	"github.com/gear6io/airbus/config"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

type contextKey string

const stateKey contextKey = "airbus"

// state is what every command needs once flags are parsed
type state struct {
	cfg    *config.Config
	logger zerolog.Logger
	logs   *config.LogManager
}

type rootOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

// NewRootCommand builds the airbus command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "airbus",
		Short: "Run named SQL blocks and automate document-hosting chores",
		Long: `Airbus runs multi-statement SQL scripts against an analytic engine.

A script is split into named blocks with --[name] marker lines, placeholders
such as {dt} are filled from the configuration context and --set flags, and
every block's result is printed as a table, CSV, JSON or written as Arrow.

Configuration is read from --config, ./airbus.yml, $AIRBUS_HOME/airbus.yml
or ~/.airbus/airbus.yml.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st := getState(cmd); st != nil && st.logs != nil {
				return st.logs.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to airbus.yml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output, including statement text")

	Build(root, Commands())
	return root
}

// Commands is the command table
func Commands() []Command {
	return []Command{sqlCommands(), yuqueCommands()}
}

// ExecuteWithContext runs the command line with ctx
func ExecuteWithContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.verbose {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}

	logger, logs, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return err
	}

	if !isTerminal(cmd.OutOrStdout()) {
		pterm.DisableStyling()
	}

	logger.Debug().Str("cmd", cmd.CommandPath()).Msg("Executing command")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, stateKey, &state{cfg: cfg, logger: logger, logs: logs}))
	return nil
}

func getState(cmd *cobra.Command) *state {
	if cmd.Context() == nil {
		return nil
	}
	st, _ := cmd.Context().Value(stateKey).(*state)
	return st
}
