package cli

import (
	"fmt"
	"strings"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/db"
	"github.com/gear6io/airbus/db/driver"
	"github.com/gear6io/airbus/db/script"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/storage"
	"github.com/spf13/cobra"
)

var (
	argScript = Arg{
		Flags: []string{"-f", "--script"},
		Help:  "script with --[name] blocks, a local path or s3://bucket/key",
	}
	argSQL = Arg{
		Flags: []string{"-e", "--sql"},
		Help:  "single statement to run as block \"query\" when no script is given",
	}
	argBlock = Arg{
		Flags: []string{"-b", "--block"},
		Help:  "block to run, repeatable; all blocks in order when omitted",
		Kind:  ArgStrings,
	}
	argSet = Arg{
		Flags: []string{"-s", "--set"},
		Help:  "placeholder value as key=value, repeatable; overrides the config context",
		Kind:  ArgStrings,
	}
	argHost = Arg{
		Flags: []string{"--host"},
		Help:  "candidate host, repeatable; tried in order and replacing the configured hosts",
		Kind:  ArgStrings,
	}
	argDriver = Arg{
		Flags: []string{"--driver"},
		Help:  "engine driver: " + strings.Join(driver.Names(), ", "),
	}
	argFormat = Arg{
		Flags: []string{"-o", "--format"},
		Help:  "output format: table, csv, json, arrow (default table on a terminal, csv otherwise)",
	}
	argOut = Arg{
		Flags:   []string{"--out"},
		Help:    "directory for arrow files",
		Default: ".",
	}
	argShowSchema = Arg{
		Flags: []string{"--show-schema"},
		Help:  "print the column types of each result to stderr",
		Kind:  ArgBool,
	}
	argShowSQL = Arg{
		Flags: []string{"--show-sql"},
		Help:  "print each block's SQL",
		Kind:  ArgBool,
	}
	argShowKind = Arg{
		Flags: []string{"--show-kind"},
		Help:  "print the statement kind (select, insert, ddl, ...) next to each block name",
		Kind:  ArgBool,
	}
)

func sqlCommands() GroupCommand {
	return GroupCommand{
		Name: "sql",
		Help: "Run SQL scripts against the configured engine",
		Subcommands: []Command{
			ActionCommand{
				Name: "run",
				Help: "Run the blocks of a script, or a single statement",
				Description: `Run connects once, then executes the selected blocks in script order.
The first failing block stops the run; blocks already printed stay printed.`,
				Example: `  airbus sql run -f report.sql -s dt=2024-01-01
  airbus sql run -f s3://scripts/report.sql -b daily_users -o json
  airbus sql run -e "SELECT count(*) FROM users" --host impala-1 --host impala-2`,
				Args: []Arg{argScript, argSQL, argBlock, argSet, argHost, argDriver, argFormat, argOut, argShowSchema},
				Run:  runSQL,
			},
			ActionCommand{
				Name:    "blocks",
				Help:    "List the blocks of a script without connecting",
				Example: `  airbus sql blocks -f report.sql --show-sql -s dt=2024-01-01`,
				Args:    []Arg{argScript, argSet, argShowSQL, argShowKind},
				Run:     runBlocks,
			},
		},
	}
}

func placeholderValues(cmd *cobra.Command, cfg *config.Config) (script.Context, error) {
	sets, _ := cmd.Flags().GetStringArray(argSet.Name())
	values, err := script.ParseAssignments(sets)
	if err != nil {
		return nil, errors.New(ErrUsageInvalid, "invalid --set value", err)
	}
	return script.Merge(script.Context(cfg.Context), values), nil
}

func runSQL(cmd *cobra.Command, args []string) error {
	st := getState(cmd)
	ctx := cmd.Context()
	flags := cmd.Flags()

	scriptPath, _ := flags.GetString(argScript.Name())
	sqlText, _ := flags.GetString(argSQL.Name())
	blocks, _ := flags.GetStringArray(argBlock.Name())
	hosts, _ := flags.GetStringArray(argHost.Name())
	driverName, _ := flags.GetString(argDriver.Name())
	formatName, _ := flags.GetString(argFormat.Name())
	outDir, _ := flags.GetString(argOut.Name())
	showSchema, _ := flags.GetBool(argShowSchema.Name())
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := *st.cfg
	if driverName != "" {
		cfg.Database.Driver = driverName
	}
	if len(hosts) > 0 {
		cfg.Database.Host = hosts
	}

	values, err := placeholderValues(cmd, &cfg)
	if err != nil {
		return err
	}

	format, err := ParseFormat(formatName, isTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	writer := NewResultWriter(format, cmd.OutOrStdout(), outDir)

	return db.WithRunner(ctx, &cfg, db.Options{
		SQL:     sqlText,
		Script:  scriptPath,
		Context: values,
		Verbose: verbose,
	}, st.logger, func(r *db.Runner) error {
		names := blocks
		if len(names) == 0 {
			for _, b := range r.Blocks() {
				names = append(names, b.Name)
			}
		}

		for _, name := range names {
			res, err := r.Run(ctx, name)
			if err != nil {
				return err
			}
			if showSchema {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Block, kindsLine(res.Table))
			}
			if err := writer.Write(res); err != nil {
				return err
			}
		}

		st.logger.Info().
			Str("run_id", r.RunID()).
			Int("blocks", len(names)).
			Msg("Script run completed")
		return nil
	})
}

func runBlocks(cmd *cobra.Command, args []string) error {
	st := getState(cmd)
	ctx := cmd.Context()

	location, _ := cmd.Flags().GetString(argScript.Name())
	if location == "" {
		return errors.New(ErrUsageInvalid, "--script is required", nil)
	}
	showSQL, _ := cmd.Flags().GetBool(argShowSQL.Name())
	showKind, _ := cmd.Flags().GetBool(argShowKind.Name())

	values, err := placeholderValues(cmd, st.cfg)
	if err != nil {
		return err
	}

	registry, err := storage.NewDefaultRegistry(st.cfg.Storage, st.logger)
	if err != nil {
		return err
	}
	text, err := registry.ReadText(ctx, location)
	if err != nil {
		return err
	}

	parsed := script.Parse(text, values)
	if missing := parsed.Unresolved(); len(missing) > 0 {
		st.logger.Warn().Strs("placeholders", missing).Msg("Placeholders without a context value were left in place")
	}

	out := cmd.OutOrStdout()
	for _, b := range parsed.Blocks() {
		switch {
		case showSQL:
			fmt.Fprintf(out, "--[%s]\n%s\n", b.Name, b.SQL)
		case showKind:
			fmt.Fprintf(out, "%s\t%s\n", b.Name, script.Kind(b.SQL))
		default:
			fmt.Fprintln(out, b.Name)
		}
	}
	if showSQL && parsed.Len() > 0 {
		fmt.Fprintf(out, "--[%s]\n", script.EndMarker)
	}
	return nil
}
