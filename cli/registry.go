package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// ArgKind is the value type of a flag
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgInt
	ArgBool
	// ArgStrings is repeatable
	ArgStrings
)

// Arg describes one command line flag
type Arg struct {
	// Flags is the long name, optionally preceded by a one-letter short name
	Flags   []string
	Help    string
	Kind    ArgKind
	Default interface{}
}

// Name is the long flag name without dashes
func (a Arg) Name() string {
	return strings.TrimLeft(a.Flags[len(a.Flags)-1], "-")
}

func (a Arg) short() string {
	if len(a.Flags) < 2 {
		return ""
	}
	return strings.TrimLeft(a.Flags[0], "-")
}

func (a Arg) addTo(cmd *cobra.Command) {
	flags := cmd.Flags()
	name, short := a.Name(), a.short()

	switch a.Kind {
	case ArgInt:
		def, _ := a.Default.(int)
		flags.IntP(name, short, def, a.Help)
	case ArgBool:
		def, _ := a.Default.(bool)
		flags.BoolP(name, short, def, a.Help)
	case ArgStrings:
		def, _ := a.Default.([]string)
		flags.StringArrayP(name, short, def, a.Help)
	default:
		def, _ := a.Default.(string)
		flags.StringP(name, short, def, a.Help)
	}
}

// Command is an entry of the command table
type Command interface {
	build() *cobra.Command
}

// ActionCommand is a leaf command
type ActionCommand struct {
	Name        string
	Help        string
	Description string
	Example     string
	Args        []Arg
	Positional  cobra.PositionalArgs
	Run         func(cmd *cobra.Command, args []string) error
}

func (a ActionCommand) build() *cobra.Command {
	cmd := &cobra.Command{
		Use:     a.Name,
		Short:   a.Help,
		Long:    a.Description,
		Example: a.Example,
		Args:    a.Positional,
		RunE:    a.Run,
	}
	if cmd.Args == nil {
		cmd.Args = cobra.NoArgs
	}
	for _, arg := range a.Args {
		arg.addTo(cmd)
	}
	return cmd
}

// GroupCommand holds subcommands
type GroupCommand struct {
	Name        string
	Help        string
	Description string
	Subcommands []Command
}

func (g GroupCommand) build() *cobra.Command {
	cmd := &cobra.Command{
		Use:   g.Name,
		Short: g.Help,
		Long:  g.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	for _, sub := range g.Subcommands {
		cmd.AddCommand(sub.build())
	}
	return cmd
}

// Build turns the command table into cobra commands attached to root
func Build(root *cobra.Command, commands []Command) {
	for _, c := range commands {
		root.AddCommand(c.build())
	}
}
