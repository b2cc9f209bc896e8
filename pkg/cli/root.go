package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/signon/pkg/observability"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet

	env *Env
}

// NewRootCommand creates the root command
func NewRootCommand(env *Env) *Command {
	if env == nil {
		env = &Env{}
	}
	root := &Command{
		Name:        "signon",
		Description: "signon - sign in to the backend through the configured identity provider",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("signon", flag.ContinueOnError),
		env:         env,
	}

	root.Subcommands["status"] = newStatusCommand(env)
	root.Subcommands["login"] = newLoginCommand(env)
	root.Subcommands["logout"] = newLogoutCommand(env)

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(ctx context.Context, args []string) error {
	if c.env.Logger == nil {
		c.env.Logger = observability.FromContext(ctx)
	}

	if len(args) == 0 {
		return c.usage()
	}

	if isHelp(args[0]) {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(ctx, args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

func isHelp(arg string) bool {
	switch strings.ToLower(arg) {
	case "-h", "--help", "help":
		return true
	}
	return false
}

// usage prints the command usage
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := c.env.stdout()
	fmt.Fprintf(out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// newFlagSet returns a flag set that reports parse errors instead of exiting
func (e *Env) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr())
	return fs
}
