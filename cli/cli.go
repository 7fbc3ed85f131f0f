package cli

import (
	"context"
	"errors"
	"fmt"
	flag "github.com/spf13/pflag"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	HelpPatterns      = []string{"--help", "-h"} // HelpPatterns trigger usage output for a [CommandSet].

	keyCleansePattern = regexp.MustCompile(`\s`)
)

// CommandFunc is the function executed by a [Command].
type CommandFunc = func(ctx context.Context, flags *flag.FlagSet, printer *Printer) error

// BeforeFunc runs before any [Command] in a [CommandSet] is executed.
// Returning an error prevents execution.
type BeforeFunc = func(ctx context.Context) (context.Context, error)

// Command is an executable function in a CLI.
type Command struct {
	CommandSet
	flags      *flag.FlagSet
	exec       CommandFunc
	key        string
	shortUsage string
	usage      string
	aliases    []string
}

func cleanseKey(key string) string {
	return keyCleansePattern.ReplaceAllString(strings.ToLower(key), "")
}

func newCommand(key string, parent *CommandSet, shortUsage string) *Command {
	fs := flag.NewFlagSet(key, flag.ContinueOnError)
	fs.BoolP("help", "h", false, "Prints this usage information")
	fs.SetInterspersed(false)
	cmd := &Command{
		CommandSet: CommandSet{
			printer: parent.Printer(),
			parent:  strings.TrimSpace(parent.parent + " " + key),
			before:  parent.before,
		},
		flags:      fs,
		key:        key,
		shortUsage: shortUsage,
	}
	fs.SetOutput(cmd.printer)
	fs.Usage = cmd.printUsage
	return cmd
}

// Does specifies the [CommandFunc] that should be executed by this [Command].
func (c *Command) Does(commandFunc CommandFunc) *Command {
	c.exec = commandFunc
	return c
}

// Flags returns the [flag.FlagSet] for this [Command].
func (c *Command) Flags() *flag.FlagSet {
	return c.flags
}

// Usage sets a longer description of the arguments, shown with the short usage, flags and sub-commands.
func (c *Command) Usage(format string, args ...any) *Command {
	c.usage = fmt.Sprintf(format, args...)
	return c
}

func (c *Command) printUsage() {
	var buf strings.Builder
	buf.WriteString(c.shortUsage + "\n")
	if len(c.usage) > 0 {
		buf.WriteString("\nUSAGE:\n" + c.parent + " " + strings.TrimSuffix(c.usage, "\n") + "\n")
	}
	buf.WriteString("\nFLAGS:\n")
	buf.WriteString(c.flags.FlagUsages())
	if len(c.commands) > 0 {
		buf.WriteString("\nCOMMANDS:\n")
		buf.WriteString(c.CommandUsages())
	}
	c.printer.Print(buf.String())
}

// Exec runs a matching sub-command, or parses flags and runs this [Command].
func (c *Command) Exec(ctx context.Context, args []string) error {
	err := c.CommandSet.Exec(ctx, args)
	if !errors.Is(err, ErrUnknownCommand) {
		return err
	}
	if err := c.flags.Parse(args); err != nil {
		return c.usageError(&UsageError{wrapped: err})
	}
	help, _ := c.flags.GetBool("help")
	// pflag keeps parsed values, so a Command that's run again would still see -h.
	_ = c.flags.Set("help", "false")
	if help || c.exec == nil {
		c.printUsage()
		return nil
	}
	if c.before != nil {
		ctx, err = c.before(ctx)
		if err != nil {
			return err
		}
	}
	return c.usageError(c.exec(ctx, c.flags, c.printer))
}

// usageError prints usage after a [UsageError].
func (c *Command) usageError(err error) error {
	if errors.Is(err, &UsageError{}) {
		c.printer.Println(err)
		c.printer.Println()
		c.printUsage()
	}
	return err
}

// CommandSet is a group of [Command].
type CommandSet struct {
	commands map[string]*Command
	aliases  map[string]*Command
	printer  *Printer
	parent   string
	before   BeforeFunc
}

// NewCommandSet sets up the root of a CLI's command structure.
// The parent should be the name used to invoke the CLI, and is used in usage output.
func NewCommandSet(parent ...string) *CommandSet {
	return &CommandSet{printer: NewPrinter(), parent: strings.Join(parent, " ")}
}

// Before sets a function that runs before any [Command] added afterward.
// It's used for setup that should only happen when a command actually executes, not when usage is printed.
func (s *CommandSet) Before(fn BeforeFunc) *CommandSet {
	s.before = fn
	return s
}

// AddCommand adds a sub-command to this [CommandSet].
// The key is normalized to lower-case without spaces, as are aliases.
func (s *CommandSet) AddCommand(key, shortUsage string, aliases ...string) *Command {
	key = cleanseKey(key)
	cmd := newCommand(key, s, shortUsage)
	if s.commands == nil {
		s.commands = map[string]*Command{}
	}
	s.commands[key] = cmd
	for _, alias := range aliases {
		alias = cleanseKey(alias)
		if len(alias) == 0 {
			continue
		}
		if s.aliases == nil {
			s.aliases = map[string]*Command{}
		}
		s.aliases[alias] = cmd
		cmd.aliases = append(cmd.aliases, alias)
	}
	slices.Sort(cmd.aliases)
	return cmd
}

// Printer returns the [Printer] shared by commands in this [CommandSet].
func (s *CommandSet) Printer() *Printer {
	if s.printer == nil {
		s.printer = NewPrinter()
	}
	return s.printer
}

// Exec executes the sub-command named by the first argument.
func (s *CommandSet) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no arguments", ErrUnknownCommand)
	}
	key := strings.ToLower(args[0])
	cmd, ok := s.commands[key]
	if !ok {
		cmd, ok = s.aliases[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		}
	}
	return cmd.Exec(ctx, args[1:])
}

// RespondUsage prints usage information if args is empty or starts with one of [HelpPatterns].
// Returns true if usage was printed.
func (s *CommandSet) RespondUsage(args []string, format string, vals ...any) bool {
	if len(args) > 0 && !slices.Contains(HelpPatterns, args[0]) {
		return false
	}
	text := fmt.Sprintf(format, vals...)
	if len(text) > 0 {
		text = "\n\n" + strings.TrimSuffix(text, "\n")
	}
	s.Printer().Printf("%s%s\n\nCOMMANDS:\n%s", s.parent, text, s.CommandUsages())
	return true
}

// CommandUsages lists sub-commands with their aliases and short usage, sorted by key.
func (s *CommandSet) CommandUsages() string {
	keys := make([]string, 0, len(s.commands))
	for key := range s.commands {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	names := make([]string, len(keys))
	var maxLen int
	for i, key := range keys {
		names[i] = strings.Join(append([]string{key}, s.commands[key].aliases...), ", ")
		maxLen = max(maxLen, len(names[i]))
	}
	var buf strings.Builder
	for i, key := range keys {
		buf.WriteString(fmt.Sprintf("  %-*s\t%s\n", maxLen, names[i], s.commands[key].shortUsage))
	}
	return buf.String()
}
