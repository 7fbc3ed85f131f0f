package cli

import (
	"context"
	"errors"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type ctxKey struct{}

func TestCommand_Exec(t *testing.T) {
	set := NewCommandSet()
	var buf strings.Builder
	set.Printer().Redirect(&buf)
	cmd := set.AddCommand("test", "test command")
	assert.NoError(t, cmd.Exec(context.Background(), nil))
	assert.Contains(t, buf.String(), "test command", "Command without a function should print usage")

	executed := false
	cmd.Does(func(context.Context, *flag.FlagSet, *Printer) error {
		executed = true
		return nil
	})
	assert.NoError(t, cmd.Exec(context.Background(), nil))
	assert.True(t, executed)
}

func TestCommand_ExecBadFlag(t *testing.T) {
	set := NewCommandSet("olactl")
	var buf strings.Builder
	set.Printer().Redirect(&buf)
	set.AddCommand("test", "test command").Does(func(context.Context, *flag.FlagSet, *Printer) error {
		t.Fatal("Should not execute with invalid flags")
		return nil
	})
	err := set.Exec(context.Background(), []string{"test", "--nope"})
	assert.ErrorIs(t, err, &UsageError{})
	assert.Contains(t, buf.String(), "FLAGS:")
}

func TestCommandSet_Exec(t *testing.T) {
	set := NewCommandSet()
	assert.ErrorIs(t, set.Exec(context.Background(), nil), ErrUnknownCommand)

	executed := false
	set.AddCommand("test", "test command").Does(func(context.Context, *flag.FlagSet, *Printer) error {
		executed = true
		return nil
	})
	assert.NoError(t, set.Exec(context.Background(), []string{"TEST"}))
	assert.True(t, executed)

	assert.ErrorIs(t, set.Exec(context.Background(), []string{"Does", "not", "exist"}), ErrUnknownCommand)
}

func TestCommand_AddSubCommand(t *testing.T) {
	cmdExecuted := 0
	subExecuted := 0
	set := testCommandSet(t, &cmdExecuted, &subExecuted)

	assert.NoError(t, set.Exec(context.Background(), []string{"test", "-h"}))
	assert.Equal(t, 0, cmdExecuted)

	assert.NoError(t, set.Exec(context.Background(), []string{"test", "blah"}), "Should execute test without error")
	assert.Equal(t, 1, cmdExecuted)
	assert.Equal(t, 0, subExecuted)

	assert.NoError(t, set.Exec(context.Background(), []string{"test", "SUB"}))
	assert.Equal(t, 1, cmdExecuted)
	assert.Equal(t, 1, subExecuted)
}

func TestCommandSet_AddCommand_Aliases(t *testing.T) {
	cmdExecuted := 0
	subExecuted := 0
	set := testCommandSet(t, &cmdExecuted, &subExecuted)
	assert.NoError(t, set.Exec(context.Background(), []string{"t", "a"}))
	assert.NoError(t, set.Exec(context.Background(), []string{"test", "b"}))
	assert.Equal(t, 0, cmdExecuted)
	assert.Equal(t, 2, subExecuted)
}

func TestCommandSet_Before(t *testing.T) {
	set := NewCommandSet("olactl")
	set.Printer().Redirect(new(strings.Builder))
	set.Before(func(ctx context.Context) (context.Context, error) {
		return context.WithValue(ctx, ctxKey{}, "configured"), nil
	})
	var got any
	set.AddCommand("test", "test command").Does(func(ctx context.Context, _ *flag.FlagSet, _ *Printer) error {
		got = ctx.Value(ctxKey{})
		return nil
	})
	require.NoError(t, set.Exec(context.Background(), []string{"test"}))
	assert.Equal(t, "configured", got)

	got = nil
	require.NoError(t, set.Exec(context.Background(), []string{"test", "--help"}))
	assert.Nil(t, got, "Setup should not run when printing usage")

	errSetup := errors.New("setup failed")
	set.Before(func(ctx context.Context) (context.Context, error) {
		return ctx, errSetup
	})
	set.AddCommand("other", "other command").Does(func(context.Context, *flag.FlagSet, *Printer) error {
		t.Fatal("Should not execute after failed setup")
		return nil
	})
	assert.ErrorIs(t, set.Exec(context.Background(), []string{"other"}), errSetup)
}

func TestCommandSet_RespondUsage(t *testing.T) {
	cmdExecuted := 0
	subExecuted := 0
	set := testCommandSet(t, &cmdExecuted, &subExecuted)
	var buf strings.Builder
	set.Printer().Redirect(&buf)

	assert.False(t, set.RespondUsage([]string{"test"}, "Printed usage"))
	assert.Empty(t, buf.String())
	assert.True(t, set.RespondUsage([]string{HelpPatterns[0], "something", "else"}, "Printed usage"))
	assert.Equal(t, "commands\n\nPrinted usage\n\nCOMMANDS:\n  test, t\ttest command\n", buf.String())
	buf.Reset()
	assert.True(t, set.RespondUsage(nil, ""), "No arguments should print usage")
}

func testCommandSet(t *testing.T, cmdExecuted, subExecuted *int) *CommandSet {
	set := NewCommandSet("commands")
	set.Printer().Redirect(new(strings.Builder))
	cmd := set.AddCommand("test", "test command", "t")
	cmd.Flags().String("message", "", "Sets a message")
	cmd.Does(func(context.Context, *flag.FlagSet, *Printer) error {
		*cmdExecuted++
		return nil
	})

	sub := cmd.AddCommand("sub", "test subcommand", "a", "b")
	assert.Equal(t, "commands test sub", sub.parent)
	sub.Does(func(context.Context, *flag.FlagSet, *Printer) error {
		*subExecuted++
		return nil
	})
	return set
}
