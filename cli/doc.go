/*
Package cli is a small framework for a CLI with sub-commands, built on [pflag].

  - User-visible messages go to STDERR by default, through a configurable [Printer].
  - Flags are not interspersed, so flags always come before arguments.
  - Each [Command] has its own flags, and there are no global flags.
  - Sub-commands may have aliases, passed as additional parameters to [CommandSet.AddCommand].

Invoking a CLI built with this package always follows this form:

	CLI_NAME [SUB-COMMAND...] [FLAGS...] [ARGS...]

The '-h' and '--help' flags print usage for every [Command].
A [CommandFunc] that returns a [UsageError] has usage printed after the error.

[pflag]: https://github.com/spf13/pflag
*/
package cli
