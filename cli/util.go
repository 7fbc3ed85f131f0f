package cli

import (
	"strconv"
)

// IntArgs parses each argument as an integer, requiring exactly one argument per name.
// The names are only used in errors, which are always a [UsageError].
func IntArgs(args []string, names ...string) ([]int, error) {
	if len(args) != len(names) {
		return nil, NewUsageError("expected %d argument(s), got %d", len(names), len(args))
	}
	vals := make([]int, len(args))
	for i, arg := range args {
		val, err := strconv.Atoi(arg)
		if err != nil {
			return nil, NewUsageError("%s must be an integer, got '%s'", names[i], arg)
		}
		vals[i] = val
	}
	return vals, nil
}

// RequireArgs returns a [UsageError] unless there are between minArgs and maxArgs arguments.
// A maxArgs less than zero means there is no maximum.
func RequireArgs(args []string, minArgs, maxArgs int) error {
	if len(args) < minArgs {
		return NewUsageError("not enough arguments, expected at least %d", minArgs)
	}
	if maxArgs >= 0 && len(args) > maxArgs {
		return NewUsageError("too many arguments, expected at most %d", maxArgs)
	}
	return nil
}
