package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is prepended to the name of every environment variable read by [Load].
const EnvPrefix = "OLAUI_"

func getEnv() map[string]string {
	envMap := map[string]string{}
	for _, entry := range os.Environ() {
		key, val, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		envMap[strings.ToLower(key)] = val
	}
	return envMap
}

// envLookup reads prefixed variables, comparing keys case-insensitive.
// A snapshot of the environment is taken once so that a single [Load] sees consistent values.
type envLookup map[string]string

func newEnvLookup() envLookup {
	return getEnv()
}

// val returns the trimmed value of the variable, and whether it's set to something non-empty.
func (e envLookup) val(key string) (string, bool) {
	val, ok := e[strings.ToLower(EnvPrefix+key)]
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, len(val) > 0
}

func (e envLookup) str(key string, target *string) {
	if val, ok := e.val(key); ok {
		*target = val
	}
}

var (
	envTrue  = []string{"1", "yes", "true", "on"}
	envFalse = []string{"0", "no", "false", "off"}
)

// boolean sets target if the variable is set to a recognizable boolean value.
func (e envLookup) boolean(key string, target *bool) error {
	val, ok := e.val(key)
	if !ok {
		return nil
	}
	val = strings.ToLower(val)
	for _, t := range envTrue {
		if val == t {
			*target = true
			return nil
		}
	}
	for _, f := range envFalse {
		if val == f {
			*target = false
			return nil
		}
	}
	return &EnvError{Key: EnvPrefix + key, Value: val, Err: strconv.ErrSyntax}
}

func (e envLookup) integer(key string, target *int) error {
	val, ok := e.val(key)
	if !ok {
		return nil
	}
	ival, err := strconv.Atoi(val)
	if err != nil {
		return &EnvError{Key: EnvPrefix + key, Value: val, Err: err}
	}
	*target = ival
	return nil
}

func (e envLookup) duration(key string, target *time.Duration) error {
	val, ok := e.val(key)
	if !ok {
		return nil
	}
	dval, err := time.ParseDuration(val)
	if err != nil {
		return &EnvError{Key: EnvPrefix + key, Value: val, Err: err}
	}
	*target = dval
	return nil
}

// EnvError reports an environment variable that couldn't be interpreted.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return "invalid value '" + e.Value + "' for " + e.Key + ": " + e.Err.Error()
}

func (e *EnvError) Unwrap() error {
	return e.Err
}
