/*
Package config holds the settings for olactl and the components it wires together.

Settings are read from an optional YAML file, and then overridden by environment variables prefixed with [EnvPrefix].
Any setting left unset keeps its default from [Default].

	OLAUI_BACKOFF          time between connection attempts
	OLAUI_POLL_INTERVAL    how often queued events are run
	OLAUI_UNIVERSE_POLL    how often universes are refreshed while watching
	OLAUI_LOG_LEVEL        debug, info, warn or error
	OLAUI_LOG_FORMAT       auto, text or json
	OLAUI_LOG_FILE         file that receives JSON logs in addition to stderr
	OLAUI_SIM_GENERATOR    enable the simulated DMX generator
	OLAUI_SIM_UNIVERSE     universe the generator writes to
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"
)

const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Backoff      time.Duration `yaml:"backoff"`
	PollInterval time.Duration `yaml:"poll_interval"`
	UniversePoll time.Duration `yaml:"universe_poll"`
	Log          Log           `yaml:"log"`
	Sim          Sim           `yaml:"sim"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Sim describes the simulated daemon.
type Sim struct {
	Universes []SimUniverse `yaml:"universes"`
	Devices   []SimDevice   `yaml:"devices"`
	Generator Generator     `yaml:"generator"`
}

type SimUniverse struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type SimDevice struct {
	ID      int    `yaml:"id"`
	Alias   int    `yaml:"alias"`
	Name    string `yaml:"name"`
	Inputs  int    `yaml:"inputs"`
	Outputs int    `yaml:"outputs"`
	// Patch maps output port IDs to the universe they start patched to.
	Patch map[int]int `yaml:"patch"`
}

// Generator writes a moving DMX pattern to a universe, so monitoring has something to show.
type Generator struct {
	Enabled  bool          `yaml:"enabled"`
	Universe int           `yaml:"universe"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Backoff:      time.Second,
		PollInterval: 50 * time.Millisecond,
		UniversePoll: 100 * time.Millisecond,
		Log: Log{
			Level:  "info",
			Format: FormatAuto,
		},
		Sim: Sim{
			Universes: []SimUniverse{{ID: 1, Name: "Universe 1"}},
			Devices: []SimDevice{
				{ID: 1, Alias: 1, Name: "Dummy Device", Inputs: 1, Outputs: 4},
			},
			Generator: Generator{
				Universe: 1,
				Interval: 100 * time.Millisecond,
			},
		},
	}
}

// Load reads the file at path over the defaults, applies environment overrides, and validates the result.
// An empty path skips reading a file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parse config file '%s': %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML into the Config, rejecting unknown keys.
// Sequences in the document replace the defaults rather than adding to them.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings with any environment variables that are set.
func (c *Config) ApplyEnv() error {
	env := newEnvLookup()
	env.str("LOG_LEVEL", &c.Log.Level)
	env.str("LOG_FORMAT", &c.Log.Format)
	env.str("LOG_FILE", &c.Log.File)
	return errors.Join(
		env.duration("BACKOFF", &c.Backoff),
		env.duration("POLL_INTERVAL", &c.PollInterval),
		env.duration("UNIVERSE_POLL", &c.UniversePoll),
		env.boolean("SIM_GENERATOR", &c.Sim.Generator.Enabled),
		env.integer("SIM_UNIVERSE", &c.Sim.Generator.Universe),
	)
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, err
	}
	return level, nil
}

// Validate reports every problem with the Config at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Backoff < 0 {
		invalid("backoff must not be negative")
	}
	if c.PollInterval <= 0 {
		invalid("poll interval must be positive")
	}
	if c.UniversePoll <= 0 {
		invalid("universe poll interval must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		invalid("log level '%s'", c.Log.Level)
	}
	if !slices.Contains([]string{FormatAuto, FormatText, FormatJSON}, c.Log.Format) {
		invalid("log format '%s' should be one of auto, text or json", c.Log.Format)
	}

	universes := map[int]bool{}
	for _, u := range c.Sim.Universes {
		if u.ID <= 0 {
			invalid("universe ID %d must be positive", u.ID)
		}
		if universes[u.ID] {
			invalid("universe %d configured more than once", u.ID)
		}
		universes[u.ID] = true
	}
	aliases := map[int]bool{}
	for _, dev := range c.Sim.Devices {
		if aliases[dev.Alias] {
			invalid("device alias %d configured more than once", dev.Alias)
		}
		aliases[dev.Alias] = true
		if dev.Inputs < 0 || dev.Outputs < 0 {
			invalid("device %d has a negative port count", dev.Alias)
		}
		for port, universe := range dev.Patch {
			if port < 0 || port >= dev.Outputs {
				invalid("device %d has no output port %d to patch", dev.Alias, port)
			}
			if universe <= 0 {
				invalid("device %d port %d patched to invalid universe %d", dev.Alias, port, universe)
			}
		}
	}
	if gen := c.Sim.Generator; gen.Enabled {
		if !universes[gen.Universe] {
			invalid("generator universe %d is not a configured universe", gen.Universe)
		}
		if gen.Interval <= 0 {
			invalid("generator interval must be positive")
		}
	}
	return errors.Join(errs...)
}
