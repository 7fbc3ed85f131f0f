package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/olaui/cli"
	"github.com/saylorsolutions/olaui/dispatch"
	"github.com/saylorsolutions/olaui/ola"
	flag "github.com/spf13/pflag"
	"slices"
	"strconv"
	"strings"
)

func (a *app) universesCmd(ctx context.Context, flags *flag.FlagSet, _ *cli.Printer) error {
	if err := cli.RequireArgs(flags.Args(), 0, 0); err != nil {
		return err
	}
	watch, _ := flags.GetBool("watch")
	var (
		last      []ola.Universe
		scheduled bool
	)
	return a.run(ctx, func(sess *session) {
		pull := func() {
			err := sess.PullUniverses(func(status ola.RequestStatus, universes []ola.Universe) {
				if sess.check("pull universes", nil, status) {
					return
				}
				if !watch {
					printUniverses(a.out, universes)
					sess.done(nil)
					return
				}
				if last == nil || !slices.Equal(last, universes) {
					last = universes
					printUniverses(a.out, universes)
				}
			})
			if watch && errors.Is(err, dispatch.ErrNotConnected) {
				return
			}
			sess.check("pull universes", err)
		}
		pull()
		if watch && !scheduled {
			scheduled = true
			a.loop.Every(a.cfg.UniversePoll, pull)
		}
	})
}

func (a *app) devicesCmd(ctx context.Context, flags *flag.FlagSet, _ *cli.Printer) error {
	if err := cli.RequireArgs(flags.Args(), 0, 0); err != nil {
		return err
	}
	return a.run(ctx, func(sess *session) {
		err := sess.PullDevices(func(status ola.RequestStatus, devices []ola.Device) {
			if sess.check("pull devices", nil, status) {
				return
			}
			printDevices(a.out, devices)
			sess.done(nil)
		})
		sess.check("pull devices", err)
	})
}

func (a *app) patchCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	vals, err := cli.IntArgs(flags.Args(), "DEVICE", "PORT", "UNIVERSE")
	if err != nil {
		return err
	}
	alias, port, universe := vals[0], vals[1], vals[2]
	input, _ := flags.GetBool("input")
	name, _ := flags.GetString("name")
	if len(name) == 0 {
		name = fmt.Sprintf("Universe %d", universe)
	}
	return a.run(ctx, func(sess *session) {
		err := sess.Patch(alias, port, !input, universe, name, func(status ola.RequestStatus) {
			if sess.check("patch", nil, status) {
				return
			}
			p.Printf("Patched device %d port %d to universe %d\n", alias, port, universe)
			a.listUniverses(sess)
		})
		sess.check("patch", err)
	})
}

// listUniverses prints universes, and then finishes the command.
func (a *app) listUniverses(sess *session) {
	err := sess.PullUniverses(func(status ola.RequestStatus, universes []ola.Universe) {
		if sess.check("pull universes", nil, status) {
			return
		}
		printUniverses(a.out, universes)
		sess.done(nil)
	})
	sess.check("pull universes", err)
}

func (a *app) unpatchCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	vals, err := cli.IntArgs(flags.Args(), "UNIVERSE")
	if err != nil {
		return err
	}
	universe := vals[0]
	return a.run(ctx, func(sess *session) {
		// Unpatching reports nothing when no ports match, so count what to expect first.
		err := sess.PullDevices(func(status ola.RequestStatus, devices []ola.Device) {
			if sess.check("pull devices", nil, status) {
				return
			}
			var expected int
			for _, dev := range devices {
				expected += len(dev.PatchedPorts(universe))
			}
			if expected == 0 {
				p.Printf("No ports are patched to universe %d\n", universe)
				sess.done(nil)
				return
			}
			var unpatched int
			err := sess.Unpatch(universe, func(status ola.RequestStatus) {
				if sess.check("unpatch", nil, status) {
					return
				}
				unpatched++
				if unpatched == expected {
					p.Printf("Unpatched %d port(s) from universe %d\n", unpatched, universe)
					sess.done(nil)
				}
			})
			sess.check("unpatch", err)
		})
		sess.check("pull devices", err)
	})
}

func (a *app) dumpCmd(ctx context.Context, flags *flag.FlagSet, _ *cli.Printer) error {
	vals, err := cli.IntArgs(flags.Args(), "UNIVERSE")
	if err != nil {
		return err
	}
	return a.run(ctx, func(sess *session) {
		err := sess.FetchDmx(vals[0], func(status ola.RequestStatus, _ int, data []byte) {
			if sess.check("fetch DMX", nil, status) {
				return
			}
			printDmx(a.out, data, termWidth(a.out))
			sess.done(nil)
		})
		sess.check("fetch DMX", err)
	})
}

func (a *app) monitorCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	vals, err := cli.IntArgs(flags.Args(), "UNIVERSE")
	if err != nil {
		return err
	}
	universe := vals[0]
	limit, _ := flags.GetInt("frames")
	if limit < 0 {
		return cli.NewUsageError("frames must not be negative")
	}
	var frames int
	show := func(data []byte) {
		frames++
		_, _ = fmt.Fprintf(a.out, "Universe %d, frame %d\n", universe, frames)
		printDmx(a.out, data, termWidth(a.out))
	}
	return a.run(ctx, func(sess *session) {
		err := sess.FetchDmx(universe, func(status ola.RequestStatus, _ int, data []byte) {
			if sess.check("fetch DMX", nil, status) {
				return
			}
			_, _ = fmt.Fprintf(a.out, "Universe %d, current\n", universe)
			printDmx(a.out, data, termWidth(a.out))
		})
		if sess.check("fetch DMX", err) {
			return
		}
		err = sess.StartDmxListener(universe, func(data []byte) {
			if limit > 0 && frames >= limit {
				return
			}
			show(data)
			if limit > 0 && frames == limit {
				err := sess.StopDmxListener(universe, func(status ola.RequestStatus) {
					if sess.check("stop listening", nil, status) {
						return
					}
					sess.done(nil)
				})
				sess.check("stop listening", err)
			}
		}, func(status ola.RequestStatus) {
			if sess.check("listen", nil, status) {
				return
			}
			p.Printf("Listening to universe %d\n", universe)
		})
		sess.check("listen", err)
	})
}

// parseFrame builds a full universe, with values starting at the given channel and every other channel set to fill.
func parseFrame(values []string, start, fill int) ([]byte, error) {
	if fill < 0 || fill > 255 {
		return nil, cli.NewUsageError("fill value %d is out of range", fill)
	}
	if start < 1 || start-1+len(values) > ola.UniverseSize {
		return nil, cli.NewUsageError("channels %d to %d don't fit in a universe", start, start-1+len(values))
	}
	frame := slices.Repeat([]byte{byte(fill)}, ola.UniverseSize)
	for i, sval := range values {
		val, err := strconv.ParseUint(sval, 10, 8)
		if err != nil {
			return nil, cli.NewUsageError("channel %d value '%s' should be 0-255", start+i, sval)
		}
		frame[start-1+i] = byte(val)
	}
	return frame, nil
}

func (a *app) sendCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	args := flags.Args()
	if err := cli.RequireArgs(args, 1, -1); err != nil {
		return err
	}
	vals, err := cli.IntArgs(args[:1], "UNIVERSE")
	if err != nil {
		return err
	}
	start, _ := flags.GetInt("start")
	fill, _ := flags.GetInt("fill")
	frame, err := parseFrame(args[1:], start, fill)
	if err != nil {
		return err
	}
	universe := vals[0]
	return a.run(ctx, func(sess *session) {
		err := sess.SendDmx(universe, frame, func(status ola.RequestStatus) {
			if sess.check("send DMX", nil, status) {
				return
			}
			p.Printf("Sent %d channel(s) to universe %d\n", len(args)-1, universe)
			sess.done(nil)
		})
		sess.check("send DMX", err)
	})
}

func (a *app) nameCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	args := flags.Args()
	if err := cli.RequireArgs(args, 2, -1); err != nil {
		return err
	}
	vals, err := cli.IntArgs(args[:1], "UNIVERSE")
	if err != nil {
		return err
	}
	universe, name := vals[0], strings.Join(args[1:], " ")
	return a.run(ctx, func(sess *session) {
		err := sess.SetUniverseName(universe, name, func(status ola.RequestStatus) {
			if sess.check("name universe", nil, status) {
				return
			}
			p.Printf("Named universe %d '%s'\n", universe, name)
			sess.done(nil)
		})
		sess.check("name universe", err)
	})
}

func (a *app) mergeCmd(ctx context.Context, flags *flag.FlagSet, p *cli.Printer) error {
	args := flags.Args()
	if err := cli.RequireArgs(args, 2, 2); err != nil {
		return err
	}
	vals, err := cli.IntArgs(args[:1], "UNIVERSE")
	if err != nil {
		return err
	}
	mode, err := ola.ParseMergeMode(args[1])
	if err != nil {
		return cli.NewUsageError("%w", err)
	}
	universe := vals[0]
	return a.run(ctx, func(sess *session) {
		err := sess.SetMergeMode(universe, mode, func(status ola.RequestStatus) {
			if sess.check("set merge mode", nil, status) {
				return
			}
			p.Printf("Universe %d now uses %s merging\n", universe, mode)
			sess.done(nil)
		})
		sess.check("set merge mode", err)
	})
}
