// Command olactl drives a simulated olad through the request dispatcher, for exercising it from a shell.
//
// Set OLAUI_CONFIG to the path of a YAML config file to change the simulated universes and devices.
package main

import (
	"context"
	"errors"
	"github.com/saylorsolutions/olaui/cli"
	"github.com/saylorsolutions/olaui/signalx"
	"io"
	"os"
	"syscall"
)

func main() {
	ctx, stop := signalx.ShutdownContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	a := newApp(out, errOut)
	defer a.close()
	set := commands(a)
	set.Printer().Redirect(errOut)
	if set.RespondUsage(args, "Exercises the OLA request dispatcher against a simulated olad.\nSettings are read from the YAML file named by %s, and OLAUI_ environment variables.", ConfigEnv) {
		return 0
	}
	if err := set.Exec(ctx, args); err != nil {
		if !errors.Is(err, &cli.UsageError{}) {
			set.Printer().Println("Error:", err)
		}
		return 1
	}
	return 0
}

func commands(a *app) *cli.CommandSet {
	set := cli.NewCommandSet("olactl").Before(a.setup)

	universes := set.AddCommand("universes", "Lists universes", "u").Does(a.universesCmd)
	universes.Flags().BoolP("watch", "w", false, "Keeps listing universes as they change")

	set.AddCommand("devices", "Lists devices and their ports", "d").Does(a.devicesCmd)

	patch := set.AddCommand("patch", "Patches a device port to a universe").
		Usage("DEVICE PORT UNIVERSE").
		Does(a.patchCmd)
	patch.Flags().Bool("input", false, "Patches an input port rather than an output port")
	patch.Flags().String("name", "", "Names the universe, defaults to 'Universe N'")

	set.AddCommand("unpatch", "Unpatches every port from a universe").
		Usage("UNIVERSE").
		Does(a.unpatchCmd)

	set.AddCommand("dump", "Prints the DMX data of a universe").
		Usage("UNIVERSE").
		Does(a.dumpCmd)

	monitor := set.AddCommand("monitor", "Prints DMX data as it changes", "m").
		Usage("UNIVERSE").
		Does(a.monitorCmd)
	monitor.Flags().IntP("frames", "n", 0, "Exits after this many updates, 0 to run until interrupted")

	send := set.AddCommand("send", "Sends DMX data to a universe").
		Usage("UNIVERSE [VALUE...]").
		Does(a.sendCmd)
	send.Flags().Int("start", 1, "Channel that receives the first value")
	send.Flags().Int("fill", 0, "Value for channels not given")

	set.AddCommand("name", "Renames a universe").
		Usage("UNIVERSE NAME...").
		Does(a.nameCmd)

	set.AddCommand("merge", "Sets the merge mode of a universe").
		Usage("UNIVERSE htp|ltp").
		Does(a.mergeCmd)
	return set
}
