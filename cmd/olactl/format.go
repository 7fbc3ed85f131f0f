package main

import (
	"fmt"
	"github.com/saylorsolutions/olaui/ola"
	"golang.org/x/term"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

const defaultWidth = 80

// termWidth returns the width of w if it's a terminal, or a default.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

func printUniverses(w io.Writer, universes []ola.Universe) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tMERGE")
	for _, u := range universes {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.MergeMode)
	}
	_ = tw.Flush()
}

func printDevices(w io.Writer, devices []ola.Device) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ALIAS\tDEVICE\tPORT\tUNIVERSE\tDESCRIPTION")
	for _, dev := range devices {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t\t\t\n", dev.Alias, dev.Name)
		for _, port := range dev.Ports() {
			direction := "IN"
			if port.IsOutput {
				direction = "OUT"
			}
			universe := "-"
			if port.Active {
				universe = fmt.Sprint(port.Universe)
			}
			_, _ = fmt.Fprintf(tw, "\t\t%s %d\t%s\t%s\n", direction, port.ID, universe, port.Description)
		}
	}
	_ = tw.Flush()
}

// printDmx writes channel values in rows that fit within width, each row labelled with its first channel.
// Channels are numbered from 1.
func printDmx(w io.Writer, data []byte, width int) {
	perRow := (width - 5) / 4
	perRow = max(perRow-perRow%8, 8)
	var buf strings.Builder
	for start := 0; start < len(data); start += perRow {
		end := min(start+perRow, len(data))
		buf.WriteString(fmt.Sprintf("%3d:", start+1))
		for _, val := range data[start:end] {
			buf.WriteString(fmt.Sprintf(" %3d", val))
		}
		buf.WriteString("\n")
	}
	_, _ = io.WriteString(w, buf.String())
}
