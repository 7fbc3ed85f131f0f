// Package logging builds the [slog.Logger] used by olactl from configuration.
package logging

import (
	"fmt"
	"github.com/saylorsolutions/olaui/config"
	"golang.org/x/term"
	"io"
	"log/slog"
	"os"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// NewHandler creates a handler writing to w in the given format.
// The auto format writes text to terminals and JSON to anything else.
func NewHandler(w io.Writer, format string, level slog.Leveler) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case config.FormatAuto:
		if IsTerminal(w) {
			return slog.NewTextHandler(w, opts), nil
		}
		return slog.NewJSONHandler(w, opts), nil
	case config.FormatText:
		return slog.NewTextHandler(w, opts), nil
	case config.FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format '%s'", format)
	}
}

// New creates a logger writing to w, and to the configured log file if there is one.
// The returned closer closes the log file, and must be called once logging is done.
func New(cfg config.Log, w io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	handler, err := NewHandler(w, cfg.Format, level)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.File) == 0 {
		return slog.New(NewDedupeHandler(handler)), nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(NewDedupeHandler(MergeHandlers(handler, fileHandler))), f, nil
}
