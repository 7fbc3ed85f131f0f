package logging

import (
	"context"
	"errors"
	"log/slog"
)

var _ slog.Handler = (*multiHandler)(nil)

type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to each handler that's enabled for its level.
func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		errs = append(errs, handler.Handle(ctx, record.Clone()))
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler {
		return handler.WithAttrs(attrs)
	})
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler {
		return handler.WithGroup(name)
	})
}

func (h *multiHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	cp := &multiHandler{handlers: make([]slog.Handler, len(h.handlers))}
	for i, handler := range h.handlers {
		cp.handlers[i] = fn(handler)
	}
	return cp
}

// MergeHandlers combines handlers, so each record is written by every handler enabled for its level.
func MergeHandlers(a, b slog.Handler, others ...slog.Handler) slog.Handler {
	handlers := append([]slog.Handler{a, b}, others...)
	for _, handler := range handlers {
		if handler == nil {
			panic("nil handler")
		}
	}
	return &multiHandler{handlers: handlers}
}
