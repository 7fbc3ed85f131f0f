package logging

import (
	"context"
	"log/slog"
	"slices"
)

var _ slog.Handler = (*DedupeHandler)(nil)

// DedupeHandler keeps only the latest value for each attribute key.
// Loggers are derived per session and per request, and a key set at both levels should be written once.
type DedupeHandler struct {
	group string
	attrs []slog.Attr
	impl  slog.Handler
}

func NewDedupeHandler(impl slog.Handler) *DedupeHandler {
	if impl == nil {
		panic("nil implementing handler")
	}
	return &DedupeHandler{impl: impl}
}

func (h *DedupeHandler) prefix() string {
	if len(h.group) == 0 {
		return ""
	}
	return h.group + "."
}

func (h *DedupeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.impl.Enabled(ctx, level)
}

func (h *DedupeHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := h.attrs
	if record.NumAttrs() > 0 {
		merged := h.withAttrs(nil)
		record.Attrs(func(attr slog.Attr) bool {
			merged.set(attr)
			return true
		})
		attrs = merged.attrs
		record = slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	}
	record.AddAttrs(attrs...)
	return h.impl.Handle(ctx, record)
}

func (h *DedupeHandler) set(attr slog.Attr) {
	attr.Key = h.prefix() + attr.Key
	idx := slices.IndexFunc(h.attrs, func(existing slog.Attr) bool {
		return existing.Key == attr.Key
	})
	if idx >= 0 {
		h.attrs[idx] = attr
		return
	}
	h.attrs = append(h.attrs, attr)
}

func (h *DedupeHandler) withAttrs(attrs []slog.Attr) *DedupeHandler {
	cp := &DedupeHandler{
		group: h.group,
		attrs: slices.Clone(h.attrs),
		impl:  h.impl,
	}
	for _, attr := range attrs {
		cp.set(attr)
	}
	return cp
}

func (h *DedupeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.withAttrs(attrs)
}

// WithGroup qualifies later keys with the group name, rather than nesting them.
func (h *DedupeHandler) WithGroup(name string) slog.Handler {
	if len(name) == 0 {
		return h
	}
	cp := h.withAttrs(nil)
	cp.group = cp.prefix() + name
	return cp
}
