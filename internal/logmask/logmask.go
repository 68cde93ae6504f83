// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logmask provides a [slog.Handler] which anonymizes
// credential bearing attributes before they reach the underlying
// handler. Request logs carry Authorization headers and access
// tokens, none of which may end up in log storage.
package logmask

import (
	"context"
	"log/slog"
)

// Anonymized is the replacement value for every masked attribute.
const Anonymized = "****"

// Handler is a [slog.Handler] which rewrites the value of every
// attribute whose key is in its mask set.
type Handler struct {
	slog slog.Handler

	masked map[string]struct{}
}

// NewHandler masks the given attribute keys on every record passed
// through h.
func NewHandler(h slog.Handler, keys ...string) *Handler {
	masked := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		masked[key] = struct{}{}
	}
	return &Handler{
		slog:   h,
		masked: masked,
	}
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	if _, ok := h.masked[a.Key]; ok {
		return slog.String(a.Key, Anonymized)
	}
	return a
}

// Enabled implements the [slog.Handler] interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the [slog.Handler] interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.mask(a))
		return true
	})

	nr := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	nr.AddAttrs(attrs...)
	return h.slog.Handle(ctx, nr)
}

// WithAttrs implements the [slog.Handler] interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &Handler{
		slog:   h.slog.WithAttrs(masked),
		masked: h.masked,
	}
}

// WithGroup implements the [slog.Handler] interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		slog:   h.slog.WithGroup(name),
		masked: h.masked,
	}
}
