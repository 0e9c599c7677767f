package log

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/async-sched/internal/connid"
)

// ContextHandler wraps an slog.Handler and automatically extracts conn_id
// from the context of each log record. Unlike a per-request ID, the
// conn_id here is stable across every message a connection dispatches, so
// the same value threads through many log lines for the connection's
// whole lifetime rather than tagging a single request/response pair.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler returns a handler that enriches every record with
// context values (currently conn_id) before delegating to inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := connid.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("conn_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
