// Package logger decorates slog handlers with request-scoped context.
package logger

import (
	"context"
	"log/slog"

	"graft/internal/middleware"
)

// ContextHandler stamps every record with the correlation id found in
// the context, so call sites log via the *Context variants and never
// thread the id by hand.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}
