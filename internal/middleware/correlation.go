// Package middleware carries a per-request correlation id through the
// HTTP layer so responses, query logs and slog records can be tied back
// to the request that caused them.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey struct{}

const headerName = "X-Correlation-ID"

// CorrelationID adopts the caller-supplied correlation id, minting one
// when the header is absent, and logs the request round trip. The id is
// echoed back on the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerName)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(headerName, id)

		start := time.Now()
		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path) // #nosec G706 -- r.URL.Path is parsed by Go's net/http

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path, // #nosec G706
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// GetCorrelationID returns the request's correlation id, or "" outside
// a request scope.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
