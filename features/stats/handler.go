package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"graft/internal/middleware"
	"graft/internal/vector"
)

type Retriever interface {
	Collection() string
}

type VectorIndex interface {
	Count(ctx context.Context, collection string) (int, error)
}

type Handler struct {
	retriever Retriever
	index     VectorIndex
}

func NewHandler(retriever Retriever, index VectorIndex) *Handler {
	return &Handler{retriever: retriever, index: index}
}

type StatsResponse struct {
	Loaded         bool   `json:"loaded"`
	ChunkCount     int    `json:"chunk_count"`
	CollectionName string `json:"collection_name,omitempty"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := StatsResponse{}
	if name := h.retriever.Collection(); name != "" {
		count, err := h.index.Count(ctx, name)
		switch {
		case errors.Is(err, vector.ErrCollectionNotFound):
			// Collection was pointed at but never built; report unloaded.
		case err != nil:
			slog.ErrorContext(ctx, "failed to count chunks", "error", err, "collection", name)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
			return
		default:
			resp = StatsResponse{Loaded: count > 0, ChunkCount: count, CollectionName: name}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
