package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"graft/internal/ingest"
	"graft/internal/middleware"
)

// Ingester is the slice of ingest.Service the handler needs.
type Ingester interface {
	Folder(ctx context.Context, dir string) (*ingest.Stats, error)
	Files(ctx context.Context, paths []string) (*ingest.Stats, error)
	URL(ctx context.Context, rawURL string) (*ingest.Stats, error)
}

// CollectionSetter points the retriever at the freshly built collection.
type CollectionSetter interface {
	SetCollection(name string)
}

type Handler struct {
	service   Ingester
	retriever CollectionSetter
}

func NewHandler(service Ingester, retriever CollectionSetter) *Handler {
	return &Handler{service: service, retriever: retriever}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string   `json:"type"`
		Path  string   `json:"path"`
		Paths []string `json:"paths"`
		URL   string   `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var (
		stats *ingest.Stats
		err   error
	)
	switch req.Type {
	case "folder":
		if req.Path == "" {
			h.writeError(ctx, w, "VALIDATION_ERROR", "path is required for folder ingest", http.StatusBadRequest)
			return
		}
		stats, err = h.service.Folder(ctx, req.Path)
	case "files":
		stats, err = h.service.Files(ctx, req.Paths)
	case "url":
		if req.URL == "" {
			h.writeError(ctx, w, "VALIDATION_ERROR", "url is required for url ingest", http.StatusBadRequest)
			return
		}
		stats, err = h.service.URL(ctx, req.URL)
	default:
		h.writeError(ctx, w, "VALIDATION_ERROR", "type must be folder, files or url", http.StatusBadRequest)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrNotFound):
			h.writeError(ctx, w, "NOT_FOUND", err.Error(), http.StatusNotFound)
		case errors.Is(err, ingest.ErrNoFiles),
			errors.Is(err, ingest.ErrNoSupportedFiles),
			errors.Is(err, ingest.ErrUnsupportedScheme):
			h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		default:
			slog.ErrorContext(ctx, "ingest failed", "error", err, "type", req.Type)
			h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if h.retriever != nil {
		h.retriever.SetCollection(stats.Collection)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": stats}); err != nil {
		slog.Error("failed to encode response", "error", err)
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
