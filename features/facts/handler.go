package facts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"graft/internal/facts"
	"graft/internal/middleware"
)

type Handler struct {
	service *facts.Service
}

func NewHandler(service *facts.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "content is required", http.StatusBadRequest)
		return
	}

	fact, err := h.service.Add(r.Context(), req.Title, req.Content, req.Category)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to save fact", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": fact}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		list []facts.Fact
		err  error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		list, err = h.service.Search(ctx, r.URL.Query().Get("q"))
	case r.URL.Query().Get("category") != "":
		list, err = h.service.ListByCategory(ctx, r.URL.Query().Get("category"))
	default:
		list, err = h.service.List(ctx)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to list facts", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if list == nil {
		list = []facts.Fact{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": list}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	fact, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, facts.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "fact not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to get fact", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": fact}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, facts.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "fact not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete fact", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
