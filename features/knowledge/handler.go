package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/buildware/kbase/internal/middleware"
)

// Handler exposes the knowledge base over HTTP.
type Handler struct {
	query  *QueryService
	ingest *IngestService
	sync   *SyncService
}

func NewHandler(query *QueryService, ingest *IngestService, sync *SyncService) *Handler {
	return &Handler{query: query, ingest: ingest, sync: sync}
}

// Search handles GET /knowledge/search?projectCode=..&query=..&topK=..&tags=..
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topK := 0
	if raw := q.Get("topK"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "topK must be an integer", http.StatusBadRequest)
			return
		}
		topK = parsed
	}

	hits, err := h.query.Query(r.Context(), q.Get("projectCode"), q.Get("query"), topK, parseTags(q["tags"]))
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	if hits == nil {
		hits = []Hit{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": hits,
		"meta": map[string]int{"count": len(hits)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// parseTags accepts both repeated tags= parameters and comma-separated
// values (tags=a,b), preserving order and dropping blanks.
func parseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// Ingest handles POST /knowledge/ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ingest.Ingest(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// SyncProject handles POST /knowledge/sync/{code}.
func (h *Handler) SyncProject(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.SyncProject(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// SyncAll handles POST /knowledge/sync.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.sync.SyncAll(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	if results == nil {
		results = []SyncResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": results,
		"meta": map[string]int{"count": len(results)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var invalid *InvalidArgumentError
	switch {
	case errors.As(err, &invalid):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrProjectNotFound):
		h.writeError(ctx, w, "NOT_FOUND", err.Error(), http.StatusNotFound)
	default:
		slog.ErrorContext(ctx, "knowledge operation failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
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
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
