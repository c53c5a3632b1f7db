package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/buildware/kbase/internal/middleware"
)

type ProjectCounter interface {
	Count(ctx context.Context) (int, error)
}

type RecordCounter interface {
	CountRecords(ctx context.Context) (int, error)
}

type Handler struct {
	projects ProjectCounter
	records  RecordCounter
}

func NewHandler(projects ProjectCounter, records RecordCounter) *Handler {
	return &Handler{projects: projects, records: records}
}

type StatsResponse struct {
	Projects int `json:"projects"`
	Records  int `json:"records"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pCount, err := h.projects.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count projects", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count projects", http.StatusInternalServerError)
		return
	}

	rCount, err := h.records.CountRecords(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count records", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count records", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Projects: pCount,
		Records:  rCount,
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
