package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"
)

// SyncRecorder stamps the time a project's documents were last synced.
type SyncRecorder interface {
	TouchLastSync(ctx context.Context, code string) error
}

// SyncedConsumer updates a project's last_sync_at whenever a sync event
// arrives on the knowledge.synced topic.
type SyncedConsumer struct {
	recorder SyncRecorder
}

func NewSyncedConsumer(r SyncRecorder) *SyncedConsumer {
	return &SyncedConsumer{recorder: r}
}

type syncedPayload struct {
	ProjectCode string `json:"projectCode"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
}

func (h *SyncedConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload syncedPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.ProjectCode == "" {
		slog.Error("poison pill: missing projectCode")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.recorder.TouchLastSync(ctx, payload.ProjectCode); err != nil {
		slog.Error("failed to record sync time", "error", err, "project_code", payload.ProjectCode)
		return err // Retry
	}

	slog.Info("recorded sync time", "project_code", payload.ProjectCode, "documents", payload.Documents)
	return nil
}
