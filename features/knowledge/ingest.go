package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildware/kbase/internal/config"
)

// IngestService is the unconditional ingestion entry point: every call
// writes a fresh chunk batch, even for content that was ingested before.
// Deduplication on this path, if wanted, is the vector backend's concern.
type IngestService struct {
	projects ProjectLookup
	index    VectorIndex
	builder  *ChunkBuilder
	events   EventPublisher
}

// NewIngestService wires the ingestion pipeline. events may be nil; event
// publication is best-effort and never fails a request.
func NewIngestService(projects ProjectLookup, index VectorIndex, builder *ChunkBuilder, events EventPublisher) *IngestService {
	return &IngestService{projects: projects, index: index, builder: builder, events: events}
}

// Ingest validates the request, resolves the project, builds the chunk
// batch and writes it to the vector index in one call. The returned count
// is the number of records written, marker included. Ingestion never
// creates projects implicitly.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.ProjectCode) == "" {
		return nil, invalidArgument("projectCode")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalidArgument("content")
	}

	proj, err := s.projects.GetByCode(ctx, req.ProjectCode)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectCode)
	}

	records := s.builder.Build(req)
	if err := s.index.Add(ctx, records); err != nil {
		return nil, err
	}

	s.notifyIngested(ctx, req.ProjectCode, records)

	return &IngestResult{ProjectCode: req.ProjectCode, IngestedChunks: len(records)}, nil
}

func (s *IngestService) notifyIngested(ctx context.Context, projectCode string, records []Record) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"projectCode": projectCode,
		"records":     len(records),
		"contentHash": records[len(records)-1].Metadata.ContentHash,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal ingestion event", "error", err)
		return
	}
	if err := s.events.Publish(config.TopicKnowledgeIngested, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish ingestion event", "error", err, "project_code", projectCode)
	}
}
