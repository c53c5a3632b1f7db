package knowledge

import (
	"context"
	"strings"
)

const (
	// DefaultTopK applies when the caller supplies no positive topK.
	DefaultTopK = 5
	// MaxTopK caps caller-supplied topK values.
	MaxTopK = 50
	// ScoreFloor excludes low-relevance matches before results are
	// returned. Tunable here, never caller-supplied.
	ScoreFloor = 0.30
)

// QueryService answers similarity queries scoped to a project. It builds the
// filter expression, delegates the search to the vector index and maps raw
// records to hits in the order the index returned them.
type QueryService struct {
	index VectorIndex
}

func NewQueryService(index VectorIndex) *QueryService {
	return &QueryService{index: index}
}

// Query runs a similarity search. projectCode must be non-blank. A blank
// query is allowed only when at least one non-blank tag is supplied (pure
// tag browsing); otherwise the query text is required. topK values <= 0
// default to DefaultTopK and larger values are clamped to MaxTopK.
func (s *QueryService) Query(ctx context.Context, projectCode, query string, topK int, tags []string) ([]Hit, error) {
	if strings.TrimSpace(projectCode) == "" {
		return nil, invalidArgument("projectCode")
	}
	if strings.TrimSpace(query) == "" && !hasNonBlankTag(tags) {
		return nil, invalidArgument("query")
	}

	effectiveTopK := topK
	if effectiveTopK <= 0 {
		effectiveTopK = DefaultTopK
	} else if effectiveTopK > MaxTopK {
		effectiveTopK = MaxTopK
	}

	records, err := s.index.SimilaritySearch(ctx, SearchRequest{
		Query:               query,
		TopK:                effectiveTopK,
		FilterExpression:    BuildFilter(projectCode, tags),
		SimilarityThreshold: ScoreFloor,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, toHit(rec))
	}
	return hits, nil
}

// toHit reads the fields retrieval exposes. A missing score defaults to 0.0
// rather than failing the query; ranking display is best-effort.
func toHit(rec Record) Hit {
	hit := Hit{
		Text:       rec.Text,
		DocPath:    rec.Metadata.DocPath,
		Title:      rec.Metadata.Title,
		ChunkIndex: rec.Metadata.ChunkIndex,
	}
	if rec.Score != nil {
		hit.Score = *rec.Score
	}
	return hit
}
