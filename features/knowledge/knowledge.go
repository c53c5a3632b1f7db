package knowledge

import (
	"context"
	"errors"
	"fmt"
)

// IngestRequest is the input for ingesting free text into a project's
// knowledge base. Tags are optional and kept in the order supplied.
type IngestRequest struct {
	ProjectCode string   `json:"projectCode"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

// IngestResult reports how many records were written for one ingestion,
// marker included.
type IngestResult struct {
	ProjectCode    string `json:"projectCode"`
	IngestedChunks int    `json:"ingestedChunks"`
}

// Hit is one ranked retrieval result. Constructed fresh per query, never
// stored.
type Hit struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	DocPath    string  `json:"docPath,omitempty"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunkIndex"`
}

// Metadata is the fixed field set the knowledge base reads and writes on
// vector records. Zero values mean absent.
type Metadata struct {
	ProjectCode string   `json:"projectCode,omitempty"`
	ContentHash string   `json:"contentHash,omitempty"`
	ChunkIndex  int      `json:"chunkIndex"`
	TotalChunks int      `json:"totalChunks,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Type        string   `json:"type,omitempty"`
	DocPath     string   `json:"docPath,omitempty"`
	Title       string   `json:"title,omitempty"`
}

// Record is one storable unit handed to the vector index. Score is set only
// on search results, by the index adapter.
type Record struct {
	Text     string
	Metadata Metadata
	Score    *float64
}

// SearchRequest describes one similarity search against the vector index.
type SearchRequest struct {
	Query               string
	TopK                int
	FilterExpression    string
	SimilarityThreshold float64
}

// VectorIndex is the similarity store collaborator. Add stores the batch in
// one call; SimilaritySearch returns records best-first. Errors from either
// are propagated unmodified to callers.
type VectorIndex interface {
	Add(ctx context.Context, records []Record) error
	SimilaritySearch(ctx context.Context, req SearchRequest) ([]Record, error)
}

// ProjectRef is the read-only view of a registered project.
type ProjectRef struct {
	ID       string
	Code     string
	BasePath string
}

// ProjectLookup resolves project codes against the registry. GetByCode
// returns (nil, nil) when the code is unknown.
type ProjectLookup interface {
	GetByCode(ctx context.Context, code string) (*ProjectRef, error)
	ListAll(ctx context.Context) ([]ProjectRef, error)
}

// Splitter produces the ordered chunks of a source text.
type Splitter interface {
	Split(text string) []string
}

// EventPublisher receives best-effort notifications after successful
// ingestions.
type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// ErrProjectNotFound is returned when an operation references a project code
// that does not resolve via the registry.
var ErrProjectNotFound = errors.New("project not found")

// InvalidArgumentError names the blank required field that failed
// validation. Raised before any collaborator call.
type InvalidArgumentError struct {
	Field string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s must not be blank", e.Field)
}

func invalidArgument(field string) error {
	return &InvalidArgumentError{Field: field}
}
