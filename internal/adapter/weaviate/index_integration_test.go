package weaviate_test

import (
	"context"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/buildware/kbase/internal/adapter/weaviate"
	"github.com/buildware/kbase/features/knowledge"
	"github.com/buildware/kbase/internal/testutils"
	"github.com/buildware/kbase/internal/vector"
)

// hashEmbedder derives a stable vector from the text so the container test
// needs no embedding service.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, 8)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000) / 1000.0
	}
	return vec, nil
}

func TestIndex_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()
	schemaClient := vector.NewWeaviateClientAdapter(s.Weaviate)
	require.NoError(t, vector.EnsureSchema(ctx, schemaClient))

	index := adapter.NewIndex(s.Weaviate, hashEmbedder{})

	records := []knowledge.Record{
		{
			Text: "Postgres stores the project registry",
			Metadata: knowledge.Metadata{
				ProjectCode: "devops",
				ContentHash: "hash-1",
				ChunkIndex:  0,
				TotalChunks: 1,
				Tags:        []string{"infra"},
			},
		},
		{
			Text: "__KBASE_MARKER__:devops|hash-1",
			Metadata: knowledge.Metadata{
				ProjectCode: "devops",
				ContentHash: "hash-1",
				Type:        "marker",
			},
		},
	}
	require.NoError(t, index.Add(ctx, records))

	count, err := index.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Filtered fetch without a query returns only the tagged chunk.
	got, err := index.SimilaritySearch(ctx, knowledge.SearchRequest{
		TopK:             10,
		FilterExpression: "projectCode == 'devops' && tags IN ['infra']",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Postgres stores the project registry", got[0].Text)

	// Marker scope finds the marker record.
	markers, err := index.SimilaritySearch(ctx, knowledge.SearchRequest{
		Query:            "__KBASE_MARKER__:devops|hash-1",
		TopK:             1,
		FilterExpression: "type == 'marker' && projectCode == 'devops'",
	})
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "__KBASE_MARKER__:devops|hash-1", markers[0].Text)
}
