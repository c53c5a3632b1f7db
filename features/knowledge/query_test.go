package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_Validation(t *testing.T) {
	index := &fakeIndex{}
	svc := NewQueryService(index)
	ctx := context.Background()

	t.Run("BlankProjectCode", func(t *testing.T) {
		_, err := svc.Query(ctx, "", "text", 5, nil)
		var invalid *InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "projectCode", invalid.Field)
		assert.Empty(t, index.requests, "the index must not be consulted")
	})

	t.Run("BlankQueryWithoutTags", func(t *testing.T) {
		_, err := svc.Query(ctx, "acme", "  ", 5, nil)
		var invalid *InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "query", invalid.Field)
	})

	t.Run("BlankQueryWithOnlyBlankTags", func(t *testing.T) {
		_, err := svc.Query(ctx, "acme", "", 5, []string{" ", ""})
		var invalid *InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "query", invalid.Field)
	})

	t.Run("BlankQueryWithTagsAllowed", func(t *testing.T) {
		_, err := svc.Query(ctx, "acme", "", 5, []string{"core"})
		assert.NoError(t, err)
	})
}

func TestQueryService_TopKNormalization(t *testing.T) {
	tests := []struct {
		name string
		topK int
		want int
	}{
		{"ZeroDefaults", 0, 5},
		{"NegativeDefaults", -3, 5},
		{"InRangeKept", 7, 7},
		{"Clamped", 1000, 50},
		{"AtMax", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &fakeIndex{}
			svc := NewQueryService(index)

			_, err := svc.Query(context.Background(), "acme", "text", tt.topK, nil)
			require.NoError(t, err)
			require.Len(t, index.requests, 1)
			assert.Equal(t, tt.want, index.requests[0].TopK)
		})
	}
}

func TestQueryService_SearchRequest(t *testing.T) {
	index := &fakeIndex{}
	svc := NewQueryService(index)

	_, err := svc.Query(context.Background(), "acme", "how to deploy", 10, []string{"ops", ""})
	require.NoError(t, err)
	require.Len(t, index.requests, 1)

	req := index.requests[0]
	assert.Equal(t, "how to deploy", req.Query)
	assert.Equal(t, "projectCode == 'acme' && tags IN ['ops']", req.FilterExpression)
	assert.InDelta(t, 0.30, req.SimilarityThreshold, 1e-9)
}

func TestQueryService_HitMapping(t *testing.T) {
	score := 0.87
	index := &fakeIndex{results: []Record{
		{
			Text:  "best match",
			Score: &score,
			Metadata: Metadata{
				DocPath:    "guides/a.md",
				Title:      "Guide A",
				ChunkIndex: 3,
			},
		},
		{
			// No score, no optional metadata: defaults apply.
			Text:     "second match",
			Metadata: Metadata{},
		},
	}}
	svc := NewQueryService(index)

	hits, err := svc.Query(context.Background(), "acme", "text", 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, Hit{
		Text:       "best match",
		Score:      0.87,
		DocPath:    "guides/a.md",
		Title:      "Guide A",
		ChunkIndex: 3,
	}, hits[0])

	assert.Equal(t, Hit{Text: "second match"}, hits[1])
}

func TestQueryService_OrderPreserved(t *testing.T) {
	index := &fakeIndex{results: []Record{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	}}
	svc := NewQueryService(index)

	hits, err := svc.Query(context.Background(), "acme", "text", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", hits[0].Text)
	assert.Equal(t, "b", hits[1].Text)
	assert.Equal(t, "c", hits[2].Text)
}

func TestQueryService_IndexErrorPropagates(t *testing.T) {
	boom := errors.New("backend unreachable")
	svc := NewQueryService(&fakeIndex{searchErr: boom})

	_, err := svc.Query(context.Background(), "acme", "text", 5, nil)
	assert.ErrorIs(t, err, boom)
}
