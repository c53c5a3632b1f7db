package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/buildware/kbase/features/knowledge"
	"github.com/buildware/kbase/internal/vector"
)

// Embedder turns text into a vector. Queries and stored records go through
// the same embedder so distances are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index stores and searches knowledge records in Weaviate. It implements
// knowledge.VectorIndex.
type Index struct {
	client   *weaviate.Client
	embedder Embedder
}

func NewIndex(client *weaviate.Client, embedder Embedder) *Index {
	return &Index{client: client, embedder: embedder}
}

// Add embeds and stores the batch in a single batcher call. Any failure,
// embedding included, fails the whole batch.
func (ix *Index) Add(ctx context.Context, records []knowledge.Record) error {
	if len(records) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(records))
	for _, rec := range records {
		vec, err := ix.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return fmt.Errorf("embed record: %w", err)
		}
		objects = append(objects, &models.Object{
			Class:      vector.ClassName,
			Properties: recordProperties(rec),
			Vector:     vec,
		})
	}

	resp, err := ix.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch store: %s", obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// SimilaritySearch runs a filtered vector search and returns records
// best-first. A blank query skips embedding and falls back to a plain
// filtered fetch with no scores, which the tags-only search path relies on.
func (ix *Index) SimilaritySearch(ctx context.Context, req knowledge.SearchRequest) ([]knowledge.Record, error) {
	where, err := parseFilter(req.FilterExpression)
	if err != nil {
		return nil, err
	}

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "projectCode"},
		{Name: "contentHash"},
		{Name: "chunkIndex"},
		{Name: "totalChunks"},
		{Name: "tags"},
		{Name: "type"},
		{Name: "docPath"},
		{Name: "title"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	builder := ix.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithLimit(req.TopK).
		WithFields(fields...)
	if where != nil {
		builder = builder.WithWhere(where)
	}

	query := strings.TrimSpace(req.Query)
	if query != "" {
		vec, err := ix.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		nearVector := ix.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
		builder = builder.WithNearVector(nearVector)
	}

	res, err := builder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var records []knowledge.Record
	for _, props := range extractObjects(res.Data) {
		rec := toRecord(props)
		if query != "" && rec.Score != nil && *rec.Score < req.SimilarityThreshold {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// CountRecords reports how many objects the class holds, markers included.
func (ix *Index) CountRecords(ctx context.Context) (int, error) {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}
	res, err := ix.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	if agg, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if rows, ok := agg[vector.ClassName].([]interface{}); ok && len(rows) > 0 {
			if row, ok := rows[0].(map[string]interface{}); ok {
				if metaVal, ok := row["meta"].(map[string]interface{}); ok {
					if count, ok := metaVal["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}

func recordProperties(rec knowledge.Record) map[string]interface{} {
	m := rec.Metadata
	props := map[string]interface{}{
		"content":    rec.Text,
		"chunkIndex": m.ChunkIndex,
	}
	if m.ProjectCode != "" {
		props["projectCode"] = m.ProjectCode
	}
	if m.ContentHash != "" {
		props["contentHash"] = m.ContentHash
	}
	if m.TotalChunks != 0 {
		props["totalChunks"] = m.TotalChunks
	}
	if len(m.Tags) > 0 {
		props["tags"] = m.Tags
	}
	if m.Type != "" {
		props["type"] = m.Type
	}
	if m.DocPath != "" {
		props["docPath"] = m.DocPath
	}
	if m.Title != "" {
		props["title"] = m.Title
	}
	return props
}

func extractObjects(data map[string]models.JSONObject) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := get[vector.ClassName].([]interface{})
	if !ok {
		return nil
	}
	objects := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		if props, ok := r.(map[string]interface{}); ok {
			objects = append(objects, props)
		}
	}
	return objects
}

func toRecord(props map[string]interface{}) knowledge.Record {
	var rec knowledge.Record
	if content, ok := props["content"].(string); ok {
		rec.Text = content
	}
	if v, ok := props["projectCode"].(string); ok {
		rec.Metadata.ProjectCode = v
	}
	if v, ok := props["contentHash"].(string); ok {
		rec.Metadata.ContentHash = v
	}
	if v, ok := props["chunkIndex"].(float64); ok {
		rec.Metadata.ChunkIndex = int(v)
	}
	if v, ok := props["totalChunks"].(float64); ok {
		rec.Metadata.TotalChunks = int(v)
	}
	if raw, ok := props["tags"].([]interface{}); ok {
		for _, t := range raw {
			if tag, ok := t.(string); ok {
				rec.Metadata.Tags = append(rec.Metadata.Tags, tag)
			}
		}
	}
	if v, ok := props["type"].(string); ok {
		rec.Metadata.Type = v
	}
	if v, ok := props["docPath"].(string); ok {
		rec.Metadata.DocPath = v
	}
	if v, ok := props["title"].(string); ok {
		rec.Metadata.Title = v
	}

	if additional, ok := props["_additional"].(map[string]interface{}); ok {
		// Certainty arrives as a float in current server releases but as a
		// string in some older ones.
		if raw, ok := additional["certainty"].(float64); ok {
			rec.Score = &raw
		} else if raw, ok := additional["certainty"].(string); ok {
			var score float64
			if _, err := fmt.Sscanf(raw, "%f", &score); err == nil {
				rec.Score = &score
			}
		}
	}
	return rec
}
