package knowledge

// MarkerPrefix starts the text of every marker record. The remainder of the
// marker text is the idempotency key for one project+content version.
const MarkerPrefix = "__KBASE_MARKER__:"

const typeMarker = "marker"

// ChunkBuilder turns ingestion input into the ordered record batch handed to
// the vector index: content chunks first, then exactly one marker record.
type ChunkBuilder struct {
	splitter Splitter
}

func NewChunkBuilder(splitter Splitter) *ChunkBuilder {
	return &ChunkBuilder{splitter: splitter}
}

// Build returns the records for a direct ingestion: N content chunks in
// splitter order, each stamped with chunkIndex and the final totalChunks,
// followed by one marker. Tags, when present, are copied onto every content
// chunk. Callers pass the whole slice to VectorIndex.Add in a single batch.
func (b *ChunkBuilder) Build(req IngestRequest) []Record {
	contentHash := ContentHash(req.Content)
	pieces := b.splitter.Split(req.Content)

	records := make([]Record, 0, len(pieces)+1)
	for i, piece := range pieces {
		md := Metadata{
			ProjectCode: req.ProjectCode,
			ContentHash: contentHash,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
		}
		if len(req.Tags) > 0 {
			md.Tags = req.Tags
		}
		records = append(records, Record{Text: piece, Metadata: md})
	}

	records = append(records, Record{
		Text: MarkerText(req.ProjectCode, contentHash),
		Metadata: Metadata{
			Type:        typeMarker,
			ProjectCode: req.ProjectCode,
			ContentHash: contentHash,
		},
	})
	return records
}

// BuildDocument returns the records for one synced file. The marker key
// additionally carries the document's relative path, so re-syncing detects
// per-file changes, and every chunk carries docPath and title for retrieval
// display.
func (b *ChunkBuilder) BuildDocument(projectCode, docPath, title, content string) []Record {
	contentHash := ContentHash(content)
	pieces := b.splitter.Split(content)

	records := make([]Record, 0, len(pieces)+1)
	for i, piece := range pieces {
		records = append(records, Record{
			Text: piece,
			Metadata: Metadata{
				ProjectCode: projectCode,
				ContentHash: contentHash,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
				DocPath:     docPath,
				Title:       title,
			},
		})
	}

	records = append(records, Record{
		Text: DocumentMarkerText(projectCode, docPath, contentHash),
		Metadata: Metadata{
			Type:        typeMarker,
			ProjectCode: projectCode,
			ContentHash: contentHash,
			DocPath:     docPath,
		},
	})
	return records
}

// MarkerText is the idempotency key for directly ingested content.
func MarkerText(projectCode, contentHash string) string {
	return MarkerPrefix + projectCode + "|" + contentHash
}

// DocumentMarkerText is the idempotency key for a synced file.
func DocumentMarkerText(projectCode, docPath, contentHash string) string {
	return MarkerPrefix + projectCode + "|" + docPath + "|" + contentHash
}
