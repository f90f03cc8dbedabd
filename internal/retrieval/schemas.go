package retrieval

import "github.com/x402rag/gateway/internal/vectorstore"

// ChunkMetadata is the identifying and pricing metadata attached to a
// chunk surfaced to the caller, with no embedding vector.
type ChunkMetadata struct {
	Source  string `json:"source"`
	DocType string `json:"doc_type"`
	DocID   string `json:"doc_id"`
	ChunkID string `json:"chunk_id"`
	Price   int64  `json:"price"`
}

// ChunkResult is a single chunk surfaced to the caller.
type ChunkResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult is the response body of a similarity search.
type SearchResult struct {
	Chunks []ChunkResult `json:"chunks"`
	Total  int           `json:"total"`
}

// ChunkRangeResult is the response body of a chunk-range fetch.
type ChunkRangeResult struct {
	DocID  string        `json:"doc_id"`
	Chunks []ChunkResult `json:"chunks"`
	Total  int           `json:"total"`
}

func toChunkResults(chunks []vectorstore.Chunk) []ChunkResult {
	out := make([]ChunkResult, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, ChunkResult{
			Text: c.Text,
			Metadata: ChunkMetadata{
				Source:  c.Source,
				DocType: c.DocType,
				DocID:   c.DocID,
				ChunkID: c.ID.String(),
				Price:   c.PriceBase,
			},
		})
	}
	return out
}
