package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/x402rag/gateway/internal/chunking"
	"github.com/x402rag/gateway/internal/embedding"
	"github.com/x402rag/gateway/internal/vectorstore"
)

// Service retrieves chunks from the vector index, independent of payment.
// It knows nothing about x402 — RetrievalPipeline composes it with the
// purchase ledger and payment handler.
type Service struct {
	embedder           embedding.Embedder
	index              vectorstore.Index
	maxRetrievedChunks int
}

// NewService constructs a retrieval Service.
func NewService(embedder embedding.Embedder, index vectorstore.Index, maxRetrievedChunks int) *Service {
	if maxRetrievedChunks <= 0 {
		maxRetrievedChunks = 100
	}
	return &Service{embedder: embedder, index: index, maxRetrievedChunks: maxRetrievedChunks}
}

// Search finds the k chunks most similar to query, optionally narrowed by filter.
func (s *Service) Search(ctx context.Context, query string, k int, filter vectorstore.Filter) ([]vectorstore.Chunk, error) {
	if k <= 0 || k > s.maxRetrievedChunks {
		k = s.maxRetrievedChunks
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.index.Search(ctx, queryVector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return chunks, nil
}

// GetChunkRange fetches chunks [startChunk, endChunk] (inclusive) of a document.
// If endChunk < startChunk it defaults to fetching just startChunk.
func (s *Service) GetChunkRange(ctx context.Context, docID string, startChunk, endChunk int) ([]vectorstore.Chunk, error) {
	if endChunk < startChunk {
		endChunk = startChunk
	}

	requestedCount := endChunk - startChunk + 1
	if requestedCount > s.maxRetrievedChunks {
		endChunk = startChunk + s.maxRetrievedChunks - 1
	}

	ids := make([]uuid.UUID, 0, endChunk-startChunk+1)
	for i := startChunk; i <= endChunk; i++ {
		ids = append(ids, chunking.ChunkID(docID, i))
	}

	chunks, err := s.index.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get chunks by id: %w", err)
	}
	return chunks, nil
}
