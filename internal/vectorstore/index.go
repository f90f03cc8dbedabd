// Package vectorstore adapts document chunks and their embeddings to a
// similarity-searchable backing store.
package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Chunk is a single indexed unit of text with its embedding and metadata.
type Chunk struct {
	ID        uuid.UUID
	Text      string
	Embedding []float64
	DocID     string
	DocType   string
	Source    string
	ChunkIdx  int
	PriceBase int64
}

// Filter narrows a similarity search to chunks matching specific metadata.
type Filter struct {
	DocID   string
	DocType string
}

// Index is the black-box boundary between the gateway's retrieval logic
// and whatever concrete similarity-search backend stores the chunks.
type Index interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, queryVector []float64, k int, filter Filter) ([]Chunk, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Chunk, error)
}
