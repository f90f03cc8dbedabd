package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is an in-process flat Index, used for tests and the fake
// embedding development path.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[uuid.UUID]Chunk
}

// NewMemoryIndex constructs an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{chunks: make(map[uuid.UUID]Chunk)}
}

func (m *MemoryIndex) Add(_ context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, queryVector []float64, k int, filter Filter) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		chunk Chunk
		score float64
	}
	var candidates []scored
	for _, c := range m.chunks {
		if filter.DocID != "" && c.DocID != filter.DocID {
			continue
		}
		if filter.DocType != "" && c.DocType != filter.DocType {
			continue
		}
		candidates = append(candidates, scored{chunk: c, score: cosineSimilarity(queryVector, c.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if k > len(candidates) {
		k = len(candidates)
	}
	result := make([]Chunk, k)
	for i := 0; i < k; i++ {
		result[i] = candidates[i].chunk
	}
	return result, nil
}

func (m *MemoryIndex) GetByIDs(_ context.Context, ids []uuid.UUID) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Chunk
	for _, id := range ids {
		if c, ok := m.chunks[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// cosineSimilarity computes the cosine similarity between two vectors of
// equal length. Mismatched or zero-length vectors score zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
