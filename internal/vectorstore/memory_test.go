package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryIndex_SearchRanksBySimilarity(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	a := Chunk{ID: uuid.New(), Embedding: []float64{1, 0, 0}, DocID: "doc1"}
	b := Chunk{ID: uuid.New(), Embedding: []float64{0, 1, 0}, DocID: "doc1"}
	c := Chunk{ID: uuid.New(), Embedding: []float64{0.9, 0.1, 0}, DocID: "doc1"}

	if err := idx.Add(ctx, []Chunk{a, b, c}); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := idx.Search(ctx, []float64{1, 0, 0}, 2, Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != a.ID {
		t.Errorf("expected closest match first, got %v", results[0].ID)
	}
	if results[1].ID != c.ID {
		t.Errorf("expected second closest match second, got %v", results[1].ID)
	}
}

func TestMemoryIndex_SearchFiltersByDocID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	a := Chunk{ID: uuid.New(), Embedding: []float64{1, 0}, DocID: "doc1"}
	b := Chunk{ID: uuid.New(), Embedding: []float64{1, 0}, DocID: "doc2"}
	_ = idx.Add(ctx, []Chunk{a, b})

	results, err := idx.Search(ctx, []float64{1, 0}, 10, Filter{DocID: "doc2"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != b.ID {
		t.Fatalf("expected only doc2's chunk, got %v", results)
	}
}

func TestMemoryIndex_GetByIDs(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	a := Chunk{ID: uuid.New(), Text: "hello"}
	b := Chunk{ID: uuid.New(), Text: "world"}
	_ = idx.Add(ctx, []Chunk{a, b})

	missing := uuid.New()
	results, err := idx.GetByIDs(ctx, []uuid.UUID{a.ID, missing, b.ID})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 found chunks, got %d", len(results))
	}
}
