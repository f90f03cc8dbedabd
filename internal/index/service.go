// Package index turns raw document/web content into priced, embedded,
// searchable chunks.
package index

import (
	"context"
	"fmt"

	"github.com/x402rag/gateway/internal/chunking"
	"github.com/x402rag/gateway/internal/embedding"
	"github.com/x402rag/gateway/internal/vectorstore"
)

// Item is a single piece of content to index.
type Item struct {
	Source   string // canonical source URI (file path or URL)
	Content  string // plain-text content already extracted from the source
	PriceUSD float64
	DocType  string // "document" or "web"
}

// IndexedDocument summarizes the result of indexing one Item.
type IndexedDocument struct {
	DocID       string
	Source      string
	ChunksCount int
}

// Service splits, prices, embeds, and stores document chunks.
type Service struct {
	splitter *chunking.Splitter
	embedder embedding.Embedder
	index    vectorstore.Index
}

// NewService constructs an indexing Service.
func NewService(splitter *chunking.Splitter, embedder embedding.Embedder, idx vectorstore.Index) *Service {
	return &Service{splitter: splitter, embedder: embedder, index: idx}
}

// IndexDocuments indexes a batch of items, continuing past errors on one
// item so a bad document doesn't block the rest of the batch.
func (s *Service) IndexDocuments(ctx context.Context, items []Item) ([]IndexedDocument, error) {
	results := make([]IndexedDocument, 0, len(items))
	var firstErr error
	for _, item := range items {
		doc, err := s.indexOne(ctx, item)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("index %q: %w", item.Source, err)
			}
			continue
		}
		results = append(results, doc)
	}
	return results, firstErr
}

func (s *Service) indexOne(ctx context.Context, item Item) (IndexedDocument, error) {
	docID := chunking.DocID(item.Source)
	texts := s.splitter.Split(item.Content)
	if len(texts) == 0 {
		return IndexedDocument{DocID: docID, Source: item.Source, ChunksCount: 0}, nil
	}

	charCounts := make([]int, len(texts))
	for i, t := range texts {
		charCounts[i] = len(t)
	}
	prices := chunking.AllocatePrices(item.PriceUSD, 6, charCounts)

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return IndexedDocument{}, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]vectorstore.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = vectorstore.Chunk{
			ID:        chunking.ChunkID(docID, i),
			Text:      text,
			Embedding: vectors[i],
			DocID:     docID,
			DocType:   item.DocType,
			Source:    item.Source,
			ChunkIdx:  i,
			PriceBase: prices[i],
		}
	}

	if err := s.index.Add(ctx, chunks); err != nil {
		return IndexedDocument{}, fmt.Errorf("store chunks: %w", err)
	}

	return IndexedDocument{DocID: docID, Source: item.Source, ChunksCount: len(chunks)}, nil
}
