// Package embedding dispatches text embedding to a configured provider.
// The embedding model itself is an external collaborator; this package
// only owns the HTTP call to reach it and the provider selection.
package embedding

import (
	"context"
	"fmt"

	"github.com/x402rag/gateway/internal/config"
)

// Embedder converts text into vector embeddings.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	Dimensions() int
}

// New builds the Embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAI(cfg), nil
	case "gemini":
		return newGemini(cfg), nil
	case "huggingface":
		return newHuggingFace(cfg), nil
	case "fake", "":
		return newFake(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
