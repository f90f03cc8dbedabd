package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/x402rag/gateway/internal/config"
)

// huggingFaceEmbedder calls a locally or remotely hosted inference
// endpoint speaking the HF text-embeddings-inference wire format.
type huggingFaceEmbedder struct {
	apiKey  string
	baseURL string
	dims    int
	client  *http.Client
}

func newHuggingFace(cfg config.EmbeddingConfig) *huggingFaceEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = 768
	}
	return &huggingFaceEmbedder{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type hfRequest struct {
	Inputs []string `json:"inputs"`
}

func (h *huggingFaceEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(hfRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("huggingface embed: status %d: %s", resp.StatusCode, string(data))
	}

	var vectors [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode huggingface response: %w", err)
	}
	return vectors, nil
}

func (h *huggingFaceEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := h.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("huggingface embed: empty response")
	}
	return vectors[0], nil
}

func (h *huggingFaceEmbedder) Dimensions() int { return h.dims }
