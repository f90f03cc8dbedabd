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

var openAIDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

type openAIEmbedder struct {
	apiKey  string
	model   string
	baseURL string
	dims    int
	client  *http.Client
}

func newOpenAI(cfg config.EmbeddingConfig) *openAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = openAIDims[model]
	}
	return &openAIEmbedder{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type openAIRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (o *openAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(openAIRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai embeddings: status %d: %s", resp.StatusCode, string(data))
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	vectors := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (o *openAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return vectors[0], nil
}

func (o *openAIEmbedder) Dimensions() int { return o.dims }
