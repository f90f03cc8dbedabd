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

var geminiDims = map[string]int{
	"text-embedding-004": 768,
}

type geminiEmbedder struct {
	apiKey  string
	model   string
	baseURL string
	dims    int
	client  *http.Client
}

func newGemini(cfg config.EmbeddingConfig) *geminiEmbedder {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = geminiDims[model]
	}
	return &geminiEmbedder{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type geminiResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

func (g *geminiEmbedder) embedOne(ctx context.Context, text string) ([]float64, error) {
	var reqBody geminiRequest
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini embedContent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini embedContent: status %d: %s", resp.StatusCode, string(data))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	return out.Embedding.Values, nil
}

func (g *geminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := g.embedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (g *geminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return g.embedOne(ctx, text)
}

func (g *geminiEmbedder) Dimensions() int { return g.dims }
