package jina

import (
	"context"
	"fmt"
	"net/http"

	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/utils"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey, model string) *JinaProvider {
	if model == "" {
		model = "jina-embeddings-v2-base-en"
	}
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   model,
		client:  &http.Client{},
	}
}

func (p *JinaProvider) WithBaseURL(baseURL string) *JinaProvider {
	p.baseURL = baseURL
	return p
}

func (p *JinaProvider) Name() string {
	return "jina"
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	var jinaResp embeddingResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := utils.PostJSON(ctx, p.client, "jina", p.baseURL, headers, embeddingRequest{Model: p.model, Input: []string{text}}, &jinaResp); err != nil {
		return nil, err
	}
	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}
	if len(jinaResp.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: jinaResp.Data[0].Embedding,
		},
	}, nil
}
