package embedding

import (
	"context"
	"fmt"
	"net/http"

	"doc-review-be/pkg/utils"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1"

type geminiRequestPart struct {
	Text string `json:"text"`
}

type geminiRequestContent struct {
	Parts []geminiRequestPart `json:"parts"`
}

type geminiEmbeddingRequest struct {
	Model    string               `json:"model"`
	Content  geminiRequestContent `json:"content"`
	TaskType string               `json:"task_type,omitempty"`
}

type GeminiProvider struct {
	ApiKey  string
	Model   string
	BaseURL string
	client  *http.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiProvider{
		ApiKey:  apiKey,
		Model:   model,
		BaseURL: defaultGeminiBaseURL,
		client:  &http.Client{},
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	geminiReq := geminiEmbeddingRequest{
		Model: p.Model,
		Content: geminiRequestContent{
			Parts: []geminiRequestPart{{Text: text}},
		},
		TaskType: taskType,
	}
	var embeddingRes EmbeddingResponse
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, p.Model)
	if err := utils.PostJSON(ctx, p.client, "gemini embedding", endpoint, map[string]string{"x-goog-api-key": p.ApiKey}, geminiReq, &embeddingRes); err != nil {
		return nil, err
	}
	if len(embeddingRes.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from gemini")
	}

	return &embeddingRes, nil
}
