package factory

import (
	"fmt"
	"strings"

	"doc-review-be/pkg/llm"
	"doc-review-be/pkg/llm/gemini"
	"doc-review-be/pkg/llm/huggingface"
	"doc-review-be/pkg/llm/ollama"
)

type Settings struct {
	Provider       string
	Model          string
	BaseURL        string
	GeminiKey      string
	HuggingFaceKey string
}

// NewLLMProvider returns (nil, nil) for provider "none" and for hosted
// providers without an API key; callers treat that as "not configured".
func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch strings.ToLower(s.Provider) {
	case "", "none":
		return nil, nil
	case "ollama":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case "huggingface":
		if s.HuggingFaceKey == "" {
			return nil, nil
		}
		return huggingface.NewHuggingFaceProvider(s.HuggingFaceKey, s.BaseURL, s.Model), nil
	case "gemini":
		if s.GeminiKey == "" {
			return nil, nil
		}
		return gemini.NewGeminiProvider(s.GeminiKey, s.Model, s.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
