package response

import (
	"context"
	"strings"
	"sync"

	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/llm"
	"doc-review-be/pkg/review/prompt"
)

// Generator wraps the optional LLM provider. A nil provider, an error or an
// empty completion all count as "no generation" and callers fall back to
// deterministic text.
type Generator struct {
	llmProvider llm.LLMProvider
	model       string
	logger      logger.ILogger

	mu        sync.Mutex
	lastError string
}

// NewGenerator creates a new response generator
func NewGenerator(llmProvider llm.LLMProvider, model string, log logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		model:       model,
		logger:      log,
	}
}

// Generate returns the trimmed completion and true, or "" and false.
func (g *Generator) Generate(ctx context.Context, p prompt.Prompt) (string, bool) {
	if g.llmProvider == nil {
		return "", false
	}

	out, err := g.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User},
	}, llm.WithTemperature(0.2))
	if err != nil {
		g.mu.Lock()
		g.lastError = err.Error()
		g.mu.Unlock()
		g.logger.Warn("Generation", "LLM generation failed, using fallback", map[string]interface{}{
			"provider": g.llmProvider.Name(),
			"error":    err.Error(),
		})
		return "", false
	}

	out = strings.TrimSpace(out)
	return out, out != ""
}

// GenerateOr returns fallback when generation is unavailable.
func (g *Generator) GenerateOr(ctx context.Context, p prompt.Prompt, fallback string) string {
	if out, ok := g.Generate(ctx, p); ok {
		return out
	}
	return fallback
}

func (g *Generator) Configured() bool {
	return g.llmProvider != nil
}

func (g *Generator) ProviderName() string {
	if g.llmProvider == nil {
		return "none"
	}
	return g.llmProvider.Name()
}

func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}
