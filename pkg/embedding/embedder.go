package embedding

import (
	"context"
	"sync"

	"doc-review-be/internal/pkg/logger"
)

// Embedder is what the repository talks to. It never fails: provider errors
// are logged and the deterministic hash embedding is used instead. Every
// vector is fitted to the configured dimension.
type Embedder struct {
	provider  EmbeddingProvider
	fallback  *HashProvider
	dimension int
	logger    logger.ILogger

	mu        sync.Mutex
	lastError string
}

// NewEmbedder accepts a nil provider, in which case only the hash embedding is used.
func NewEmbedder(provider EmbeddingProvider, dimension int, log logger.ILogger) *Embedder {
	fallback := NewHashProvider(dimension)
	return &Embedder{
		provider:  provider,
		fallback:  fallback,
		dimension: fallback.dimension,
		logger:    log,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string, taskType string) []float32 {
	if e.provider != nil {
		res, err := e.provider.Generate(ctx, text, taskType)
		if err == nil && len(res.Embedding.Values) > 0 {
			return fitDimension(res.Embedding.Values, e.dimension)
		}
		if err != nil {
			e.recordError(err)
		}
	}

	res, _ := e.fallback.Generate(ctx, text, taskType)
	return res.Embedding.Values
}

// Configured reports whether a real provider sits in front of the hash fallback.
func (e *Embedder) Configured() bool {
	return e.provider != nil
}

func (e *Embedder) ProviderName() string {
	if e.provider == nil {
		return e.fallback.Name()
	}
	return e.provider.Name()
}

func (e *Embedder) Dimension() int {
	return e.dimension
}

func (e *Embedder) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

func (e *Embedder) recordError(err error) {
	e.mu.Lock()
	e.lastError = err.Error()
	e.mu.Unlock()
	e.logger.Warn("Embedding", "Embedding provider failed, using hash fallback", map[string]interface{}{
		"provider": e.provider.Name(),
		"error":    err.Error(),
	})
}

func fitDimension(values []float32, dimension int) []float32 {
	if len(values) == dimension {
		return values
	}
	fitted := make([]float32, dimension)
	copy(fitted, values)
	return normalizeVector(fitted)
}
