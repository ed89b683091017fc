package embedding

import (
	"context"
	"crypto/sha256"
)

// HashProvider derives a deterministic pseudo-embedding from SHA-256 chains of
// the text. It needs no network and is the fallback for every other provider.
type HashProvider struct {
	dimension int
}

func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashProvider{dimension: dimension}
}

func (p *HashProvider) Name() string {
	return "hash"
}

func (p *HashProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	values := make([]float32, 0, p.dimension)
	seed := []byte(text)
	for len(values) < p.dimension {
		sum := sha256.Sum256(seed)
		seed = sum[:]
		for _, b := range sum {
			values = append(values, float32(b)/127.5-1.0)
			if len(values) == p.dimension {
				break
			}
		}
	}
	return newResponse(normalizeVector(values)), nil
}
